package dither

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrder    = errors.New("dither: noise shaper order must be 1, 2, 3 or 5")
	ErrInvalidChannels = errors.New("dither: channel count must be positive")
)

// Feedback weights, first integrator first. They are the binomial
// coefficients that make the noise transfer (1 - z^-1)^N.
var shaperCoefficients = map[int][]float64{
	1: {1},
	2: {1, 2},
	3: {1, 3, 3},
	5: {1, 5, 10, 10, 5},
}

// Orders lists the supported shaper orders.
func Orders() []int { return []int{1, 2, 3, 5} }

// StateBound is the clamp applied to every integrator of an order-N
// shaper: twice the sum of its feedback weights. Integrator k carries the
// signal scaled by up to the largest weight, so full-scale input stays
// inside the bound. It returns 0 for an unsupported order.
func StateBound(order int) float64 {
	var sum float64
	for _, a := range shaperCoefficients[order] {
		sum += a
	}

	return 2 * sum
}

// NoiseShaper is a per-channel cascade of integrators with error feedback.
// For each sample call Process, quantize its result, then pass the
// quantization error to Feedback.
type NoiseShaper struct {
	order  int
	coeffs []float64
	bound  float64
	// state[ch][k] is integrator k+1 of channel ch.
	state [][]float64
	last  []float64
}

// NewNoiseShaper builds a shaper of the given order for channels channels.
func NewNoiseShaper(order, channels int) (*NoiseShaper, error) {
	coeffs, ok := shaperCoefficients[order]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}

	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	ns := &NoiseShaper{
		order:  order,
		coeffs: coeffs,
		bound:  StateBound(order),
		state:  make([][]float64, channels),
		last:   make([]float64, channels),
	}

	for ch := range ns.state {
		ns.state[ch] = make([]float64, order)
	}

	return ns, nil
}

func (ns *NoiseShaper) Order() int    { return ns.order }
func (ns *NoiseShaper) Channels() int { return len(ns.state) }

// Process returns the value to quantize for input x on channel ch and
// advances the integrators. An out-of-range channel returns x unchanged.
func (ns *NoiseShaper) Process(ch int, x float64) float64 {
	if ch < 0 || ch >= len(ns.state) {
		return x
	}

	s := ns.state[ch]
	y := s[ns.order-1]

	for k := ns.order - 1; k > 0; k-- {
		s[k] += s[k-1]
	}

	s[0] += ns.coeffs[0] * x
	ns.last[ch] = y

	return y
}

// Feedback subtracts the quantized value, the last Process result plus
// the quantization error e, from every integrator with its weight.
func (ns *NoiseShaper) Feedback(ch int, e float64) {
	if ch < 0 || ch >= len(ns.state) {
		return
	}

	q := ns.last[ch] + e
	s := ns.state[ch]

	for k, a := range ns.coeffs {
		s[k] = max(-ns.bound, min(ns.bound, s[k]-a*q))
	}
}

// Reset zeroes every integrator.
func (ns *NoiseShaper) Reset() {
	for ch := range ns.state {
		clear(ns.state[ch])
		ns.last[ch] = 0
	}
}
