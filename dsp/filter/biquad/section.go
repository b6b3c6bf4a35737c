// Package biquad implements second-order IIR sections in Direct Form II
// Transposed, the building block of every equalizer band.
package biquad

import (
	"math"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
)

// Coefficients holds the transfer function coefficients for a single
// second-order section. a0 is normalized to 1 and not stored.
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward
	A1, A2     float64 // feedback
}

// Identity returns pass-through coefficients.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// IsStable reports whether both poles lie strictly inside the unit circle
// and every coefficient is finite.
func (c Coefficients) IsStable() bool {
	for _, v := range [...]float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if !core.IsFinite(v) {
			return false
		}
	}

	// Jury criterion for z^2 + a1 z + a2.
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

// Section is a single biquad with coefficients and state.
type Section struct {
	Coefficients

	d0, d1 float64
}

// NewSection returns a Section with the given coefficients and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// SettleThreshold is the state magnitude below which a section fed exact
// silence is zeroed outright. Rounding in a resonant section can sustain a
// limit cycle above core.DenormalThreshold that would otherwise never end.
const SettleThreshold = 1e-10

// ProcessSample filters one input sample. State and output values below
// core.DenormalThreshold are flushed to zero, and on silent input a state
// below SettleThreshold is cleared, so a decaying tail settles on exact
// silence.
func (s *Section) ProcessSample(x float64) float64 {
	if x == 0 && math.Abs(s.d0) < SettleThreshold && math.Abs(s.d1) < SettleThreshold {
		s.d0, s.d1 = 0, 0
		return 0
	}

	y := s.B0*x + s.d0
	s.d0 = core.FlushDenormals(s.B1*x - s.A1*y + s.d1)
	s.d1 = core.FlushDenormals(s.B2*x - s.A2*y)

	return core.FlushDenormals(y)
}

// ProcessBlock filters buf in place.
func (s *Section) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = s.ProcessSample(x)
	}
}

// SetCoefficients replaces the coefficients and keeps the state.
func (s *Section) SetCoefficients(c Coefficients) {
	s.Coefficients = c
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// State returns the delay line.
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState restores a delay line captured with State.
func (s *Section) SetState(st [2]float64) {
	s.d0, s.d1 = st[0], st[1]
}
