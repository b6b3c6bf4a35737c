// Package design computes biquad coefficients for the equalizer band shapes
// (RBJ cookbook formulas). Every designer clamps its frequency below
// Nyquist first so coefficient sets are always finite and stable.
package design

import (
	"math"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/filter/biquad"
)

const (
	// MaxFrequencyRatio is the highest usable center frequency as a fraction
	// of the sample rate.
	MaxFrequencyRatio = 0.45
	// MinFrequency is the lowest center frequency in Hz.
	MinFrequency = 10.0

	defaultQ = 1 / math.Sqrt2
)

// ClampFrequency limits freq to [MinFrequency, MaxFrequencyRatio*sampleRate].
func ClampFrequency(freq, sampleRate float64) float64 {
	upper := MaxFrequencyRatio * sampleRate
	if upper < MinFrequency {
		return upper
	}

	return core.Clamp(freq, MinFrequency, upper)
}

// Peak designs a peaking band with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity()
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * normalizedQ(q))
	a := math.Pow(10, gainDB/40)

	return normalize(
		1+alpha*a, -2*cw, 1-alpha*a,
		1+alpha/a, -2*cw, 1-alpha/a,
	)
}

// LowShelf designs a low shelf with gain in dB. q enters through the
// alpha term sin(w0)/(2q); 1/sqrt(2) gives the steepest transition
// without overshoot.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity()
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * sw / (2 * normalizedQ(q))

	return normalize(
		a*((a+1)-(a-1)*cw+beta), 2*a*((a-1)-(a+1)*cw), a*((a+1)-(a-1)*cw-beta),
		(a+1)+(a-1)*cw+beta, -2*((a-1)+(a+1)*cw), (a+1)+(a-1)*cw-beta,
	)
}

// HighShelf designs a high shelf with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity()
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * sw / (2 * normalizedQ(q))

	return normalize(
		a*((a+1)+(a-1)*cw+beta), -2*a*((a-1)+(a+1)*cw), a*((a+1)+(a-1)*cw-beta),
		(a+1)-(a-1)*cw+beta, 2*((a-1)-(a+1)*cw), (a+1)-(a-1)*cw-beta,
	)
}

// Lowpass designs a second-order lowpass.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity()
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * normalizedQ(q))

	return normalize(
		(1-cw)/2, 1-cw, (1-cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Highpass designs a second-order highpass.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Identity()
	}

	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * normalizedQ(q))

	return normalize(
		(1+cw)/2, -(1 + cw), (1+cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return 0, false
	}

	return 2 * math.Pi * ClampFrequency(freq, sampleRate) / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || !core.IsFinite(q) {
		return defaultQ
	}

	return q
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || !core.IsFinite(a0) {
		return biquad.Identity()
	}

	c := biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
	if !c.IsStable() {
		return biquad.Identity()
	}

	return c
}
