// Package eq implements the parametric and graphic equalizers.
//
// Both equalizers are banks of biquad sections, one cascade per stereo
// channel. Band parameters are validated and clamped by every setter and
// clamped again when coefficients are computed, so no path can feed an
// out-of-range gain, Q or frequency into the filter design.
package eq

import (
	"errors"
	"fmt"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/filter/biquad"
	"github.com/soulaudio/soul-player-sub002/dsp/filter/design"
)

const (
	MinGainDB = -12.0
	MaxGainDB = 12.0
	MinQ      = 0.1
	MaxQ      = 10.0

	// MaxFrequency is the upper bound applied before the sample-rate
	// dependent Nyquist clamp.
	MaxFrequency = 20000.0
)

var (
	ErrInvalidBand   = errors.New("eq: invalid band")
	ErrBandIndex     = errors.New("eq: band index out of range")
	ErrBandCount     = errors.New("eq: wrong number of bands")
	ErrUnknownPreset = errors.New("eq: unknown preset")
)

// Shape selects the filter response of a band.
type Shape int

const (
	ShapePeak Shape = iota
	ShapeLowShelf
	ShapeHighShelf
)

func (s Shape) String() string {
	switch s {
	case ShapePeak:
		return "peak"
	case ShapeLowShelf:
		return "low_shelf"
	case ShapeHighShelf:
		return "high_shelf"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Band is one equalizer band. For shelves Q controls the slope.
type Band struct {
	Frequency float64 `json:"frequency"`
	GainDB    float64 `json:"gain_db"`
	Q         float64 `json:"q"`
}

// Validate rejects values that cannot be clamped into a meaningful band.
func (b Band) Validate() error {
	switch {
	case !core.IsFinite(b.Frequency) || b.Frequency <= 0:
		return fmt.Errorf("%w: frequency %v", ErrInvalidBand, b.Frequency)
	case !core.IsFinite(b.GainDB):
		return fmt.Errorf("%w: gain %v", ErrInvalidBand, b.GainDB)
	case !core.IsFinite(b.Q) || b.Q <= 0:
		return fmt.Errorf("%w: q %v", ErrInvalidBand, b.Q)
	}

	return nil
}

// Clamped returns b with gain, Q and frequency limited to their ranges.
func (b Band) Clamped() Band {
	return Band{
		Frequency: core.Clamp(b.Frequency, design.MinFrequency, MaxFrequency),
		GainDB:    core.Clamp(b.GainDB, MinGainDB, MaxGainDB),
		Q:         core.Clamp(b.Q, MinQ, MaxQ),
	}
}

// Coefficients designs the band at sampleRate. The band is clamped here
// regardless of how it was built, and the frequency is additionally held
// below Nyquist.
func (b Band) Coefficients(shape Shape, sampleRate float64) biquad.Coefficients {
	c := b.Clamped()
	freq := design.ClampFrequency(c.Frequency, sampleRate)

	switch shape {
	case ShapeLowShelf:
		return design.LowShelf(freq, c.GainDB, c.Q, sampleRate)
	case ShapeHighShelf:
		return design.HighShelf(freq, c.GainDB, c.Q, sampleRate)
	default:
		return design.Peak(freq, c.GainDB, c.Q, sampleRate)
	}
}

func checkedBand(b Band) (Band, error) {
	if err := b.Validate(); err != nil {
		return Band{}, err
	}

	return b.Clamped(), nil
}
