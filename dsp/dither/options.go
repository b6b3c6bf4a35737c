package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	defaultBitDepth = 16
	minBitDepth     = 2
	maxBitDepth     = 32
)

type config struct {
	ditherType DitherType
	amplitude  float64
	order      int
	limit      bool
	rng        *rand.Rand
}

func defaultConfig() config {
	return config{
		ditherType: DitherTriangular,
		amplitude:  1,
		limit:      true,
	}
}

// Option configures a Quantizer.
type Option func(*config) error

// WithDitherType sets the dither PDF (default triangular).
func WithDitherType(dt DitherType) Option {
	return func(cfg *config) error {
		if !dt.Valid() {
			return fmt.Errorf("dither: invalid dither type: %d", dt)
		}

		cfg.ditherType = dt

		return nil
	}
}

// WithDitherAmplitude scales the dither noise, in LSB (default 1).
func WithDitherAmplitude(amp float64) Option {
	return func(cfg *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
		}

		cfg.amplitude = amp

		return nil
	}
}

// WithNoiseShaping enables a NoiseShaper of the given order. Zero disables
// shaping.
func WithNoiseShaping(order int) Option {
	return func(cfg *config) error {
		if _, ok := shaperCoefficients[order]; !ok && order != 0 {
			return fmt.Errorf("%w: %d", ErrInvalidOrder, order)
		}

		cfg.order = order

		return nil
	}
}

// WithLimit clips output words to the bit-depth range (default true).
func WithLimit(enabled bool) Option {
	return func(cfg *config) error {
		cfg.limit = enabled
		return nil
	}
}

// WithRNG sets the noise source, for reproducible output.
func WithRNG(rng *rand.Rand) Option {
	return func(cfg *config) error {
		cfg.rng = rng
		return nil
	}
}
