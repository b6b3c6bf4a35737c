package resample

import (
	"errors"
	"fmt"
)

const (
	// MaxRate bounds input and output rates.
	MaxRate = 1_000_000
	// MaxChannels bounds the channel count of one resampler.
	MaxChannels = 8
)

var (
	ErrInvalidConfig   = errors.New("resample: invalid config")
	ErrInvalidRate     = fmt.Errorf("%w: sample rate out of range", ErrInvalidConfig)
	ErrInvalidChannels = fmt.Errorf("%w: channel count out of range", ErrInvalidConfig)
	ErrUnknownBackend  = errors.New("resample: unknown backend")
	ErrMisaligned      = errors.New("resample: buffer length is not a multiple of the channel count")
)

// Config describes one conversion.
type Config struct {
	InputRate  uint32
	OutputRate uint32
	Channels   int
	Quality    Quality
	Backend    BackendKind
}

// Validate reports whether c can be realised.
func (c Config) Validate() error {
	if c.InputRate == 0 || c.InputRate > MaxRate {
		return fmt.Errorf("%w: input %d Hz", ErrInvalidRate, c.InputRate)
	}

	if c.OutputRate == 0 || c.OutputRate > MaxRate {
		return fmt.Errorf("%w: output %d Hz", ErrInvalidRate, c.OutputRate)
	}

	if c.Channels < 1 || c.Channels > MaxChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, c.Channels)
	}

	if !c.Quality.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, c.Quality)
	}

	return nil
}

// Ratio is OutputRate/InputRate.
func (c Config) Ratio() float64 {
	if c.InputRate == 0 {
		return 0
	}

	return float64(c.OutputRate) / float64(c.InputRate)
}

// CalculateOutputSize returns ceil(frames*OutputRate/InputRate), the most
// frames a single Process call can return for frames input frames.
func (c Config) CalculateOutputSize(frames int) int {
	if frames <= 0 || c.InputRate == 0 {
		return 0
	}

	n := uint64(frames)*uint64(c.OutputRate) + uint64(c.InputRate) - 1

	return int(n / uint64(c.InputRate))
}
