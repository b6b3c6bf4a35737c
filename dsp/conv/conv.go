package conv

import "errors"

var (
	ErrEmptyKernel  = errors.New("conv: empty kernel")
	ErrInvalidBlock = errors.New("conv: block size must be a power of two >= 16")
)

// Streamer is a single-channel streaming convolver.
type Streamer interface {
	ProcessSample(x float64) float64
	ProcessBlock(buf []float64)
	Reset()
	Len() int
}

// Convolve returns the full linear convolution of signal and kernel.
// It allocates and is meant for offline use and tests.
func Convolve(signal, kernel []float64) []float64 {
	if len(signal) == 0 || len(kernel) == 0 {
		return nil
	}

	out := make([]float64, len(signal)+len(kernel)-1)
	for i, x := range signal {
		if x == 0 {
			continue
		}
		for j, k := range kernel {
			out[i+j] += x * k
		}
	}

	return out
}
