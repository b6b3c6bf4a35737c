package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// StereoSine returns frames of interleaved stereo with the same sine on
// both channels.
func StereoSine(freqHz, sampleRate, amplitude float64, frames int) []float32 {
	mono := DeterministicSine(freqHz, sampleRate, amplitude, frames)
	return Stereo(mono, mono)
}

// StereoNoise returns frames of interleaved stereo with independent noise
// on each channel.
func StereoNoise(seed int64, amplitude float64, frames int) []float32 {
	return Stereo(
		DeterministicNoise(seed, amplitude, frames),
		DeterministicNoise(seed+1, amplitude, frames),
	)
}

// Stereo interleaves left and right. The shorter side is padded with zeros.
func Stereo(left, right []float64) []float32 {
	n := max(len(left), len(right))
	out := make([]float32, 2*n)
	for i := range n {
		if i < len(left) {
			out[2*i] = float32(left[i])
		}
		if i < len(right) {
			out[2*i+1] = float32(right[i])
		}
	}
	return out
}

// DC generates an interleaved constant-valued signal.
func DC(value float32, length int) []float32 {
	out := make([]float32, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Clone returns a copy of buf.
func Clone(buf []float32) []float32 {
	return append([]float32(nil), buf...)
}
