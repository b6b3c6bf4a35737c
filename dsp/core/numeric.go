// Package core holds numeric helpers and the parameter hand-off primitive
// shared by every processor in the DSP tree.
package core

import "math"

const defaultEpsilon = 1e-12

// DenormalThreshold is the magnitude below which recursive filter state and
// output are treated as silence.
const DenormalThreshold = 1e-15

// Clamp limits value to the inclusive range [min, max].
// NaN is mapped to min so that a corrupt parameter can never reach a filter.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min || math.IsNaN(value) {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// FlushDenormals converts values below DenormalThreshold to exact zero.
func FlushDenormals(x float64) float64 {
	if x > -DenormalThreshold && x < DenormalThreshold {
		return 0
	}

	return x
}

// IsFinite reports whether x is neither NaN nor ±Inf.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// TimeConstantCoeff returns the one-pole smoothing coefficient reaching
// 1-1/e of a step after ms milliseconds at sampleRate.
func TimeConstantCoeff(ms, sampleRate float64) float64 {
	if ms <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1 / (ms * 0.001 * sampleRate))
}
