// Package dither reduces floating-point audio to fixed-point words.
//
// NoiseShaper is a cascade-of-integrators error-feedback loop of order 1,
// 2, 3 or 5 with binomial feedback weights, giving a noise transfer of
// (1 - z^-1)^N and a pure N-sample delay on the signal. Quantizer combines
// it with dither noise to produce integer PCM.
package dither
