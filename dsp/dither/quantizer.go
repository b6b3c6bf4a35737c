package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Quantizer converts interleaved float samples in [-1, 1) to signed
// integers of a fixed bit depth.
type Quantizer struct {
	bits       int
	channels   int
	ditherType DitherType
	amplitude  float64
	limit      bool
	shaper     *NoiseShaper
	rng        *rand.Rand

	scale  float64
	lo, hi int
}

// NewQuantizer builds a quantizer for bits-bit words. The default is TPDF
// dither of one LSB, no noise shaping and limiting on.
func NewQuantizer(bits, channels int, opts ...Option) (*Quantizer, error) {
	if bits < minBitDepth || bits > maxBitDepth {
		return nil, fmt.Errorf("dither: bit depth must be in [%d, %d]: %d", minBitDepth, maxBitDepth, bits)
	}

	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	q := &Quantizer{
		bits:       bits,
		channels:   channels,
		ditherType: cfg.ditherType,
		amplitude:  cfg.amplitude,
		limit:      cfg.limit,
		rng:        cfg.rng,
		scale:      math.Exp2(float64(bits - 1)),
	}

	q.hi = int(q.scale) - 1
	q.lo = -int(q.scale)

	if cfg.order > 0 {
		ns, err := NewNoiseShaper(cfg.order, channels)
		if err != nil {
			return nil, err
		}

		q.shaper = ns
	}

	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return q, nil
}

func (q *Quantizer) BitDepth() int { return q.bits }

func (q *Quantizer) Channels() int { return q.channels }

// ShaperOrder is 0 when noise shaping is off.
func (q *Quantizer) ShaperOrder() int {
	if q.shaper == nil {
		return 0
	}

	return q.shaper.Order()
}

// Latency is the signal delay in samples added by noise shaping.
func (q *Quantizer) Latency() int { return q.ShaperOrder() }

// QuantizeSample converts one sample of channel ch.
func (q *Quantizer) QuantizeSample(ch int, x float64) int {
	if q.shaper != nil {
		x = q.shaper.Process(ch, x)
	}

	word := int(math.Round(x*q.scale + q.noise()))
	if q.limit {
		word = max(q.lo, min(q.hi, word))
	}

	if q.shaper != nil {
		q.shaper.Feedback(ch, float64(word)/q.scale-x)
	}

	return word
}

// Quantize converts interleaved src into dst, growing dst as needed.
func (q *Quantizer) Quantize(dst []int, src []float32) []int {
	if cap(dst) < len(src) {
		dst = make([]int, len(src))
	}

	dst = dst[:len(src)]

	for i, v := range src {
		dst[i] = q.QuantizeSample(i%q.channels, float64(v))
	}

	return dst
}

// ProcessInPlace quantizes buf and writes the words back as floats.
func (q *Quantizer) ProcessInPlace(buf []float32) {
	for i, v := range buf {
		buf[i] = float32(float64(q.QuantizeSample(i%q.channels, float64(v))) / q.scale)
	}
}

// Reset clears the shaper integrators.
func (q *Quantizer) Reset() {
	if q.shaper != nil {
		q.shaper.Reset()
	}
}

func (q *Quantizer) noise() float64 {
	switch q.ditherType {
	case DitherRectangular:
		return q.amplitude * (q.rng.Float64() - 0.5)
	case DitherTriangular:
		return q.amplitude * (q.rng.Float64() - q.rng.Float64())
	case DitherGaussian:
		return q.amplitude * 0.5 * q.rng.NormFloat64()
	default:
		return 0
	}
}
