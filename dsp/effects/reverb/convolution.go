package reverb

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/conv"
	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/dsp/resample"
)

// DirectMaxTaps is the longest response convolved in the time domain.
// At 128 taps a direct FIR costs about as much per sample as the FFT path
// with a 128-sample block, and it has no block bookkeeping.
const DirectMaxTaps = 128

const defaultMix = 0.3

// ErrInvalidMix is returned for a mix outside [0, 1].
var ErrInvalidMix = errors.New("reverb: mix must be within [0, 1]")

// Option configures NewConvolution.
type Option func(*config) error

type config struct {
	sampleRate uint32
	mix        float64
	blockSize  int
	maxTaps    int
	normalize  bool
	quality    resample.Quality
	backend    resample.BackendKind
	log        logrus.FieldLogger
}

// WithSampleRate sets the engine rate. The response is resampled to it at
// load time. Defaults to the response's own rate.
func WithSampleRate(rate uint32) Option {
	return func(c *config) error {
		if rate == 0 {
			return ErrImpulseRate
		}

		c.sampleRate = rate

		return nil
	}
}

// WithMix sets the initial dry/wet mix.
func WithMix(mix float64) Option {
	return func(c *config) error {
		if !validMix(mix) {
			return ErrInvalidMix
		}

		c.mix = mix

		return nil
	}
}

// WithBlockSize sets the FFT partition size of long responses.
func WithBlockSize(n int) Option {
	return func(c *config) error {
		c.blockSize = n
		return nil
	}
}

// WithMaxLength truncates the response to n frames, fading out the last
// tenth to avoid a step at the cut.
func WithMaxLength(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("reverb: max length %d must be positive", n)
		}

		c.maxTaps = n

		return nil
	}
}

// WithNormalize scales the response peak to -1 dBFS.
func WithNormalize() Option {
	return func(c *config) error {
		c.normalize = true
		return nil
	}
}

// WithResampling picks the converter used when the response rate differs
// from the engine rate.
func WithResampling(q resample.Quality, backend resample.BackendKind) Option {
	return func(c *config) error {
		c.quality = q
		c.backend = backend

		return nil
	}
}

// WithLogger sets the logger used while loading.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) error {
		c.log = log
		return nil
	}
}

// Convolution is a stereo convolution reverb. A mono response feeds both
// channels.
type Convolution struct {
	effects.Toggle

	rate    uint32
	taps    int
	direct  bool
	engines [effects.Channels]conv.Streamer

	mix       *core.Latch[float64]
	activeMix float64
	mismatch  atomic.Bool

	planar [][]float64
	wet    []float64
	dry    []float64
}

// NewConvolution loads ir and builds the per-channel engines.
func NewConvolution(ir ImpulseResponse, opts ...Option) (*Convolution, error) {
	if err := ir.Validate(); err != nil {
		return nil, err
	}

	cfg := config{
		sampleRate: ir.SampleRate,
		mix:        defaultMix,
		blockSize:  conv.DefaultBlockSize,
		quality:    resample.QualityHigh,
		log:        logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	ir, err := ir.Resampled(cfg.sampleRate, cfg.quality, cfg.backend)
	if err != nil {
		return nil, err
	}

	if cfg.normalize {
		ir = ir.Normalized(-1)
	}

	kernels := kernelsFor(ir, cfg.maxTaps)

	c := &Convolution{
		rate:      cfg.sampleRate,
		taps:      len(kernels[0]),
		direct:    len(kernels[0]) <= DirectMaxTaps,
		mix:       core.NewLatch(cfg.mix),
		activeMix: cfg.mix,
		planar:    make([][]float64, effects.Channels),
	}

	for ch, k := range kernels {
		if c.direct {
			c.engines[ch], err = conv.NewDirect(k)
		} else {
			c.engines[ch], err = conv.NewPartitioned(k, cfg.blockSize)
		}

		if err != nil {
			return nil, fmt.Errorf("reverb: channel %d: %w", ch, err)
		}
	}

	cfg.log.WithFields(logrus.Fields{
		"taps":   c.taps,
		"rate":   c.rate,
		"direct": c.direct,
		"source": ir.Channels(),
	}).Debug("impulse response loaded")

	return c, nil
}

func kernelsFor(ir ImpulseResponse, maxTaps int) [effects.Channels][]float64 {
	n := ir.Len()
	if maxTaps > 0 && n > maxTaps {
		n = maxTaps
	}

	var out [effects.Channels][]float64

	for ch := range out {
		src := ir.Samples[min(ch, ir.Channels()-1)]

		k := make([]float64, n)
		for i := range k {
			k[i] = float64(src[i])
		}

		if n < ir.Len() {
			fadeTail(k)
		}

		out[ch] = k
	}

	return out
}

// fadeTail applies a half-cosine fade over the last tenth of k.
func fadeTail(k []float64) {
	n := max(1, len(k)/10)
	tail := k[len(k)-n:]

	fade := make([]float64, n)
	for i := range fade {
		fade[i] = 0.5 * (1 + math.Cos(math.Pi*float64(i+1)/float64(n)))
	}

	vecmath.MulBlockInPlace(tail, fade)
}

func validMix(m float64) bool { return m >= 0 && m <= 1 }

// SampleRate is the rate the engines were built for.
func (c *Convolution) SampleRate() uint32 { return c.rate }

// Taps is the loaded response length in frames.
func (c *Convolution) Taps() int { return c.taps }

// Direct reports whether the time-domain engine is in use.
func (c *Convolution) Direct() bool { return c.direct }

// RateMismatch reports whether the last Process call saw a sample rate
// other than SampleRate and passed the buffer through dry.
func (c *Convolution) RateMismatch() bool { return c.mismatch.Load() }

// SetMix sets the dry/wet balance: 0 is dry, 1 is fully wet.
func (c *Convolution) SetMix(mix float64) error {
	if !validMix(mix) {
		return fmt.Errorf("%w: %v", ErrInvalidMix, mix)
	}

	c.mix.Store(mix)

	return nil
}

// Mix returns the last value set.
func (c *Convolution) Mix() float64 { return c.mix.Load() }

func (c *Convolution) Process(buf []float32, sampleRate uint32) {
	if !effects.ValidBuffer(&c.Toggle, buf, sampleRate) {
		return
	}

	if sampleRate != c.rate {
		c.mismatch.Store(true)
		return
	}

	c.mismatch.Store(false)
	c.mix.Take(&c.activeMix)

	c.planar = core.Deinterleave(c.planar, buf)
	frames := len(buf) / effects.Channels

	c.wet = core.EnsureLen(c.wet, frames)
	c.dry = core.EnsureLen(c.dry, frames)

	for ch, x := range c.planar {
		copy(c.wet, x)
		c.engines[ch].ProcessBlock(c.wet)

		// The engines keep running at zero mix so a later mix change
		// does not replay audio from before it.
		if c.activeMix == 0 {
			continue
		}

		vecmath.ScaleBlock(c.dry, x, 1-c.activeMix)
		vecmath.ScaleBlock(x, c.wet, c.activeMix)
		vecmath.AddBlockInPlace(x, c.dry)

		for i, v := range x {
			x[i] = core.FlushDenormals(v)
		}
	}

	if c.activeMix != 0 {
		core.Interleave(buf, c.planar)
	}
}

func (c *Convolution) Reset() {
	for _, e := range c.engines {
		e.Reset()
	}

	c.mismatch.Store(false)
}
