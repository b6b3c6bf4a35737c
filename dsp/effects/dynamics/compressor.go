package dynamics

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
)

const (
	minCompressorThresholdDB = -60.0
	maxCompressorThresholdDB = 0.0
	minCompressorRatio       = 1.0
	maxCompressorRatio       = 100.0
	minCompressorAttackMs    = 0.1
	maxCompressorAttackMs    = 1000.0
	minCompressorReleaseMs   = 1.0
	maxCompressorReleaseMs   = 5000.0
	minCompressorKneeDB      = 0.0
	maxCompressorKneeDB      = 24.0
	minCompressorMakeupDB    = 0.0
	maxCompressorMakeupDB    = 24.0

	// log2(10)/20 converts dB to the log2 domain.
	log2Of10Div20 = 0.166096404744
)

// ErrInvalidSettings wraps every rejected dynamics parameter.
var ErrInvalidSettings = errors.New("dynamics: invalid settings")

// CompressorSettings is the complete parameter set of a Compressor.
type CompressorSettings struct {
	ThresholdDB  float64 `json:"threshold_db"`
	Ratio        float64 `json:"ratio"`
	AttackMs     float64 `json:"attack_ms"`
	ReleaseMs    float64 `json:"release_ms"`
	KneeDB       float64 `json:"knee_db"`
	MakeupGainDB float64 `json:"makeup_gain_db"`
}

// DefaultCompressorSettings returns -20 dB threshold, 4:1, 10 ms attack,
// 100 ms release, 6 dB knee and no makeup gain.
func DefaultCompressorSettings() CompressorSettings {
	return CompressorSettings{
		ThresholdDB:  -20,
		Ratio:        4,
		AttackMs:     10,
		ReleaseMs:    100,
		KneeDB:       6,
		MakeupGainDB: 0,
	}
}

func checkRange(name string, v, lo, hi float64) error {
	if !core.IsFinite(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %s must be in [%g, %g]: %g", ErrInvalidSettings, name, lo, hi, v)
	}

	return nil
}

// Validate reports every out-of-range parameter.
func (s CompressorSettings) Validate() error {
	return errors.Join(
		checkRange("threshold", s.ThresholdDB, minCompressorThresholdDB, maxCompressorThresholdDB),
		checkRange("ratio", s.Ratio, minCompressorRatio, maxCompressorRatio),
		checkRange("attack", s.AttackMs, minCompressorAttackMs, maxCompressorAttackMs),
		checkRange("release", s.ReleaseMs, minCompressorReleaseMs, maxCompressorReleaseMs),
		checkRange("knee", s.KneeDB, minCompressorKneeDB, maxCompressorKneeDB),
		checkRange("makeup gain", s.MakeupGainDB, minCompressorMakeupDB, maxCompressorMakeupDB),
	)
}

// CompressorOption adjusts the settings a Compressor is built with.
type CompressorOption func(*CompressorSettings) error

// WithCompressorSettings replaces all settings.
func WithCompressorSettings(s CompressorSettings) CompressorOption {
	return func(dst *CompressorSettings) error {
		*dst = s
		return nil
	}
}

// WithThreshold sets the threshold in dB.
func WithThreshold(dB float64) CompressorOption {
	return func(s *CompressorSettings) error {
		s.ThresholdDB = dB
		return nil
	}
}

// WithRatio sets the compression ratio.
func WithRatio(ratio float64) CompressorOption {
	return func(s *CompressorSettings) error {
		s.Ratio = ratio
		return nil
	}
}

// WithAttackRelease sets both time constants in milliseconds.
func WithAttackRelease(attackMs, releaseMs float64) CompressorOption {
	return func(s *CompressorSettings) error {
		s.AttackMs, s.ReleaseMs = attackMs, releaseMs
		return nil
	}
}

// WithMakeupGain sets the makeup gain in dB.
func WithMakeupGain(dB float64) CompressorOption {
	return func(s *CompressorSettings) error {
		s.MakeupGainDB = dB
		return nil
	}
}

// Compressor is a stereo-linked soft-knee compressor. Both channels share
// one peak envelope so the stereo image does not shift under compression.
type Compressor struct {
	effects.Toggle

	params *core.Latch[CompressorSettings]
	active CompressorSettings
	rate   uint32

	attackCoeff      float64
	releaseCoeff     float64
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	slope            float64 // 1 - 1/ratio
	makeupGainLin    float64

	envelope float64
	minGain  atomic.Uint64 // float64 bits of the lowest gain in the last buffer
}

// NewCompressor returns a Compressor with default settings adjusted by opts.
func NewCompressor(opts ...CompressorOption) (*Compressor, error) {
	s := DefaultCompressorSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	c := &Compressor{
		params: core.NewLatch(s),
		active: s,
	}
	c.minGain.Store(math.Float64bits(1))
	c.updateCoefficients()

	return c, nil
}

// Update replaces every setting. Invalid settings are rejected whole.
func (c *Compressor) Update(s CompressorSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.params.Store(s)

	return nil
}

func (c *Compressor) modify(fn func(*CompressorSettings)) error {
	return c.params.Modify(func(s *CompressorSettings) error {
		fn(s)
		return s.Validate()
	})
}

// SetThreshold sets the threshold in dB, [-60, 0].
func (c *Compressor) SetThreshold(dB float64) error {
	return c.modify(func(s *CompressorSettings) { s.ThresholdDB = dB })
}

// SetRatio sets the ratio, [1, 100]. A ratio of 1 is exact passthrough.
func (c *Compressor) SetRatio(ratio float64) error {
	return c.modify(func(s *CompressorSettings) { s.Ratio = ratio })
}

// SetAttack sets the attack time in ms, [0.1, 1000].
func (c *Compressor) SetAttack(ms float64) error {
	return c.modify(func(s *CompressorSettings) { s.AttackMs = ms })
}

// SetRelease sets the release time in ms, [1, 5000].
func (c *Compressor) SetRelease(ms float64) error {
	return c.modify(func(s *CompressorSettings) { s.ReleaseMs = ms })
}

// SetKnee sets the soft-knee width in dB, [0, 24]. Zero is a hard knee.
func (c *Compressor) SetKnee(dB float64) error {
	return c.modify(func(s *CompressorSettings) { s.KneeDB = dB })
}

// SetMakeupGain sets the makeup gain in dB, [0, 24].
func (c *Compressor) SetMakeupGain(dB float64) error {
	return c.modify(func(s *CompressorSettings) { s.MakeupGainDB = dB })
}

// Settings returns the most recently accepted settings.
func (c *Compressor) Settings() CompressorSettings {
	return c.params.Load()
}

// GainReductionDB reports the deepest gain reduction applied during the
// most recent buffer, as a non-negative dB value.
func (c *Compressor) GainReductionDB() float64 {
	return -core.LinearToDB(math.Float64frombits(c.minGain.Load()))
}

// Process implements effects.Effect.
func (c *Compressor) Process(buf []float32, sampleRate uint32) {
	if !effects.ValidBuffer(&c.Toggle, buf, sampleRate) {
		return
	}

	changed := c.params.Take(&c.active)
	if changed || sampleRate != c.rate {
		c.rate = sampleRate
		c.updateCoefficients()
	}

	minGain := 1.0

	for i := 0; i < len(buf); i += effects.Channels {
		l, r := float64(buf[i]), float64(buf[i+1])
		level := math.Max(math.Abs(l), math.Abs(r))

		if level > c.envelope {
			c.envelope += (level - c.envelope) * c.attackCoeff
		} else {
			c.envelope = level + (c.envelope-level)*c.releaseCoeff
		}
		c.envelope = core.FlushDenormals(c.envelope)

		gain := c.calculateGain(c.envelope)
		minGain = math.Min(minGain, gain)

		g := gain * c.makeupGainLin
		buf[i] = float32(l * g)
		buf[i+1] = float32(r * g)
	}

	c.minGain.Store(math.Float64bits(minGain))
}

// Reset implements effects.Effect.
func (c *Compressor) Reset() {
	if c.params.Take(&c.active) {
		c.updateCoefficients()
	}

	c.envelope = 0
	c.minGain.Store(math.Float64bits(1))
}

func (c *Compressor) updateCoefficients() {
	s := c.active

	c.thresholdLog2 = s.ThresholdDB * log2Of10Div20
	c.kneeWidthLog2 = s.KneeDB * log2Of10Div20
	c.invKneeWidthLog2 = 0
	if s.KneeDB > 0 {
		c.invKneeWidthLog2 = 1 / c.kneeWidthLog2
	}

	c.slope = 1 - 1/s.Ratio
	c.makeupGainLin = mathPower10(s.MakeupGainDB / 20)

	sr := float64(c.rate)
	if sr <= 0 {
		return
	}

	c.attackCoeff = 1 - math.Exp(-math.Ln2/(s.AttackMs*0.001*sr))
	c.releaseCoeff = math.Exp(-math.Ln2 / (s.ReleaseMs * 0.001 * sr))
}

// calculateGain maps the envelope to a linear gain with a quadratic soft
// knee in the log2 domain.
func (c *Compressor) calculateGain(env float64) float64 {
	if env <= 0 || c.slope == 0 {
		return 1
	}

	overshoot := mathLog2(env) - c.thresholdLog2

	if c.kneeWidthLog2 <= 0 {
		if overshoot <= 0 {
			return 1
		}

		return mathPower2(-overshoot * c.slope)
	}

	half := c.kneeWidthLog2 * 0.5

	var effective float64

	switch {
	case overshoot < -half:
		return 1
	case overshoot > half:
		effective = overshoot
	default:
		x := overshoot + half
		effective = x * x * 0.5 * c.invKneeWidthLog2
	}

	return mathPower2(-effective * c.slope)
}
