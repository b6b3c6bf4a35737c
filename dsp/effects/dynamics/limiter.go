package dynamics

import (
	"math"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
)

const (
	minLimiterThresholdDB = -60.0
	maxLimiterThresholdDB = 0.0
	minLimiterReleaseMs   = 0.1
	maxLimiterReleaseMs   = 5000.0

	// ThresholdRampFrames is the length of the linear ramp applied when the
	// limiter threshold changes.
	ThresholdRampFrames = 64
)

// LimiterSettings is the complete parameter set of a Limiter.
type LimiterSettings struct {
	ThresholdDB float64 `json:"threshold_db"`
	ReleaseMs   float64 `json:"release_ms"`
}

// DefaultLimiterSettings returns -0.3 dB threshold and 50 ms release.
func DefaultLimiterSettings() LimiterSettings {
	return LimiterSettings{ThresholdDB: -0.3, ReleaseMs: 50}
}

// Validate checks threshold <= 0 dB and a positive release.
func (s LimiterSettings) Validate() error {
	if err := checkRange("threshold", s.ThresholdDB, minLimiterThresholdDB, maxLimiterThresholdDB); err != nil {
		return err
	}

	return checkRange("release", s.ReleaseMs, minLimiterReleaseMs, maxLimiterReleaseMs)
}

// Limiter is a stereo-linked brick-wall limiter. The envelope attacks
// instantly so output never exceeds the active threshold; threshold
// changes ramp linearly over ThresholdRampFrames.
type Limiter struct {
	effects.Toggle

	params *core.Latch[LimiterSettings]
	active LimiterSettings
	rate   uint32

	releaseCoeff float64
	envelope     float64

	target   float64 // linear threshold requested by the last update
	current  float64 // linear threshold in effect
	step     float64
	rampLeft int
}

// NewLimiter returns a Limiter with settings s.
func NewLimiter(s LimiterSettings) (*Limiter, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	thr := core.DBToLinear(s.ThresholdDB)

	return &Limiter{
		params:  core.NewLatch(s),
		active:  s,
		target:  thr,
		current: thr,
	}, nil
}

// Update replaces every setting. Invalid settings are rejected whole.
func (l *Limiter) Update(s LimiterSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	l.params.Store(s)

	return nil
}

// SetThreshold sets a new target threshold in dB (<= 0). The active
// threshold ramps to it over the next ThresholdRampFrames frames.
func (l *Limiter) SetThreshold(dB float64) error {
	return l.params.Modify(func(s *LimiterSettings) error {
		s.ThresholdDB = dB
		return s.Validate()
	})
}

// SetRelease sets the release time in ms.
func (l *Limiter) SetRelease(ms float64) error {
	return l.params.Modify(func(s *LimiterSettings) error {
		s.ReleaseMs = ms
		return s.Validate()
	})
}

// Settings returns the most recently accepted settings.
func (l *Limiter) Settings() LimiterSettings {
	return l.params.Load()
}

// Process implements effects.Effect.
func (l *Limiter) Process(buf []float32, sampleRate uint32) {
	if !effects.ValidBuffer(&l.Toggle, buf, sampleRate) {
		return
	}

	if l.params.Take(&l.active) {
		l.retarget()
		l.updateRelease()
	}
	if sampleRate != l.rate {
		l.rate = sampleRate
		l.updateRelease()
	}

	for i := 0; i < len(buf); i += effects.Channels {
		if l.rampLeft > 0 {
			l.rampLeft--
			if l.rampLeft == 0 {
				l.current = l.target
			} else {
				l.current += l.step
			}
		}

		left, right := float64(buf[i]), float64(buf[i+1])
		level := math.Max(math.Abs(left), math.Abs(right))

		if level > l.envelope {
			l.envelope = level
		} else {
			l.envelope = core.FlushDenormals(level + (l.envelope-level)*l.releaseCoeff)
		}

		if l.envelope > l.current {
			g := l.current / l.envelope
			buf[i] = float32(left * g)
			buf[i+1] = float32(right * g)
		}
	}
}

// Reset clears the envelope and snaps the active threshold to its target.
func (l *Limiter) Reset() {
	if l.params.Take(&l.active) {
		l.updateRelease()
	}

	l.target = core.DBToLinear(l.active.ThresholdDB)
	l.current = l.target
	l.rampLeft = 0
	l.step = 0
	l.envelope = 0
}

func (l *Limiter) retarget() {
	target := core.DBToLinear(l.active.ThresholdDB)
	if target == l.target {
		return
	}

	l.target = target
	l.step = (target - l.current) / ThresholdRampFrames
	l.rampLeft = ThresholdRampFrames
}

func (l *Limiter) updateRelease() {
	if l.rate == 0 {
		return
	}

	l.releaseCoeff = math.Exp(-math.Ln2 / (l.active.ReleaseMs * 0.001 * float64(l.rate)))
}
