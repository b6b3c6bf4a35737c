package spatial

import (
	"fmt"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/dsp/filter/biquad"
	"github.com/soulaudio/soul-player-sub002/dsp/filter/design"
)

const (
	minEnhancerWidth  = 0.0
	maxEnhancerWidth  = 2.0
	minEnhancerGainDB = -12.0
	maxEnhancerGainDB = 12.0
	minBassMonoHz     = 20.0
	maxBassMonoHz     = 500.0

	bassMonoQ = 0.7071067811865476
)

// EnhancerSettings controls the mid/side stereo enhancer.
type EnhancerSettings struct {
	// Width scales the side signal: 0 is mono, 1 unchanged, 2 doubled.
	Width float64 `json:"width"`
	// MidGainDB and SideGainDB are applied after the width scaling.
	MidGainDB  float64 `json:"mid_gain_db"`
	SideGainDB float64 `json:"side_gain_db"`
	// Balance attenuates the opposite channel: -1 full left, +1 full right.
	Balance float64 `json:"balance"`
	// BassMonoHz removes side content below this frequency. 0 disables.
	BassMonoHz float64 `json:"bass_mono_hz,omitempty"`
}

// DefaultEnhancerSettings returns a neutral configuration.
func DefaultEnhancerSettings() EnhancerSettings {
	return EnhancerSettings{Width: 1}
}

// Validate rejects non-finite values. In-range clamping is done by Clamped.
func (s EnhancerSettings) Validate() error {
	for _, v := range [...]float64{s.Width, s.MidGainDB, s.SideGainDB, s.Balance, s.BassMonoHz} {
		if !core.IsFinite(v) {
			return fmt.Errorf("%w: enhancer value %v", ErrInvalidSettings, v)
		}
	}

	if s.BassMonoHz < 0 {
		return fmt.Errorf("%w: bass mono frequency %v", ErrInvalidSettings, s.BassMonoHz)
	}

	return nil
}

// Clamped returns s with every field limited to its range.
func (s EnhancerSettings) Clamped() EnhancerSettings {
	out := EnhancerSettings{
		Width:      core.Clamp(s.Width, minEnhancerWidth, maxEnhancerWidth),
		MidGainDB:  core.Clamp(s.MidGainDB, minEnhancerGainDB, maxEnhancerGainDB),
		SideGainDB: core.Clamp(s.SideGainDB, minEnhancerGainDB, maxEnhancerGainDB),
		Balance:    core.Clamp(s.Balance, -1, 1),
	}
	if s.BassMonoHz > 0 {
		out.BassMonoHz = core.Clamp(s.BassMonoHz, minBassMonoHz, maxBassMonoHz)
	}

	return out
}

// StereoEnhancer scales mid and side components independently and applies
// a balance control.
type StereoEnhancer struct {
	effects.Toggle

	params *core.Latch[EnhancerSettings]
	active EnhancerSettings
	rate   uint32

	midGain, sideGain float64
	gainL, gainR      float64
	neutral           bool

	bassMono bool
	sideHP   biquad.Section
}

// NewStereoEnhancer returns an enhancer configured with s.
func NewStereoEnhancer(s EnhancerSettings) (*StereoEnhancer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s = s.Clamped()

	return &StereoEnhancer{params: core.NewLatch(s), active: s}, nil
}

// Update replaces the settings after validation and clamping.
func (e *StereoEnhancer) Update(s EnhancerSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	e.params.Store(s.Clamped())

	return nil
}

// SetWidth sets the side scaling, clamped to [0, 2].
func (e *StereoEnhancer) SetWidth(width float64) error {
	return e.modify(func(s *EnhancerSettings) { s.Width = width })
}

// SetBalance sets the balance, clamped to [-1, 1].
func (e *StereoEnhancer) SetBalance(balance float64) error {
	return e.modify(func(s *EnhancerSettings) { s.Balance = balance })
}

// SetMidSideGain sets the mid and side gains in dB, clamped to ±12.
func (e *StereoEnhancer) SetMidSideGain(midDB, sideDB float64) error {
	return e.modify(func(s *EnhancerSettings) { s.MidGainDB, s.SideGainDB = midDB, sideDB })
}

func (e *StereoEnhancer) modify(fn func(*EnhancerSettings)) error {
	return e.params.Modify(func(s *EnhancerSettings) error {
		fn(s)
		if err := s.Validate(); err != nil {
			return err
		}
		*s = s.Clamped()
		return nil
	})
}

// Settings returns the current settings.
func (e *StereoEnhancer) Settings() EnhancerSettings {
	return e.params.Load()
}

// Process implements effects.Effect.
func (e *StereoEnhancer) Process(buf []float32, sampleRate uint32) {
	if !effects.ValidBuffer(&e.Toggle, buf, sampleRate) {
		return
	}

	if e.params.Take(&e.active) || sampleRate != e.rate {
		rateChanged := sampleRate != e.rate
		e.rate = sampleRate
		e.updateCoefficients()
		if rateChanged {
			e.sideHP.Reset()
		}
	}

	if e.neutral {
		return
	}

	for i := 0; i < len(buf); i += effects.Channels {
		l, r := float64(buf[i]), float64(buf[i+1])
		mid := (l + r) * 0.5
		side := (l - r) * 0.5

		if e.bassMono {
			side = e.sideHP.ProcessSample(side)
		}

		mid *= e.midGain
		side *= e.sideGain

		buf[i] = float32((mid + side) * e.gainL)
		buf[i+1] = float32((mid - side) * e.gainR)
	}
}

// Reset implements effects.Effect.
func (e *StereoEnhancer) Reset() {
	if e.params.Take(&e.active) && e.rate > 0 {
		e.updateCoefficients()
	}

	e.sideHP.Reset()
}

func (e *StereoEnhancer) updateCoefficients() {
	s := e.active

	e.midGain = core.DBToLinear(s.MidGainDB)
	e.sideGain = s.Width * core.DBToLinear(s.SideGainDB)
	e.gainL = core.Clamp(1-s.Balance, 0, 1)
	e.gainR = core.Clamp(1+s.Balance, 0, 1)

	e.bassMono = s.BassMonoHz > 0
	if e.bassMono {
		e.sideHP.SetCoefficients(design.Highpass(s.BassMonoHz, bassMonoQ, float64(e.rate)))
	}

	e.neutral = s.Width == 1 && s.MidGainDB == 0 && s.SideGainDB == 0 && s.Balance == 0 && !e.bassMono
}
