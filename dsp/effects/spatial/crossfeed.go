package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
)

const (
	minCrossfeedLevelDB = -12.0
	maxCrossfeedLevelDB = -3.0
	minCrossfeedCutoff  = 300.0
	maxCrossfeedCutoff  = 1000.0
)

// ErrInvalidSettings wraps every rejected spatial parameter.
var ErrInvalidSettings = errors.New("spatial: invalid settings")

// CrossfeedPreset names a level/cutoff pair.
type CrossfeedPreset int

const (
	// CrossfeedNatural is a moderate 700 Hz / -4.5 dB blend.
	CrossfeedNatural CrossfeedPreset = iota
	// CrossfeedMeier is a subtle 650 Hz / -9.5 dB blend.
	CrossfeedMeier
	// CrossfeedChuMoy is the 700 Hz / -6 dB blend.
	CrossfeedChuMoy
	// CrossfeedCustom uses CrossfeedSettings.LevelDB and CutoffHz.
	CrossfeedCustom
)

var crossfeedPresets = map[CrossfeedPreset]struct{ levelDB, cutoffHz float64 }{
	CrossfeedNatural: {-4.5, 700},
	CrossfeedMeier:   {-9.5, 650},
	CrossfeedChuMoy:  {-6, 700},
}

var crossfeedPresetNames = map[CrossfeedPreset]string{
	CrossfeedNatural: "natural",
	CrossfeedMeier:   "meier",
	CrossfeedChuMoy:  "chu_moy",
	CrossfeedCustom:  "custom",
}

func (p CrossfeedPreset) String() string {
	if name, ok := crossfeedPresetNames[p]; ok {
		return name
	}

	return fmt.Sprintf("crossfeed_preset(%d)", int(p))
}

// ParseCrossfeedPreset maps a preset name to its value.
func ParseCrossfeedPreset(name string) (CrossfeedPreset, error) {
	for p, n := range crossfeedPresetNames {
		if n == name {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown crossfeed preset %q", ErrInvalidSettings, name)
}

// MarshalText encodes the preset by name.
func (p CrossfeedPreset) MarshalText() ([]byte, error) {
	if _, ok := crossfeedPresetNames[p]; !ok {
		return nil, fmt.Errorf("%w: crossfeed preset %d", ErrInvalidSettings, int(p))
	}

	return []byte(p.String()), nil
}

// UnmarshalText decodes a preset name.
func (p *CrossfeedPreset) UnmarshalText(text []byte) error {
	v, err := ParseCrossfeedPreset(string(text))
	if err != nil {
		return err
	}

	*p = v

	return nil
}

// CrossfeedSettings selects a preset or, with CrossfeedCustom, explicit
// values. Custom values are clamped to [-12, -3] dB and [300, 1000] Hz.
type CrossfeedSettings struct {
	Preset   CrossfeedPreset `json:"preset"`
	LevelDB  float64         `json:"level_db,omitempty"`
	CutoffHz float64         `json:"cutoff_hz,omitempty"`
}

// Validate rejects unknown presets and non-finite custom values.
func (s CrossfeedSettings) Validate() error {
	if _, ok := crossfeedPresetNames[s.Preset]; !ok {
		return fmt.Errorf("%w: crossfeed preset %d", ErrInvalidSettings, int(s.Preset))
	}

	if s.Preset == CrossfeedCustom && (!core.IsFinite(s.LevelDB) || !core.IsFinite(s.CutoffHz)) {
		return fmt.Errorf("%w: crossfeed level %v, cutoff %v", ErrInvalidSettings, s.LevelDB, s.CutoffHz)
	}

	return nil
}

// Resolve returns the effective level in dB and cutoff in Hz.
func (s CrossfeedSettings) Resolve() (levelDB, cutoffHz float64) {
	if p, ok := crossfeedPresets[s.Preset]; ok {
		return p.levelDB, p.cutoffHz
	}

	return core.Clamp(s.LevelDB, minCrossfeedLevelDB, maxCrossfeedLevelDB),
		core.Clamp(s.CutoffHz, minCrossfeedCutoff, maxCrossfeedCutoff)
}

// Crossfeed blends a low-passed, inverted and attenuated copy of each
// channel into the other. Correlated (mono) content stays mono.
type Crossfeed struct {
	effects.Toggle

	params *core.Latch[CrossfeedSettings]
	active CrossfeedSettings
	rate   uint32

	alpha float64 // one-pole low-pass coefficient
	level float64
	comp  float64

	lpL, lpR float64 // low-passed left (fed to right) and right (fed to left)
}

// NewCrossfeed returns a Crossfeed configured with s.
func NewCrossfeed(s CrossfeedSettings) (*Crossfeed, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &Crossfeed{params: core.NewLatch(s), active: s}, nil
}

// Update replaces the settings.
func (c *Crossfeed) Update(s CrossfeedSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.params.Store(s)

	return nil
}

// SetPreset switches to a named preset.
func (c *Crossfeed) SetPreset(p CrossfeedPreset) error {
	return c.Update(CrossfeedSettings{Preset: p})
}

// SetCustom switches to explicit values, clamped to the safe ranges.
func (c *Crossfeed) SetCustom(levelDB, cutoffHz float64) error {
	return c.Update(CrossfeedSettings{Preset: CrossfeedCustom, LevelDB: levelDB, CutoffHz: cutoffHz})
}

// Settings returns the most recently accepted settings.
func (c *Crossfeed) Settings() CrossfeedSettings {
	return c.params.Load()
}

// Process implements effects.Effect.
func (c *Crossfeed) Process(buf []float32, sampleRate uint32) {
	if !effects.ValidBuffer(&c.Toggle, buf, sampleRate) {
		return
	}

	if c.params.Take(&c.active) || sampleRate != c.rate {
		c.rate = sampleRate
		c.updateCoefficients()
	}

	a, g, comp := c.alpha, c.level, c.comp
	for i := 0; i < len(buf); i += effects.Channels {
		l, r := float64(buf[i]), float64(buf[i+1])

		c.lpL += a * (l - c.lpL)
		c.lpR += a * (r - c.lpR)
		c.lpL = core.FlushDenormals(c.lpL)
		c.lpR = core.FlushDenormals(c.lpR)

		buf[i] = float32((l - g*c.lpR) * comp)
		buf[i+1] = float32((r - g*c.lpL) * comp)
	}
}

// Reset implements effects.Effect.
func (c *Crossfeed) Reset() {
	if c.params.Take(&c.active) && c.rate > 0 {
		c.updateCoefficients()
	}

	c.lpL, c.lpR = 0, 0
}

func (c *Crossfeed) updateCoefficients() {
	levelDB, cutoff := c.active.Resolve()

	c.level = core.DBToLinear(levelDB)
	c.alpha = 1 - math.Exp(-2*math.Pi*cutoff/float64(c.rate))
	// Keeps the summed power of a hard-panned signal unchanged.
	c.comp = 1 / math.Sqrt(1+c.level*c.level)
}
