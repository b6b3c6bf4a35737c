package eq

import (
	"fmt"
	"math"
	"strings"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
)

// Layout selects the band set of a Graphic EQ.
type Layout int

const (
	// Layout10 has ten octave bands from 31 Hz to 16 kHz.
	Layout10 Layout = 10
	// Layout31 has thirty-one ISO third-octave bands from 20 Hz to 20 kHz.
	Layout31 Layout = 31
)

var (
	octaveCenters = []float64{31, 62, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

	thirdOctaveCenters = []float64{
		20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160,
		200, 250, 315, 400, 500, 630, 800, 1000, 1250, 1600,
		2000, 2500, 3150, 4000, 5000, 6300, 8000, 10000, 12500, 16000,
		20000,
	}
)

// bandQ returns the Q giving adjacent bands of the given octave fraction
// their -3 dB crossover at the geometric midpoint.
func bandQ(octaves float64) float64 {
	r := math.Pow(2, octaves)
	return math.Sqrt(r) / (r - 1)
}

// Frequencies returns the center frequencies of the layout.
func (l Layout) Frequencies() []float64 {
	if l == Layout31 {
		return append([]float64(nil), thirdOctaveCenters...)
	}

	return append([]float64(nil), octaveCenters...)
}

// Q returns the per-band quality factor of the layout.
func (l Layout) Q() float64 {
	if l == Layout31 {
		return bandQ(1.0 / 3)
	}

	return bandQ(1)
}

// Preset is a named graphic EQ curve.
type Preset int

const (
	PresetFlat Preset = iota
	PresetBassBoost
	PresetTrebleBoost
	PresetLoudness
	PresetVocal
)

var presetNames = []string{"flat", "bass_boost", "treble_boost", "loudness", "vocal"}

// Preset curves on the ten octave centers.
var presetCurves = [][]float64{
	PresetFlat:        {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	PresetBassBoost:   {6, 5, 4, 2, 0, 0, 0, 0, 0, 0},
	PresetTrebleBoost: {0, 0, 0, 0, 0, 1, 2, 4, 5, 6},
	PresetLoudness:    {5, 4, 2, 0, -1, -1, 0, 2, 4, 5},
	PresetVocal:       {-2, -2, -1, 1, 3, 4, 3, 1, 0, -1},
}

func (p Preset) String() string {
	if p >= 0 && int(p) < len(presetNames) {
		return presetNames[p]
	}

	return fmt.Sprintf("preset(%d)", int(p))
}

// ParsePreset maps a preset name to its Preset.
func ParsePreset(name string) (Preset, error) {
	norm := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for i, n := range presetNames {
		if n == norm {
			return Preset(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Gains returns the preset curve sampled on the centers of layout.
// Centers between octave points are interpolated on a log-frequency axis.
func (p Preset) Gains(layout Layout) ([]float64, error) {
	if p < 0 || int(p) >= len(presetCurves) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPreset, p)
	}

	curve := presetCurves[p]
	freqs := layout.Frequencies()
	gains := make([]float64, len(freqs))

	for i, f := range freqs {
		gains[i] = interpolateLog(octaveCenters, curve, f)
	}

	return gains, nil
}

func interpolateLog(xs, ys []float64, x float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}

	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}

	for i := 1; i <= last; i++ {
		if x <= xs[i] {
			t := math.Log2(x/xs[i-1]) / math.Log2(xs[i]/xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}

	return ys[last]
}

// GraphicSettings holds one gain per band, lowest band first.
type GraphicSettings struct {
	Gains []float64 `json:"gains"`
}

// Graphic is a bank of fixed-frequency peaking bands.
type Graphic struct {
	*bank

	layout Layout
}

// NewGraphic returns a flat Graphic EQ with the given layout.
func NewGraphic(layout Layout) (*Graphic, error) {
	if layout != Layout10 && layout != Layout31 {
		return nil, fmt.Errorf("%w: layout %d", ErrBandCount, int(layout))
	}

	freqs := layout.Frequencies()
	shapes := make([]Shape, len(freqs))
	bands := make([]Band, len(freqs))
	q := layout.Q()

	for i, f := range freqs {
		shapes[i] = ShapePeak
		bands[i] = Band{Frequency: f, Q: q}
	}

	return &Graphic{bank: newBank(shapes, bands), layout: layout}, nil
}

// Layout returns the band layout.
func (g *Graphic) Layout() Layout { return g.layout }

// Frequencies returns the band center frequencies.
func (g *Graphic) Frequencies() []float64 { return g.layout.Frequencies() }

// Gains returns the current band gains in dB.
func (g *Graphic) Gains() []float64 {
	bands := g.bank.bands()
	gains := make([]float64, len(bands))
	for i, b := range bands {
		gains[i] = b.GainDB
	}

	return gains
}

// SetBandGain sets the gain of band i, clamped to ±12 dB.
func (g *Graphic) SetBandGain(i int, gainDB float64) error {
	if !core.IsFinite(gainDB) {
		return fmt.Errorf("%w: gain %v", ErrInvalidBand, gainDB)
	}

	return g.params.Modify(func(set *bandSet) error {
		if i < 0 || i >= set.n {
			return ErrBandIndex
		}
		set.bands[i].GainDB = core.Clamp(gainDB, MinGainDB, MaxGainDB)
		return nil
	})
}

// SetGains replaces every band gain. len(gains) must match the layout.
func (g *Graphic) SetGains(gains []float64) error {
	for _, v := range gains {
		if !core.IsFinite(v) {
			return fmt.Errorf("%w: gain %v", ErrInvalidBand, v)
		}
	}

	return g.params.Modify(func(set *bandSet) error {
		if len(gains) != set.n {
			return fmt.Errorf("%w: got %d, want %d", ErrBandCount, len(gains), set.n)
		}
		for i, v := range gains {
			set.bands[i].GainDB = core.Clamp(v, MinGainDB, MaxGainDB)
		}
		return nil
	})
}

// ApplyPreset loads a preset curve.
func (g *Graphic) ApplyPreset(p Preset) error {
	gains, err := p.Gains(g.layout)
	if err != nil {
		return err
	}

	return g.SetGains(gains)
}

// Update applies s. Nothing changes if s is invalid.
func (g *Graphic) Update(s GraphicSettings) error {
	return g.SetGains(s.Gains)
}

// Settings returns the current gains.
func (g *Graphic) Settings() GraphicSettings {
	return GraphicSettings{Gains: g.Gains()}
}
