package eq

import (
	"errors"
	"math"
	"testing"

	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/internal/testutil"
)

var _ effects.Effect = (*Parametric)(nil)
var _ effects.Effect = (*Graphic)(nil)

func mustParametric(t *testing.T, s ParametricSettings) *Parametric {
	t.Helper()
	p, err := NewParametric(s)
	if err != nil {
		t.Fatalf("NewParametric() error = %v", err)
	}
	return p
}

func TestParametricFlatIsTransparent(t *testing.T) {
	p := mustParametric(t, DefaultParametricSettings())

	in := testutil.StereoNoise(1, 0.8, 1500)
	buf := testutil.Clone(in)
	p.Process(buf, 44100)

	diff, err := testutil.MaxAbsDiff(buf, in)
	if err != nil {
		t.Fatalf("MaxAbsDiff() error = %v", err)
	}
	if diff >= 0.1 {
		t.Fatalf("flat EQ changed signal by %v", diff)
	}
}

func TestParametricDisabledPassthrough(t *testing.T) {
	s := DefaultParametricSettings()
	s.Mid.GainDB = 9
	testutil.RequireDisabledPassthrough(t, mustParametric(t, s), 48000)
}

func TestParametricResetDeterministic(t *testing.T) {
	s := DefaultParametricSettings()
	s.LowShelf.GainDB = 6
	s.HighShelf.GainDB = -4
	testutil.RequireResetDeterministic(t, mustParametric(t, s), 48000)
}

func TestSettersClamp(t *testing.T) {
	p := mustParametric(t, DefaultParametricSettings())

	if err := p.SetMid(Band{Frequency: 1000, GainDB: 40, Q: 50}); err != nil {
		t.Fatalf("SetMid() error = %v", err)
	}
	got := p.Settings().Mid
	if got.GainDB != MaxGainDB || got.Q != MaxQ {
		t.Fatalf("Settings().Mid = %+v, want clamped gain and q", got)
	}

	if err := p.SetLowShelf(Band{Frequency: 100, GainDB: -40, Q: 0.01}); err != nil {
		t.Fatalf("SetLowShelf() error = %v", err)
	}
	got = p.Settings().LowShelf
	if got.GainDB != MinGainDB || got.Q != MinQ {
		t.Fatalf("Settings().LowShelf = %+v, want clamped gain and q", got)
	}
}

func TestSettersRejectInvalid(t *testing.T) {
	p := mustParametric(t, DefaultParametricSettings())
	before := p.Settings()

	bad := []Band{
		{Frequency: math.NaN(), Q: 1},
		{Frequency: -1, Q: 1},
		{Frequency: 1000, Q: 0},
		{Frequency: 1000, GainDB: math.Inf(1), Q: 1},
	}
	for _, b := range bad {
		if err := p.SetMid(b); !errors.Is(err, ErrInvalidBand) {
			t.Fatalf("SetMid(%+v) error = %v, want ErrInvalidBand", b, err)
		}
	}

	if err := p.SetBand(7, Band{Frequency: 1000, Q: 1}); !errors.Is(err, ErrBandIndex) {
		t.Fatalf("SetBand(7) error = %v, want ErrBandIndex", err)
	}

	if p.Settings() != before {
		t.Fatalf("rejected update changed settings: %+v", p.Settings())
	}
}

func TestCoefficientsClampUnconditionally(t *testing.T) {
	raw := Band{Frequency: 1000, GainDB: 60, Q: 1}
	c := raw.Coefficients(ShapePeak, 48000)
	if got := c.MagnitudeDB(1000, 48000); math.Abs(got-MaxGainDB) > 1e-6 {
		t.Fatalf("center gain = %v dB, want %v", got, MaxGainDB)
	}
}

func TestNyquistBandStaysFinite(t *testing.T) {
	s := ParametricSettings{
		LowShelf:  Band{Frequency: 100, GainDB: 12, Q: 10},
		Mid:       Band{Frequency: 30000, GainDB: 12, Q: 10},
		HighShelf: Band{Frequency: 20000, GainDB: 12, Q: 10},
	}
	p := mustParametric(t, s)

	for _, rate := range []uint32{22050, 44100, 48000} {
		buf := testutil.StereoNoise(3, 1, 4096)
		p.Process(buf, rate)
		testutil.RequireFinite(t, buf)
	}
}

func TestEQNeverEmitsNonFinite(t *testing.T) {
	for _, gain := range []float64{-12, 0, 12} {
		for _, q := range []float64{0.1, 1, 10} {
			b := Band{Frequency: 5000, GainDB: gain, Q: q}
			p := mustParametric(t, ParametricSettings{LowShelf: b, Mid: b, HighShelf: b})
			buf := testutil.StereoNoise(5, 1, 2048)
			p.Process(buf, 48000)
			testutil.RequireFinite(t, buf)
		}
	}
}

func TestTailFlushedToZero(t *testing.T) {
	s := DefaultParametricSettings()
	s.Mid = Band{Frequency: 200, GainDB: 12, Q: 2}
	p := mustParametric(t, s)

	buf := testutil.StereoNoise(9, 1, 512)
	p.Process(buf, 48000)

	silence := make([]float32, 2*48000)
	p.Process(silence, 48000)

	tail := silence[len(silence)-256:]
	for i, v := range tail {
		if v != 0 {
			t.Fatalf("tail[%d] = %g, want exact 0", i, v)
		}
	}
}

func TestSampleRateChangeResetsState(t *testing.T) {
	s := DefaultParametricSettings()
	s.Mid = Band{Frequency: 300, GainDB: 12, Q: 8}
	p := mustParametric(t, s)

	loud := testutil.StereoNoise(2, 1, 1024)
	p.Process(loud, 44100)

	// After a rate change the response to silence must be silence: no
	// ringing carried over from the 44.1 kHz state.
	silence := make([]float32, 64)
	p.Process(silence, 96000)
	for i, v := range silence {
		if v != 0 {
			t.Fatalf("sample %d = %v after rate change, want 0", i, v)
		}
	}
}

func TestMidBoostRaisesLevel(t *testing.T) {
	s := DefaultParametricSettings()
	s.Mid = Band{Frequency: 1000, GainDB: 6, Q: 1}
	p := mustParametric(t, s)

	buf := testutil.StereoSine(1000, 48000, 0.25, 4800)
	p.Process(buf, 48000)

	got := testutil.ChannelPeak(buf[4800:], 2, 0)
	want := 0.25 * math.Pow(10, 6.0/20)
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("peak after +6 dB = %v, want ~%v", got, want)
	}
}

func TestGraphicLayouts(t *testing.T) {
	for _, layout := range []Layout{Layout10, Layout31} {
		g, err := NewGraphic(layout)
		if err != nil {
			t.Fatalf("NewGraphic(%d) error = %v", layout, err)
		}
		if len(g.Gains()) != int(layout) || len(g.Frequencies()) != int(layout) {
			t.Fatalf("layout %d has %d gains", layout, len(g.Gains()))
		}
	}

	if _, err := NewGraphic(Layout(12)); err == nil {
		t.Fatal("NewGraphic(12) should fail")
	}
}

func TestGraphicQ(t *testing.T) {
	if q := Layout10.Q(); math.Abs(q-1.414) > 0.01 {
		t.Fatalf("octave Q = %v, want ~1.414", q)
	}
	if q := Layout31.Q(); math.Abs(q-4.32) > 0.01 {
		t.Fatalf("third-octave Q = %v, want ~4.32", q)
	}
}

func TestGraphicSetGains(t *testing.T) {
	g, err := NewGraphic(Layout10)
	if err != nil {
		t.Fatalf("NewGraphic() error = %v", err)
	}

	if err := g.SetGains(make([]float64, 9)); !errors.Is(err, ErrBandCount) {
		t.Fatalf("SetGains(9) error = %v, want ErrBandCount", err)
	}

	if err := g.SetBandGain(3, 20); err != nil {
		t.Fatalf("SetBandGain() error = %v", err)
	}
	if got := g.Gains()[3]; got != MaxGainDB {
		t.Fatalf("gain = %v, want clamped %v", got, MaxGainDB)
	}

	if err := g.SetBandGain(10, 1); !errors.Is(err, ErrBandIndex) {
		t.Fatalf("SetBandGain(10) error = %v, want ErrBandIndex", err)
	}
}

func TestGraphicPresets(t *testing.T) {
	g, err := NewGraphic(Layout31)
	if err != nil {
		t.Fatalf("NewGraphic() error = %v", err)
	}

	if err := g.ApplyPreset(PresetBassBoost); err != nil {
		t.Fatalf("ApplyPreset() error = %v", err)
	}
	gains := g.Gains()
	if gains[0] != 6 || gains[len(gains)-1] != 0 {
		t.Fatalf("bass boost gains = %v", gains)
	}

	p, err := ParsePreset("treble-boost")
	if err != nil || p != PresetTrebleBoost {
		t.Fatalf("ParsePreset() = %v, %v", p, err)
	}
	if _, err := ParsePreset("disco"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("ParsePreset(disco) error = %v", err)
	}

	buf := testutil.StereoNoise(4, 0.5, 2048)
	g.Process(buf, 44100)
	testutil.RequireFinite(t, buf)
}

func TestGraphicDisabledPassthrough(t *testing.T) {
	g, err := NewGraphic(Layout10)
	if err != nil {
		t.Fatalf("NewGraphic() error = %v", err)
	}
	if err := g.ApplyPreset(PresetLoudness); err != nil {
		t.Fatalf("ApplyPreset() error = %v", err)
	}
	testutil.RequireDisabledPassthrough(t, g, 44100)
	testutil.RequireResetDeterministic(t, g, 44100)
}
