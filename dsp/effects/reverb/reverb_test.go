package reverb

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/soulaudio/soul-player-sub002/dsp/resample"
	"github.com/soulaudio/soul-player-sub002/internal/testutil"
	"github.com/soulaudio/soul-player-sub002/internal/wavio"
)

func delta(n, at int) []float32 {
	ir := make([]float32, n)
	ir[at] = 1
	return ir
}

func TestEngineSelection(t *testing.T) {
	tests := []struct {
		taps   int
		direct bool
	}{
		{1, true},
		{DirectMaxTaps, true},
		{DirectMaxTaps + 1, false},
		{4800, false},
	}

	for _, tc := range tests {
		c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{delta(tc.taps, 0)}, SampleRate: 48000})
		if err != nil {
			t.Fatalf("NewConvolution(%d taps) error = %v", tc.taps, err)
		}

		if c.Direct() != tc.direct {
			t.Fatalf("%d taps: Direct() = %v, want %v", tc.taps, c.Direct(), tc.direct)
		}
	}
}

func TestFullyWetDelayedImpulse(t *testing.T) {
	for _, taps := range []int{64, 1000} {
		at := taps / 3
		c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{delta(taps, at)}, SampleRate: 48000}, WithMix(1))
		if err != nil {
			t.Fatalf("NewConvolution() error = %v", err)
		}

		in := testutil.StereoNoise(5, 0.5, 2048)
		buf := testutil.Clone(in)

		for off := 0; off < len(buf); off += 512 {
			c.Process(buf[off:off+512], 48000)
		}

		for i := at; i < 2048; i++ {
			for ch := range 2 {
				got, want := buf[2*i+ch], in[2*(i-at)+ch]
				if math.Abs(float64(got-want)) > 1e-5 {
					t.Fatalf("taps %d frame %d ch %d: got %v, want %v", taps, i, ch, got, want)
				}
			}
		}
	}
}

func TestMixBlendsDryAndWet(t *testing.T) {
	c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{{-1}}, SampleRate: 44100}, WithMix(0.25))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	buf := testutil.DC(0.8, 256)
	c.Process(buf, 44100)

	want := 0.8*0.75 - 0.8*0.25
	for i, v := range buf {
		if math.Abs(float64(v)-want) > 1e-6 {
			t.Fatalf("buf[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestZeroMixIsBitIdentical(t *testing.T) {
	c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{delta(500, 10)}, SampleRate: 48000}, WithMix(0))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	in := testutil.StereoNoise(9, 0.7, 1024)
	buf := testutil.Clone(in)
	c.Process(buf, 48000)
	testutil.RequireBitIdentical(t, buf, in)
}

func TestZeroMixKeepsTailCurrent(t *testing.T) {
	c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{delta(100, 50)}, SampleRate: 48000}, WithMix(1))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	// The echo of the last frame lands in the next block.
	buf := make([]float32, 2*256)
	buf[len(buf)-2], buf[len(buf)-1] = 1, 1
	c.Process(buf, 48000)

	if err := c.SetMix(0); err != nil {
		t.Fatalf("SetMix(0) error = %v", err)
	}

	silence := make([]float32, 2*1024)
	c.Process(silence, 48000)

	for i, v := range silence {
		if v != 0 {
			t.Fatalf("zero mix sample %d = %v, want 0", i, v)
		}
	}

	if err := c.SetMix(1); err != nil {
		t.Fatalf("SetMix(1) error = %v", err)
	}

	after := make([]float32, 2*1024)
	c.Process(after, 48000)

	for i, v := range after {
		if v != 0 {
			t.Fatalf("sample %d = %v after mix returned, want 0 (stale tail)", i, v)
		}
	}
}

func TestStereoResponseKeepsChannelsApart(t *testing.T) {
	ir := ImpulseResponse{
		Samples:    [][]float32{delta(200, 0), make([]float32, 200)},
		SampleRate: 48000,
	}

	c, err := NewConvolution(ir, WithMix(1))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	buf := testutil.StereoSine(440, 48000, 0.5, 1024)
	c.Process(buf, 48000)

	if p := testutil.ChannelPeak(buf, 2, 1); p > 1e-6 {
		t.Fatalf("right peak = %v, want silence", p)
	}

	if p := testutil.ChannelPeak(buf, 2, 0); p < 0.45 {
		t.Fatalf("left peak = %v, want signal", p)
	}
}

func TestRateMismatchPassesDry(t *testing.T) {
	c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{delta(300, 40)}, SampleRate: 48000}, WithMix(1))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	in := testutil.StereoNoise(2, 0.5, 512)
	buf := testutil.Clone(in)
	c.Process(buf, 44100)

	if !c.RateMismatch() {
		t.Fatal("RateMismatch() = false after 44.1 kHz buffer")
	}

	testutil.RequireBitIdentical(t, buf, in)

	c.Process(buf, 48000)
	if c.RateMismatch() {
		t.Fatal("RateMismatch() = true after matching buffer")
	}
}

func TestResponseResampledAtLoad(t *testing.T) {
	ir := ImpulseResponse{Samples: [][]float32{delta(1000, 0)}, SampleRate: 48000}

	c, err := NewConvolution(ir, WithSampleRate(96000), WithResampling(resample.QualityBalanced, resample.BackendPolyphase))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	if c.SampleRate() != 96000 || c.Taps() != 2000 {
		t.Fatalf("SampleRate() = %d, Taps() = %d; want 96000, 2000", c.SampleRate(), c.Taps())
	}
}

// Converting an impulse response must not move or drop its direct sound,
// whichever backend does the conversion.
func TestResampledKeepsDirectSound(t *testing.T) {
	const n = 2000

	samples := delta(n, 0)
	samples[n/2] = 0.5
	ir := ImpulseResponse{Samples: [][]float32{samples}, SampleRate: 44100}

	for _, backend := range []resample.BackendKind{resample.BackendPolyphase, resample.BackendAuto} {
		out, err := ir.Resampled(48000, resample.QualityHigh, backend)
		if err != nil {
			t.Fatalf("%s: Resampled() error = %v", backend, err)
		}

		got := out.Samples[0]
		if len(got) != 2177 {
			t.Fatalf("%s: Len() = %d, want 2177", backend, len(got))
		}

		peak, at := 0.0, 0
		for i, v := range got {
			if a := math.Abs(float64(v)); a > peak {
				peak, at = a, i
			}
		}

		if at > 1 || peak < 0.5 {
			t.Fatalf("%s: direct sound at %d with %.3f, want index <= 1 and >= 0.5", backend, at, peak)
		}

		// The reflection at input frame 1000 lands near 1000*48000/44100.
		var refl float64
		for _, v := range got[1085:1092] {
			refl = math.Max(refl, math.Abs(float64(v)))
		}

		if refl < 0.25 {
			t.Fatalf("%s: reflection peak = %.3f near frame 1088, want >= 0.25", backend, refl)
		}
	}
}

func TestMaxLengthTruncatesWithFade(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = 0.5
	}

	ir := ImpulseResponse{Samples: [][]float32{samples}, SampleRate: 48000}
	k := kernelsFor(ir, 400)

	if len(k[0]) != 400 {
		t.Fatalf("kernel length = %d, want 400", len(k[0]))
	}

	if k[0][0] != 0.5 || k[0][359] != 0.5 {
		t.Fatalf("head altered: %v %v", k[0][0], k[0][359])
	}

	if math.Abs(k[0][399]) > 1e-12 {
		t.Fatalf("last tap = %v, want 0", k[0][399])
	}
}

func TestSetMixValidation(t *testing.T) {
	c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{{1}}, SampleRate: 48000})
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	for _, m := range []float64{-0.1, 1.5, math.NaN()} {
		if err := c.SetMix(m); !errors.Is(err, ErrInvalidMix) {
			t.Fatalf("SetMix(%v) error = %v, want ErrInvalidMix", m, err)
		}
	}

	if err := c.SetMix(0.6); err != nil {
		t.Fatalf("SetMix(0.6) error = %v", err)
	}

	if c.Mix() != 0.6 {
		t.Fatalf("Mix() = %v, want 0.6", c.Mix())
	}
}

func TestInvalidImpulseResponses(t *testing.T) {
	tests := []struct {
		name string
		ir   ImpulseResponse
		want error
	}{
		{"no rate", ImpulseResponse{Samples: [][]float32{{1}}}, ErrImpulseRate},
		{"no channels", ImpulseResponse{SampleRate: 48000}, ErrImpulseLayout},
		{"empty", ImpulseResponse{Samples: [][]float32{{}}, SampleRate: 48000}, ErrEmptyImpulse},
		{"ragged", ImpulseResponse{Samples: [][]float32{{1, 2}, {1}}, SampleRate: 48000}, ErrImpulseLayout},
		{"three channels", ImpulseResponse{Samples: [][]float32{{1}, {1}, {1}}, SampleRate: 48000}, ErrImpulseLayout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewConvolution(tc.ir); !errors.Is(err, tc.want) {
				t.Fatalf("NewConvolution() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestEffectContract(t *testing.T) {
	samples := make([]float32, 900)
	for i := range samples {
		samples[i] = float32(math.Exp(-float64(i)/150)) * 0.3
	}

	c, err := NewConvolution(ImpulseResponse{Samples: [][]float32{samples}, SampleRate: 48000}, WithMix(0.5))
	if err != nil {
		t.Fatalf("NewConvolution() error = %v", err)
	}

	testutil.RequireDisabledPassthrough(t, c, 48000)
	testutil.RequireResetDeterministic(t, c, 48000)
}

func TestLoadImpulseResponseWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ir.wav")

	if err := wavio.WriteFile(path, []int{16384, -16384, 0, 8192, 0, 0}, 44100, 2, 16); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	ir, err := LoadImpulseResponseWAV(r)
	if err != nil {
		t.Fatalf("LoadImpulseResponseWAV() error = %v", err)
	}

	if ir.SampleRate != 44100 || ir.Channels() != 2 || ir.Len() != 3 {
		t.Fatalf("ir = %d Hz, %d ch, %d frames", ir.SampleRate, ir.Channels(), ir.Len())
	}

	testutil.RequireSliceNearlyEqual(t, ir.Samples[0], []float32{0.5, 0, 0}, 1e-6)
	testutil.RequireSliceNearlyEqual(t, ir.Samples[1], []float32{-0.5, 0.25, 0}, 1e-6)
}

func TestNormalized(t *testing.T) {
	ir := ImpulseResponse{Samples: [][]float32{{0.1, -0.2}}, SampleRate: 48000}.Normalized(0)

	if math.Abs(float64(ir.Samples[0][1])+1) > 1e-6 {
		t.Fatalf("peak = %v, want -1", ir.Samples[0][1])
	}
}
