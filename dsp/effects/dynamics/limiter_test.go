package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/internal/testutil"
)

var _ effects.Effect = (*Limiter)(nil)

func mustLimiter(t *testing.T, thresholdDB float64) *Limiter {
	t.Helper()
	l, err := NewLimiter(LimiterSettings{ThresholdDB: thresholdDB, ReleaseMs: 50})
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}
	return l
}

func TestLimiterCeiling(t *testing.T) {
	for _, thr := range []float64{-0.1, -3, -12} {
		l := mustLimiter(t, thr)
		ceiling := core.DBToLinear(thr)

		for block := range 4 {
			buf := testutil.StereoNoise(int64(block), 1.5, 1024)
			l.Process(buf, 48000)
			testutil.RequireFinite(t, buf)

			if block >= 2 {
				if got := testutil.Peak(buf); got > ceiling+1e-6 {
					t.Fatalf("threshold %v dB: peak %v exceeds %v", thr, got, ceiling)
				}
			}
		}
	}
}

func TestLimiterBelowThresholdUntouched(t *testing.T) {
	l := mustLimiter(t, -1)

	in := testutil.StereoSine(1000, 48000, 0.5, 1024)
	buf := testutil.Clone(in)
	l.Process(buf, 48000)
	testutil.RequireBitIdentical(t, buf, in)
}

func TestLimiterThresholdRamp(t *testing.T) {
	l := mustLimiter(t, -6)

	// Constant full-scale input: output equals the active threshold.
	buf := testutil.DC(1, 2*256)
	l.Process(buf, 48000)
	from := core.DBToLinear(-6)
	if math.Abs(float64(buf[len(buf)-1])-from) > 1e-6 {
		t.Fatalf("settled output = %v, want %v", buf[len(buf)-1], from)
	}

	if err := l.SetThreshold(-12); err != nil {
		t.Fatalf("SetThreshold() error = %v", err)
	}
	to := core.DBToLinear(-12)

	buf = testutil.DC(1, 2*256)
	l.Process(buf, 48000)

	step := (to - from) / ThresholdRampFrames
	for i := range ThresholdRampFrames - 1 {
		want := from + float64(i+1)*step
		if got := float64(buf[2*i]); math.Abs(got-want) > 1e-5 {
			t.Fatalf("frame %d = %v, want %v", i, got, want)
		}
	}

	for i := ThresholdRampFrames - 1; i < 256; i++ {
		if got := float64(buf[2*i]); math.Abs(got-to) > 1e-6 {
			t.Fatalf("frame %d = %v, want target %v", i, got, to)
		}
	}
}

func TestLimiterResetSnapsThreshold(t *testing.T) {
	l := mustLimiter(t, -6)
	l.Process(testutil.DC(1, 64), 48000)

	if err := l.SetThreshold(-12); err != nil {
		t.Fatalf("SetThreshold() error = %v", err)
	}
	l.Reset()

	buf := testutil.DC(1, 8)
	l.Process(buf, 48000)

	to := core.DBToLinear(-12)
	if math.Abs(float64(buf[0])-to) > 1e-6 {
		t.Fatalf("first frame after Reset = %v, want %v", buf[0], to)
	}
}

func TestLimiterRejectsInvalid(t *testing.T) {
	l := mustLimiter(t, -1)

	if err := l.SetThreshold(0.5); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("SetThreshold(0.5) error = %v", err)
	}
	if err := l.SetRelease(0); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("SetRelease(0) error = %v", err)
	}
	if err := l.Update(LimiterSettings{ThresholdDB: math.NaN(), ReleaseMs: 10}); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("Update(NaN) error = %v", err)
	}
	if got := l.Settings(); got.ThresholdDB != -1 || got.ReleaseMs != 50 {
		t.Fatalf("Settings() = %+v after rejected updates", got)
	}
	if _, err := NewLimiter(LimiterSettings{ThresholdDB: 1, ReleaseMs: 10}); err == nil {
		t.Fatal("NewLimiter(+1 dB) should fail")
	}
}

func TestLimiterDisabledAndReset(t *testing.T) {
	l := mustLimiter(t, -6)
	testutil.RequireDisabledPassthrough(t, l, 44100)
	testutil.RequireResetDeterministic(t, l, 44100)
}
