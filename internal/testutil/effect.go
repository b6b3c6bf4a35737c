package testutil

import (
	"testing"

	"github.com/soulaudio/soul-player-sub002/dsp/effects"
)

// RequireDisabledPassthrough checks that a disabled effect leaves a buffer
// bit-identical and that re-enabling it restores processing.
func RequireDisabledPassthrough(t *testing.T, fx effects.Effect, sampleRate uint32) {
	t.Helper()

	in := StereoNoise(7, 0.9, 1024)
	buf := Clone(in)

	fx.SetEnabled(false)
	if fx.Enabled() {
		t.Fatal("Enabled() = true after SetEnabled(false)")
	}
	fx.Process(buf, sampleRate)
	RequireBitIdentical(t, buf, in)

	fx.SetEnabled(true)
	if !fx.Enabled() {
		t.Fatal("Enabled() = false after SetEnabled(true)")
	}
}

// RequireResetDeterministic checks that identical input produces identical
// output when separated by Reset.
func RequireResetDeterministic(t *testing.T, fx effects.Effect, sampleRate uint32) {
	t.Helper()

	in := StereoNoise(11, 0.8, 2048)

	fx.Reset()
	first := Clone(in)
	fx.Process(first, sampleRate)

	fx.Reset()
	second := Clone(in)
	fx.Process(second, sampleRate)

	RequireBitIdentical(t, second, first)
}
