package effectchain

import (
	"testing"

	"github.com/soulaudio/soul-player-sub002/dsp/effects/dynamics"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/eq"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/reverb"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/spatial"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 48000

func testIR() reverb.ImpulseResponse {
	ir := make([]float32, 600)
	for i := range ir {
		ir[i] = 0.2 / float32(1+i)
	}

	return reverb.ImpulseResponse{Samples: [][]float32{ir}, SampleRate: testSampleRate}
}

// allAdapters builds one adapter of every built-in kind.
func allAdapters(t *testing.T) []Adapter {
	t.Helper()

	par, err := eq.NewParametric(eq.DefaultParametricSettings())
	require.NoError(t, err)

	gr, err := eq.NewGraphic(eq.Layout31)
	require.NoError(t, err)
	require.NoError(t, gr.ApplyPreset(eq.PresetLoudness))

	comp, err := dynamics.NewCompressor()
	require.NoError(t, err)

	lim, err := dynamics.NewLimiter(dynamics.DefaultLimiterSettings())
	require.NoError(t, err)

	cf, err := spatial.NewCrossfeed(spatial.CrossfeedSettings{Preset: spatial.CrossfeedMeier})
	require.NoError(t, err)

	enh, err := spatial.NewStereoEnhancer(spatial.EnhancerSettings{Width: 1.5, BassMonoHz: 120})
	require.NoError(t, err)

	rev, err := reverb.NewConvolution(testIR(), reverb.WithMix(0.2))
	require.NoError(t, err)

	return []Adapter{
		NewParametricEQ(par),
		NewGraphicEQ(gr),
		NewCompressor(comp),
		NewLimiter(lim),
		NewCrossfeed(cf),
		NewStereoEnhancer(enh),
		NewConvolutionReverb(rev),
	}
}

func ids(c *Chain) []string {
	var out []string
	for _, info := range c.Infos() {
		out = append(out, info.ID)
	}

	return out
}
