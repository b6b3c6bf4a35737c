package effectchain

import (
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/dynamics"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/eq"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/spatial"
)

// Settings is a parameter payload for one effect kind. The set of
// implementations is closed.
type Settings interface {
	Kind() effects.Kind
	settings()
}

type (
	ParametricEQParams eq.ParametricSettings
	GraphicEQParams    eq.GraphicSettings
	CompressorParams   dynamics.CompressorSettings
	LimiterParams      dynamics.LimiterSettings
	CrossfeedParams    spatial.CrossfeedSettings
	EnhancerParams     spatial.EnhancerSettings
)

// ReverbMix is the only live parameter of a convolution reverb.
type ReverbMix struct {
	Mix float64 `json:"mix"`
}

func (ParametricEQParams) Kind() effects.Kind { return effects.KindParametricEQ }
func (GraphicEQParams) Kind() effects.Kind    { return effects.KindGraphicEQ }
func (CompressorParams) Kind() effects.Kind   { return effects.KindCompressor }
func (LimiterParams) Kind() effects.Kind      { return effects.KindLimiter }
func (CrossfeedParams) Kind() effects.Kind    { return effects.KindCrossfeed }
func (EnhancerParams) Kind() effects.Kind     { return effects.KindStereoEnhancer }
func (ReverbMix) Kind() effects.Kind          { return effects.KindConvolutionReverb }

func (ParametricEQParams) settings() {}
func (GraphicEQParams) settings()    {}
func (CompressorParams) settings()   {}
func (LimiterParams) settings()      {}
func (CrossfeedParams) settings()    {}
func (EnhancerParams) settings()     {}
func (ReverbMix) settings()          {}
