package effectchain

import (
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/dynamics"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/eq"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/reverb"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/spatial"
)

// Info is the static description of an adapted effect.
type Info struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Description           string       `json:"description"`
	Kind                  effects.Kind `json:"-"`
	SupportsInPlaceUpdate bool         `json:"supports_in_place_update"`
}

// Adapter is an effect with metadata and typed live updates.
type Adapter interface {
	effects.Effect

	Info() Info
	// UpdateParameters applies s and reports success. A payload of the
	// wrong kind or with invalid values changes nothing and returns false.
	UpdateParameters(s Settings) bool
	// Settings returns the current parameters.
	Settings() Settings
}

// Wrapped adapts an effect E that takes payloads of type S.
type Wrapped[E effects.Effect, S Settings] struct {
	fx      E
	info    Info
	apply   func(E, S) error
	current func(E) S
}

// Wrap builds an Adapter from an effect and its update functions.
func Wrap[E effects.Effect, S Settings](fx E, info Info, apply func(E, S) error, current func(E) S) *Wrapped[E, S] {
	var zero S
	info.Kind = zero.Kind()

	return &Wrapped[E, S]{fx: fx, info: info, apply: apply, current: current}
}

// Effect returns the wrapped effect.
func (w *Wrapped[E, S]) Effect() E { return w.fx }

func (w *Wrapped[E, S]) Info() Info { return w.info }

func (w *Wrapped[E, S]) UpdateParameters(s Settings) bool {
	v, ok := s.(S)
	if !ok {
		return false
	}

	return w.apply(w.fx, v) == nil
}

func (w *Wrapped[E, S]) Settings() Settings { return w.current(w.fx) }

func (w *Wrapped[E, S]) Process(buf []float32, sampleRate uint32) { w.fx.Process(buf, sampleRate) }

func (w *Wrapped[E, S]) Reset() { w.fx.Reset() }

func (w *Wrapped[E, S]) SetEnabled(enabled bool) { w.fx.SetEnabled(enabled) }

func (w *Wrapped[E, S]) Enabled() bool { return w.fx.Enabled() }

// Built-in effect IDs.
const (
	IDParametricEQ      = "parametric_eq"
	IDGraphicEQ         = "graphic_eq"
	IDCompressor        = "compressor"
	IDLimiter           = "limiter"
	IDCrossfeed         = "crossfeed"
	IDStereoEnhancer    = "stereo_enhancer"
	IDConvolutionReverb = "convolution_reverb"
)

var builtinInfo = map[string]Info{
	IDParametricEQ: {
		ID: IDParametricEQ, Name: "Parametric EQ",
		Description:           "Low shelf, mid peak and high shelf",
		SupportsInPlaceUpdate: true,
	},
	IDGraphicEQ: {
		ID: IDGraphicEQ, Name: "Graphic EQ",
		Description:           "10 octave or 31 third-octave fixed bands",
		SupportsInPlaceUpdate: true,
	},
	IDCompressor: {
		ID: IDCompressor, Name: "Compressor",
		Description:           "Stereo-linked soft-knee compressor",
		SupportsInPlaceUpdate: true,
	},
	IDLimiter: {
		ID: IDLimiter, Name: "Limiter",
		Description:           "Brick-wall peak limiter",
		SupportsInPlaceUpdate: true,
	},
	IDCrossfeed: {
		ID: IDCrossfeed, Name: "Crossfeed",
		Description:           "Headphone crossfeed with presets",
		SupportsInPlaceUpdate: true,
	},
	IDStereoEnhancer: {
		ID: IDStereoEnhancer, Name: "Stereo Enhancer",
		Description:           "Mid/side width, gain and balance",
		SupportsInPlaceUpdate: true,
	},
	IDConvolutionReverb: {
		ID: IDConvolutionReverb, Name: "Convolution Reverb",
		Description:           "Impulse response reverb; only the mix updates live",
		SupportsInPlaceUpdate: false,
	},
}

// NewParametricEQ adapts p.
func NewParametricEQ(p *eq.Parametric) *Wrapped[*eq.Parametric, ParametricEQParams] {
	return Wrap(p, builtinInfo[IDParametricEQ],
		func(p *eq.Parametric, s ParametricEQParams) error { return p.Update(eq.ParametricSettings(s)) },
		func(p *eq.Parametric) ParametricEQParams { return ParametricEQParams(p.Settings()) })
}

// NewGraphicEQ adapts g.
func NewGraphicEQ(g *eq.Graphic) *Wrapped[*eq.Graphic, GraphicEQParams] {
	return Wrap(g, builtinInfo[IDGraphicEQ],
		func(g *eq.Graphic, s GraphicEQParams) error { return g.Update(eq.GraphicSettings(s)) },
		func(g *eq.Graphic) GraphicEQParams { return GraphicEQParams(g.Settings()) })
}

// NewCompressor adapts c.
func NewCompressor(c *dynamics.Compressor) *Wrapped[*dynamics.Compressor, CompressorParams] {
	return Wrap(c, builtinInfo[IDCompressor],
		func(c *dynamics.Compressor, s CompressorParams) error { return c.Update(dynamics.CompressorSettings(s)) },
		func(c *dynamics.Compressor) CompressorParams { return CompressorParams(c.Settings()) })
}

// NewLimiter adapts l.
func NewLimiter(l *dynamics.Limiter) *Wrapped[*dynamics.Limiter, LimiterParams] {
	return Wrap(l, builtinInfo[IDLimiter],
		func(l *dynamics.Limiter, s LimiterParams) error { return l.Update(dynamics.LimiterSettings(s)) },
		func(l *dynamics.Limiter) LimiterParams { return LimiterParams(l.Settings()) })
}

// NewCrossfeed adapts c.
func NewCrossfeed(c *spatial.Crossfeed) *Wrapped[*spatial.Crossfeed, CrossfeedParams] {
	return Wrap(c, builtinInfo[IDCrossfeed],
		func(c *spatial.Crossfeed, s CrossfeedParams) error { return c.Update(spatial.CrossfeedSettings(s)) },
		func(c *spatial.Crossfeed) CrossfeedParams { return CrossfeedParams(c.Settings()) })
}

// NewStereoEnhancer adapts e.
func NewStereoEnhancer(e *spatial.StereoEnhancer) *Wrapped[*spatial.StereoEnhancer, EnhancerParams] {
	return Wrap(e, builtinInfo[IDStereoEnhancer],
		func(e *spatial.StereoEnhancer, s EnhancerParams) error { return e.Update(spatial.EnhancerSettings(s)) },
		func(e *spatial.StereoEnhancer) EnhancerParams { return EnhancerParams(e.Settings()) })
}

// NewConvolutionReverb adapts r. Only ReverbMix is accepted; a new
// impulse response needs a new effect.
func NewConvolutionReverb(r *reverb.Convolution) *Wrapped[*reverb.Convolution, ReverbMix] {
	return Wrap(r, builtinInfo[IDConvolutionReverb],
		func(r *reverb.Convolution, s ReverbMix) error { return r.SetMix(s.Mix) },
		func(r *reverb.Convolution) ReverbMix { return ReverbMix{Mix: r.Mix()} })
}
