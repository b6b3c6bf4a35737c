package effectchain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soulaudio/soul-player-sub002/dsp/effects/dynamics"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/eq"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/reverb"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/spatial"
)

// ErrNoImpulseProvider is returned when a reverb config names an impulse
// response but the Context has no IRProvider.
var ErrNoImpulseProvider = errors.New("effectchain: no impulse response provider")

// decodeParams overlays params onto dst, which holds the defaults. Unknown
// keys are rejected so a misspelled setting cannot fall back silently.
func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	return nil
}

type graphicParams struct {
	Layout int       `json:"layout"`
	Preset string    `json:"preset"`
	Gains  []float64 `json:"gains"`
}

type reverbParams struct {
	ImpulseResponse string  `json:"impulse_response"`
	Mix             float64 `json:"mix"`
	MaxLength       int     `json:"max_length"`
	Normalize       bool    `json:"normalize"`
}

var defaultRegistry = newDefaultRegistry()

// DefaultRegistry returns the registry of built-in effects.
func DefaultRegistry() *Registry { return defaultRegistry }

func newDefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(IDParametricEQ, func(_ Context, params json.RawMessage) (Adapter, error) {
		s := eq.DefaultParametricSettings()
		if err := decodeParams(params, &s); err != nil {
			return nil, err
		}

		fx, err := eq.NewParametric(s)
		if err != nil {
			return nil, err
		}

		return NewParametricEQ(fx), nil
	})

	r.MustRegister(IDGraphicEQ, func(_ Context, params json.RawMessage) (Adapter, error) {
		p := graphicParams{Layout: int(eq.Layout10)}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}

		fx, err := eq.NewGraphic(eq.Layout(p.Layout))
		if err != nil {
			return nil, err
		}

		if p.Preset != "" {
			preset, err := eq.ParsePreset(p.Preset)
			if err != nil {
				return nil, err
			}

			if err := fx.ApplyPreset(preset); err != nil {
				return nil, err
			}
		}

		if p.Gains != nil {
			if err := fx.SetGains(p.Gains); err != nil {
				return nil, err
			}
		}

		return NewGraphicEQ(fx), nil
	})

	r.MustRegister(IDCompressor, func(_ Context, params json.RawMessage) (Adapter, error) {
		s := dynamics.DefaultCompressorSettings()
		if err := decodeParams(params, &s); err != nil {
			return nil, err
		}

		fx, err := dynamics.NewCompressor(dynamics.WithCompressorSettings(s))
		if err != nil {
			return nil, err
		}

		return NewCompressor(fx), nil
	})

	r.MustRegister(IDLimiter, func(_ Context, params json.RawMessage) (Adapter, error) {
		s := dynamics.DefaultLimiterSettings()
		if err := decodeParams(params, &s); err != nil {
			return nil, err
		}

		fx, err := dynamics.NewLimiter(s)
		if err != nil {
			return nil, err
		}

		return NewLimiter(fx), nil
	})

	r.MustRegister(IDCrossfeed, func(_ Context, params json.RawMessage) (Adapter, error) {
		s := spatial.CrossfeedSettings{Preset: spatial.CrossfeedNatural}
		if err := decodeParams(params, &s); err != nil {
			return nil, err
		}

		fx, err := spatial.NewCrossfeed(s)
		if err != nil {
			return nil, err
		}

		return NewCrossfeed(fx), nil
	})

	r.MustRegister(IDStereoEnhancer, func(_ Context, params json.RawMessage) (Adapter, error) {
		s := spatial.DefaultEnhancerSettings()
		if err := decodeParams(params, &s); err != nil {
			return nil, err
		}

		fx, err := spatial.NewStereoEnhancer(s)
		if err != nil {
			return nil, err
		}

		return NewStereoEnhancer(fx), nil
	})

	r.MustRegister(IDConvolutionReverb, func(ctx Context, params json.RawMessage) (Adapter, error) {
		p := reverbParams{Mix: 0.3}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}

		if ctx.IRs == nil {
			return nil, ErrNoImpulseProvider
		}

		ir, err := ctx.IRs.ImpulseResponse(p.ImpulseResponse)
		if err != nil {
			return nil, err
		}

		opts := []reverb.Option{reverb.WithMix(p.Mix), reverb.WithLogger(ctx.logger())}
		if ctx.SampleRate > 0 {
			opts = append(opts, reverb.WithSampleRate(ctx.SampleRate))
		}

		if p.MaxLength > 0 {
			opts = append(opts, reverb.WithMaxLength(p.MaxLength))
		}

		if p.Normalize {
			opts = append(opts, reverb.WithNormalize())
		}

		fx, err := reverb.NewConvolution(ir, opts...)
		if err != nil {
			return nil, err
		}

		return NewConvolutionReverb(fx), nil
	})

	return r
}
