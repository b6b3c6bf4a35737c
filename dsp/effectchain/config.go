package effectchain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/reverb"
)

// ChainConfig is the JSON form of a chain.
type ChainConfig struct {
	Effects []EffectConfig `json:"effects"`
}

// EffectConfig describes one chain entry.
type EffectConfig struct {
	Type    string          `json:"type"`
	Enabled *bool           `json:"enabled,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ParseConfig decodes a ChainConfig, rejecting unknown fields.
func ParseConfig(r io.Reader) (ChainConfig, error) {
	var cfg ChainConfig

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return ChainConfig{}, fmt.Errorf("effectchain: invalid chain config: %w", err)
	}

	return cfg, nil
}

// Build instantiates every entry of cfg with reg into a new chain. Nothing
// is returned unless all entries build.
func (cfg ChainConfig) Build(ctx Context, reg *Registry) (*Chain, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	c := NewChain(WithLogger(ctx.logger()))

	for i, e := range cfg.Effects {
		a, err := reg.Build(ctx, e.Type, e.Params)
		if err != nil {
			return nil, fmt.Errorf("effectchain: effect %d: %w", i, err)
		}

		if e.Enabled != nil {
			a.SetEnabled(*e.Enabled)
		}

		if err := c.Add(a); err != nil {
			return nil, err
		}
	}

	ctx.logger().WithFields(logrus.Fields{
		"effects": len(cfg.Effects),
		"rate":    ctx.SampleRate,
	}).Info("effect chain loaded")

	return c, nil
}

// LoadConfig parses r and builds the chain it describes.
func LoadConfig(r io.Reader, ctx Context, reg *Registry) (*Chain, error) {
	cfg, err := ParseConfig(r)
	if err != nil {
		return nil, err
	}

	return cfg.Build(ctx, reg)
}

// WAVFiles is an IRProvider that treats names as WAV file paths.
var WAVFiles = IRProviderFunc(func(path string) (reverb.ImpulseResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return reverb.ImpulseResponse{}, err
	}
	defer f.Close()

	return reverb.LoadImpulseResponseWAV(f)
})
