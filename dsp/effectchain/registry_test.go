package effectchain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFactory(ctx Context, params json.RawMessage) (Adapter, error) {
	return DefaultRegistry().Build(ctx, IDLimiter, params)
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("registers and looks up factory", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		require.NoError(t, r.Register("lim", stubFactory))
		assert.NotNil(t, r.Lookup("lim"))
		assert.Nil(t, r.Lookup("missing"))
	})

	t.Run("rejects empty id", func(t *testing.T) {
		t.Parallel()

		require.Error(t, NewRegistry().Register("", stubFactory))
	})

	t.Run("rejects nil factory", func(t *testing.T) {
		t.Parallel()

		require.Error(t, NewRegistry().Register("lim", nil))
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		require.NoError(t, r.Register("lim", stubFactory))
		require.ErrorIs(t, r.Register("lim", stubFactory), errDuplicateEffect)
		assert.Panics(t, func() { r.MustRegister("lim", stubFactory) })
	})
}

func TestDefaultRegistryIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		IDCompressor,
		IDConvolutionReverb,
		IDCrossfeed,
		IDGraphicEQ,
		IDLimiter,
		IDParametricEQ,
		IDStereoEnhancer,
	}, DefaultRegistry().IDs())
}

func TestRegistryBuild(t *testing.T) {
	t.Parallel()

	ctx := Context{SampleRate: testSampleRate}

	for _, id := range DefaultRegistry().IDs() {
		if id == IDConvolutionReverb {
			continue
		}

		a, err := DefaultRegistry().Build(ctx, id, nil)
		require.NoError(t, err, id)
		assert.Equal(t, id, a.Info().ID)
		assert.True(t, a.Enabled())
	}

	_, err := DefaultRegistry().Build(ctx, "flanger", nil)
	require.ErrorIs(t, err, ErrUnknownEffect)

	_, err = DefaultRegistry().Build(ctx, IDCompressor, json.RawMessage(`{"ratio": 0.2}`))
	require.Error(t, err)

	_, err = DefaultRegistry().Build(ctx, IDConvolutionReverb, nil)
	require.ErrorIs(t, err, ErrNoImpulseProvider)
}
