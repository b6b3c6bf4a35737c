package cli

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/dop"
	"github.com/soulaudio/soul-player-sub002/dsp/effectchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEffects(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEffects(&buf, nil))

	out := buf.String()
	for _, id := range effectchain.DefaultRegistry().IDs() {
		assert.Contains(t, out, id)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+len(effectchain.DefaultRegistry().IDs()))

	for _, l := range lines {
		if strings.HasPrefix(l, effectchain.IDConvolutionReverb) {
			assert.Contains(t, l, " no ")
		}
	}
}

func TestWriteBackends(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBackends(&buf))

	out := buf.String()
	assert.Contains(t, out, "polyphase")
	assert.Contains(t, out, "SIMD")
}

func TestDoPRoundTrip(t *testing.T) {
	dsd := make([]byte, 2*2*64)
	for i := range dsd {
		dsd[i] = byte(i*37 + 11)
	}

	var framed bytes.Buffer
	frames, err := EncodeDoP(bytes.NewReader(dsd), &framed, 2)
	require.NoError(t, err)
	assert.Equal(t, 64, frames)
	require.Equal(t, 4*2*64, framed.Len())

	first := binary.LittleEndian.Uint32(framed.Bytes())
	assert.Equal(t, uint32(dop.MarkerA), first>>24)

	var back bytes.Buffer
	resyncs, err := DecodeDoP(bytes.NewReader(framed.Bytes()), &back, 2)
	require.NoError(t, err)
	assert.Zero(t, resyncs)
	assert.Equal(t, dsd, back.Bytes())
}

func TestDoPErrors(t *testing.T) {
	_, err := EncodeDoP(bytes.NewReader(make([]byte, 3)), &bytes.Buffer{}, 2)
	require.ErrorIs(t, err, dop.ErrMisaligned)

	_, err = EncodeDoP(bytes.NewReader(nil), &bytes.Buffer{}, 0)
	require.ErrorIs(t, err, dop.ErrInvalidChannels)

	_, err = DecodeDoP(bytes.NewReader(make([]byte, 6)), &bytes.Buffer{}, 1)
	require.ErrorIs(t, err, dop.ErrMisaligned)

	_, err = DecodeDoP(bytes.NewReader(make([]byte, 8)), &bytes.Buffer{}, 2)
	require.ErrorIs(t, err, dop.ErrMarker)
}

func TestConvertDoPFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.dsd")
	framed := filepath.Join(dir, "out.dop")
	back := filepath.Join(dir, "back.dsd")

	dsd := make([]byte, 2*32)
	for i := range dsd {
		dsd[i] = byte(i*53 + 7)
	}
	require.NoError(t, os.WriteFile(src, dsd, 0o644))

	frames, err := ConvertDoPFile(src, framed, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 32, frames)

	resyncs, err := ConvertDoPFile(framed, back, 2, true)
	require.NoError(t, err)
	assert.Zero(t, resyncs)

	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, dsd, got)
}

func TestConvertDoPFileErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.dop")
	require.NoError(t, os.WriteFile(src, make([]byte, 6), 0o644))

	_, err := ConvertDoPFile(src, filepath.Join(dir, "out.dsd"), 1, true)
	require.ErrorIs(t, err, dop.ErrMisaligned)

	_, err = ConvertDoPFile(filepath.Join(dir, "missing"), filepath.Join(dir, "x"), 2, false)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = ConvertDoPFile(src, filepath.Join(dir, "no", "such", "dir"), 1, true)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewLogger(&buf, "warn")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = NewLogger(&buf, "loud")
	require.Error(t, err)
}
