// Package wavio reads and writes PCM WAV files as interleaved float32.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrInvalidFile     = errors.New("wavio: invalid WAV file")
	ErrUnsupportedBits = errors.New("wavio: unsupported bit depth")
	ErrChannels        = errors.New("wavio: unsupported channel layout")
)

// Clip is decoded interleaved audio.
type Clip struct {
	Samples    []float32
	SampleRate uint32
	Channels   int
	BitDepth   int
}

// Frames is the number of sample frames in c.
func (c Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}

	return len(c.Samples) / c.Channels
}

func divisor(bits int) (float32, error) {
	switch bits {
	case 16, 24, 32:
		return float32(int64(1) << (bits - 1)), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBits, bits)
	}
}

// Read decodes a whole WAV stream.
func Read(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()

	if !dec.IsValidFile() {
		return Clip{}, ErrInvalidFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("wavio: decode: %w", err)
	}

	bits := int(dec.BitDepth)

	div, err := divisor(bits)
	if err != nil {
		return Clip{}, err
	}

	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / div
	}

	return Clip{
		Samples:    out,
		SampleRate: uint32(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   bits,
	}, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	return Read(f)
}

// Stereo returns c with two channels. Mono is duplicated; stereo is
// returned as is.
func (c Clip) Stereo() (Clip, error) {
	switch c.Channels {
	case 2:
		return c, nil
	case 1:
		out := make([]float32, 2*len(c.Samples))
		for i, v := range c.Samples {
			out[2*i] = v
			out[2*i+1] = v
		}

		c.Samples = out
		c.Channels = 2

		return c, nil
	default:
		return Clip{}, fmt.Errorf("%w: %d channels", ErrChannels, c.Channels)
	}
}

// Write encodes already quantized words.
func Write(w io.WriteSeeker, words []int, sampleRate uint32, channels, bits int) error {
	if _, err := divisor(bits); err != nil {
		return err
	}

	if channels < 1 || len(words)%channels != 0 {
		return fmt.Errorf("%w: %d samples, %d channels", ErrChannels, len(words), channels)
	}

	enc := wav.NewEncoder(w, int(sampleRate), bits, channels, 1)

	buf := &audio.IntBuffer{
		Data:           words,
		Format:         &audio.Format{SampleRate: int(sampleRate), NumChannels: channels},
		SourceBitDepth: bits,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}

	return enc.Close()
}

// WriteFile creates path and encodes words into it.
func WriteFile(path string, words []int, sampleRate uint32, channels, bits int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, words, sampleRate, channels, bits); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
