// Package dop frames 1-bit DSD data in PCM containers (DSD over PCM).
//
// Each output sample is a 32-bit word carrying two DSD bytes of one
// channel in its low 16 bits and a marker byte in bits 24-31. The marker
// alternates between MarkerA and MarkerB on every frame so a receiver
// can tell DoP from PCM.
package dop

import (
	"errors"
	"fmt"
)

const (
	MarkerA byte = 0x05
	MarkerB byte = 0xFA

	// BytesPerSample is the number of DSD bytes in one container word.
	BytesPerSample = 2
)

var (
	ErrInvalidChannels = errors.New("dop: channel count must be positive")
	ErrMisaligned      = errors.New("dop: length is not a whole number of frames")
	ErrMarker          = errors.New("dop: unexpected marker")
)

func other(m byte) byte {
	if m == MarkerA {
		return MarkerB
	}

	return MarkerA
}

// PCMRate is the container rate carrying a DSD bit stream of dsdRate
// bits per second per channel, e.g. 2822400 (DSD64) gives 176400.
func PCMRate(dsdRate uint32) uint32 { return dsdRate / (8 * BytesPerSample) }

// DSDRate is the inverse of PCMRate.
func DSDRate(pcmRate uint32) uint32 { return pcmRate * 8 * BytesPerSample }

// Encoder packs channel-interleaved DSD bytes into DoP words.
type Encoder struct {
	channels int
	next     byte
}

// NewEncoder returns an encoder whose first frame carries MarkerA.
func NewEncoder(channels int) (*Encoder, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	return &Encoder{channels: channels, next: MarkerA}, nil
}

func (e *Encoder) Channels() int { return e.channels }

// OutputLen is the number of words Encode produces for n DSD bytes.
func (e *Encoder) OutputLen(n int) int { return n / BytesPerSample }

// Encode frames dsd, whose bytes are interleaved by channel. Its length
// must be a multiple of 2*channels.
func (e *Encoder) Encode(dsd []byte) ([]uint32, error) {
	return e.EncodeTo(nil, dsd)
}

// EncodeTo is Encode writing into dst, which grows as needed.
func (e *Encoder) EncodeTo(dst []uint32, dsd []byte) ([]uint32, error) {
	c := e.channels
	if len(dsd)%(BytesPerSample*c) != 0 {
		return dst[:0], fmt.Errorf("%w: %d bytes, %d channels", ErrMisaligned, len(dsd), c)
	}

	frames := len(dsd) / (BytesPerSample * c)
	if cap(dst) < frames*c {
		dst = make([]uint32, frames*c)
	}

	dst = dst[:frames*c]

	for k := range frames {
		marker := uint32(e.next) << 24

		for ch := range c {
			hi := uint32(dsd[(2*k)*c+ch])
			lo := uint32(dsd[(2*k+1)*c+ch])
			dst[k*c+ch] = marker | hi<<8 | lo
		}

		e.next = other(e.next)
	}

	return dst, nil
}

// Reset makes the next frame carry MarkerA again.
func (e *Encoder) Reset() { e.next = MarkerA }

// Decoder unpacks DoP words into channel-interleaved DSD bytes.
type Decoder struct {
	channels int
	expect   byte
	resyncs  int
}

// NewDecoder returns a decoder expecting MarkerA first.
func NewDecoder(channels int) (*Decoder, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	return &Decoder{channels: channels, expect: MarkerA}, nil
}

func (d *Decoder) Channels() int { return d.channels }

// Resyncs counts frames that carried the alternate marker and shifted the
// expected phase.
func (d *Decoder) Resyncs() int { return d.resyncs }

// Decode unframes samples, whose length must be a multiple of channels.
// A frame whose marker is neither the expected nor the alternate value,
// or whose channels disagree, fails with ErrMarker; bytes of the frames
// before it are returned.
func (d *Decoder) Decode(samples []uint32) ([]byte, error) {
	return d.DecodeTo(nil, samples)
}

// DecodeTo is Decode writing into dst, which grows as needed.
func (d *Decoder) DecodeTo(dst []byte, samples []uint32) ([]byte, error) {
	c := d.channels
	if len(samples)%c != 0 {
		return dst[:0], fmt.Errorf("%w: %d samples, %d channels", ErrMisaligned, len(samples), c)
	}

	frames := len(samples) / c
	if cap(dst) < frames*BytesPerSample*c {
		dst = make([]byte, frames*BytesPerSample*c)
	}

	dst = dst[:frames*BytesPerSample*c]

	for k := range frames {
		frame := samples[k*c : (k+1)*c]
		marker := byte(frame[0] >> 24)

		for _, w := range frame[1:] {
			if byte(w>>24) != marker {
				return dst[:k*BytesPerSample*c], fmt.Errorf("%w: frame %d channels disagree", ErrMarker, k)
			}
		}

		switch marker {
		case d.expect:
		case other(d.expect):
			d.resyncs++
		default:
			return dst[:k*BytesPerSample*c], fmt.Errorf("%w: frame %d has 0x%02X", ErrMarker, k, marker)
		}

		d.expect = other(marker)

		for ch, w := range frame {
			dst[(2*k)*c+ch] = byte(w >> 8)
			dst[(2*k+1)*c+ch] = byte(w)
		}
	}

	return dst, nil
}

// Reset makes the decoder expect MarkerA again.
func (d *Decoder) Reset() {
	d.expect = MarkerA
	d.resyncs = 0
}

// Detect reports whether samples look like DoP: at least minFrames whole
// frames with valid, strictly alternating markers.
func Detect(samples []uint32, channels, minFrames int) bool {
	if channels < 1 || len(samples) < channels*max(minFrames, 1) {
		return false
	}

	var prev byte

	for k := range len(samples) / channels {
		m := byte(samples[k*channels] >> 24)
		if m != MarkerA && m != MarkerB {
			return false
		}

		if k > 0 && m != other(prev) {
			return false
		}

		for _, w := range samples[k*channels+1 : (k+1)*channels] {
			if byte(w>>24) != m {
				return false
			}
		}

		prev = m
	}

	return true
}
