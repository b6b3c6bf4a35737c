package effects

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Effect is the processing contract shared by every chain member.
//
// Process filters interleaved stereo audio in place and must not allocate,
// block or perform I/O. Reset clears all filter, envelope and integrator
// state. A disabled effect is skipped by the chain and leaves the buffer
// untouched when called directly.
type Effect interface {
	Process(buf []float32, sampleRate uint32)
	Reset()
	SetEnabled(enabled bool)
	Enabled() bool
}

// Channels is the channel count of every buffer passed through an Effect.
const Channels = 2

// Kind identifies an effect implementation.
type Kind int

const (
	KindParametricEQ Kind = iota + 1
	KindGraphicEQ
	KindCompressor
	KindLimiter
	KindCrossfeed
	KindStereoEnhancer
	KindConvolutionReverb
)

// ErrUnknownKind is returned by ParseKind for unrecognized names.
var ErrUnknownKind = errors.New("effects: unknown effect kind")

var kindNames = map[Kind]string{
	KindParametricEQ:      "parametric_eq",
	KindGraphicEQ:         "graphic_eq",
	KindCompressor:        "compressor",
	KindLimiter:           "limiter",
	KindCrossfeed:         "crossfeed",
	KindStereoEnhancer:    "stereo_enhancer",
	KindConvolutionReverb: "convolution_reverb",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindParametricEQ, KindGraphicEQ, KindCompressor, KindLimiter,
		KindCrossfeed, KindStereoEnhancer, KindConvolutionReverb,
	}
}

// ParseKind maps a kind name back to its Kind. Matching ignores case and
// accepts '-' in place of '_'.
func ParseKind(name string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for k, n := range kindNames {
		if n == norm {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Toggle is an enabled flag safe to flip from a control goroutine while the
// audio goroutine reads it. The zero value is enabled.
type Toggle struct {
	disabled atomic.Bool
}

// SetEnabled enables or disables the owner.
func (t *Toggle) SetEnabled(enabled bool) {
	t.disabled.Store(!enabled)
}

// Enabled reports whether the owner is enabled.
func (t *Toggle) Enabled() bool {
	return !t.disabled.Load()
}

// ValidBuffer reports whether buf can be processed: enabled flag set,
// non-empty, a whole number of stereo frames and a positive sample rate.
func ValidBuffer(t *Toggle, buf []float32, sampleRate uint32) bool {
	return t.Enabled() && len(buf) >= Channels && len(buf)%Channels == 0 && sampleRate > 0
}
