// Package resample converts interleaved audio between sample rates.
//
// A Resampler owns one backend stream per channel. Two backends are
// registered: a high-quality one built on github.com/tphakala/go-audio-resampler
// (excluded by the nosoxr build tag) and a portable Kaiser-windowed polyphase
// FIR. BackendAuto picks the highest-priority backend compiled in.
//
// Every Process call returns at most CalculateOutputSize(frames) frames,
// so callers can pre-size their buffers from that function alone.
package resample
