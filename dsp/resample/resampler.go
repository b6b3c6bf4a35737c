package resample

import (
	"fmt"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
)

// Resampler converts interleaved float32 audio. It is not safe for
// concurrent use.
type Resampler struct {
	cfg     Config
	backend BackendKind
	streams []Stream

	planar  [][]float64
	pending [][]float64
	view    [][]float64
	out     []float32
}

// New validates cfg and builds one backend stream per channel.
func New(cfg Config) (*Resampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	entry, err := lookupBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	r := &Resampler{
		cfg:     cfg,
		backend: entry.Kind,
		streams: make([]Stream, cfg.Channels),
		planar:  make([][]float64, cfg.Channels),
		pending: make([][]float64, cfg.Channels),
		view:    make([][]float64, cfg.Channels),
	}

	for ch := range r.streams {
		s, err := entry.factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("resample: %s backend: %w", entry.Kind, err)
		}

		r.streams[ch] = s
	}

	logSelection(cfg, entry.Kind)

	return r, nil
}

// Config returns the configuration r was built with.
func (r *Resampler) Config() Config { return r.cfg }

// Backend names the backend in use; never BackendAuto.
func (r *Resampler) Backend() BackendKind { return r.backend }

// Latency is the group delay of the backend in output frames.
func (r *Resampler) Latency() float64 { return r.streams[0].Latency() }

// CalculateOutputSize is Config.CalculateOutputSize.
func (r *Resampler) CalculateOutputSize(frames int) int {
	return r.cfg.CalculateOutputSize(frames)
}

// Process resamples interleaved input. The result holds at most
// CalculateOutputSize(len(in)/channels) frames and is only valid until
// the next call. Output the backends produce beyond that bound is kept
// and returned first by later calls.
func (r *Resampler) Process(in []float32) ([]float32, error) {
	chans := r.cfg.Channels
	if len(in)%chans != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrMisaligned, len(in), chans)
	}

	frames := len(in) / chans
	if frames == 0 {
		return r.out[:0], nil
	}

	r.planar = core.Deinterleave(r.planar, in)

	for ch, s := range r.streams {
		y, err := s.Process(r.planar[ch])
		if err != nil {
			return nil, fmt.Errorf("resample: channel %d: %w", ch, err)
		}

		r.pending[ch] = append(r.pending[ch], y...)
	}

	return r.drain(r.cfg.CalculateOutputSize(frames)), nil
}

// Flush drains the backends and any held-back output.
func (r *Resampler) Flush() ([]float32, error) {
	for ch, s := range r.streams {
		y, err := s.Flush()
		if err != nil {
			return nil, fmt.Errorf("resample: channel %d: %w", ch, err)
		}

		r.pending[ch] = append(r.pending[ch], y...)
	}

	return r.drain(-1), nil
}

// Reset clears filter state and held-back output.
func (r *Resampler) Reset() {
	for ch, s := range r.streams {
		s.Reset()
		r.pending[ch] = r.pending[ch][:0]
	}
}

// Pending is the number of frames held back for the next call.
func (r *Resampler) Pending() int {
	n := len(r.pending[0])
	for _, p := range r.pending[1:] {
		n = min(n, len(p))
	}

	return n
}

// drain interleaves up to limit frames from pending; limit < 0 takes all.
func (r *Resampler) drain(limit int) []float32 {
	n := r.Pending()
	if limit >= 0 && n > limit {
		n = limit
	}

	for ch, p := range r.pending {
		r.view[ch] = p[:n]
	}

	r.out = core.Interleave(r.out, r.view)

	for ch, p := range r.pending {
		rest := copy(p, p[n:])
		r.pending[ch] = p[:rest]
	}

	return r.out
}
