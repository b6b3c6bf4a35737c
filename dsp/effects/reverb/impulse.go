package reverb

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/resample"
	"github.com/soulaudio/soul-player-sub002/internal/wavio"
)

var (
	ErrEmptyImpulse  = errors.New("reverb: empty impulse response")
	ErrImpulseLayout = errors.New("reverb: impulse response must have 1 or 2 channels of equal length")
	ErrImpulseRate   = errors.New("reverb: impulse response sample rate must be positive")
)

// ImpulseResponse is a planar mono or stereo response.
type ImpulseResponse struct {
	Samples    [][]float32
	SampleRate uint32
}

// Validate checks the channel layout and sample rate.
func (ir ImpulseResponse) Validate() error {
	if ir.SampleRate == 0 {
		return ErrImpulseRate
	}

	if len(ir.Samples) == 0 || len(ir.Samples) > 2 {
		return fmt.Errorf("%w: %d channels", ErrImpulseLayout, len(ir.Samples))
	}

	n := len(ir.Samples[0])
	if n == 0 {
		return ErrEmptyImpulse
	}

	for _, ch := range ir.Samples[1:] {
		if len(ch) != n {
			return ErrImpulseLayout
		}
	}

	return nil
}

// Len is the response length in frames.
func (ir ImpulseResponse) Len() int {
	if len(ir.Samples) == 0 {
		return 0
	}

	return len(ir.Samples[0])
}

// Channels is 1 or 2 for a valid response.
func (ir ImpulseResponse) Channels() int { return len(ir.Samples) }

// Resampled converts ir to rate. The result has exactly
// ceil(Len*rate/SampleRate) frames.
func (ir ImpulseResponse) Resampled(rate uint32, q resample.Quality, backend resample.BackendKind) (ImpulseResponse, error) {
	if err := ir.Validate(); err != nil {
		return ImpulseResponse{}, err
	}

	if rate == ir.SampleRate {
		return ir, nil
	}

	cfg := resample.Config{
		InputRate:  ir.SampleRate,
		OutputRate: rate,
		Channels:   ir.Channels(),
		Quality:    q,
		Backend:    backend,
	}

	r, err := resample.New(cfg)
	if err != nil {
		return ImpulseResponse{}, fmt.Errorf("reverb: resample impulse: %w", err)
	}

	planar := make([][]float64, ir.Channels())
	for ch, s := range ir.Samples {
		planar[ch] = make([]float64, len(s))
		for i, v := range s {
			planar[ch][i] = float64(v)
		}
	}

	in := core.Interleave(nil, planar)

	body, err := r.Process(in)
	if err != nil {
		return ImpulseResponse{}, fmt.Errorf("reverb: resample impulse: %w", err)
	}

	interleaved := append([]float32(nil), body...)

	tail, err := r.Flush()
	if err != nil {
		return ImpulseResponse{}, fmt.Errorf("reverb: resample impulse: %w", err)
	}

	interleaved = append(interleaved, tail...)

	// Drop the converter's group delay so the direct sound keeps its place.
	lead := int(math.Round(r.Latency()))
	frames := cfg.CalculateOutputSize(ir.Len())
	out := ImpulseResponse{SampleRate: rate, Samples: make([][]float32, ir.Channels())}

	for ch := range out.Samples {
		dst := make([]float32, frames)
		for i := range dst {
			if j := (i+lead)*ir.Channels() + ch; j < len(interleaved) {
				dst[i] = interleaved[j]
			}
		}

		out.Samples[ch] = dst
	}

	return out, nil
}

// Normalized scales ir so its absolute peak sits at peakDB.
func (ir ImpulseResponse) Normalized(peakDB float64) ImpulseResponse {
	var peak float64

	for _, ch := range ir.Samples {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
	}

	if peak == 0 {
		return ir
	}

	gain := float32(core.DBToLinear(peakDB) / peak)
	out := ImpulseResponse{SampleRate: ir.SampleRate, Samples: make([][]float32, len(ir.Samples))}

	for ch, s := range ir.Samples {
		out.Samples[ch] = make([]float32, len(s))
		for i, v := range s {
			out.Samples[ch][i] = v * gain
		}
	}

	return out
}

// LoadImpulseResponseWAV decodes a mono or stereo PCM WAV file.
func LoadImpulseResponseWAV(r io.ReadSeeker) (ImpulseResponse, error) {
	clip, err := wavio.Read(r)
	if err != nil {
		return ImpulseResponse{}, fmt.Errorf("reverb: %w", err)
	}

	if clip.Channels < 1 || clip.Channels > 2 {
		return ImpulseResponse{}, fmt.Errorf("%w: %d channels", ErrImpulseLayout, clip.Channels)
	}

	frames := clip.Frames()
	ir := ImpulseResponse{SampleRate: clip.SampleRate, Samples: make([][]float32, clip.Channels)}

	for ch := range ir.Samples {
		s := make([]float32, frames)
		for i := range s {
			s[i] = clip.Samples[i*clip.Channels+ch]
		}

		ir.Samples[ch] = s
	}

	if err := ir.Validate(); err != nil {
		return ImpulseResponse{}, err
	}

	return ir, nil
}
