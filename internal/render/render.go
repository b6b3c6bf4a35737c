// Package render runs a decoded clip through an effect chain, an optional
// sample-rate conversion and a quantizer.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/dither"
	"github.com/soulaudio/soul-player-sub002/dsp/effectchain"
	"github.com/soulaudio/soul-player-sub002/dsp/resample"
	"github.com/soulaudio/soul-player-sub002/internal/wavio"
)

const DefaultBlockFrames = 1024

// Options controls a render.
type Options struct {
	// OutputRate of 0 keeps the input rate.
	OutputRate  uint32
	Bits        int
	Quality     resample.Quality
	Backend     resample.BackendKind
	Dither      dither.DitherType
	ShaperOrder int
	BlockFrames int
	Log         logrus.FieldLogger
}

// Report summarises a finished render.
type Report struct {
	InputFrames  int
	OutputFrames int
	InputRate    uint32
	OutputRate   uint32
	Effects      int
	Backend      string
	PeakDB       float64
}

var ErrNotStereo = errors.New("render: input must be stereo")

// Render processes clip and returns interleaved stereo words of
// opts.Bits bits. chain may be nil.
func Render(clip wavio.Clip, chain *effectchain.Chain, opts Options) ([]int, Report, error) {
	if clip.Channels != 2 {
		return nil, Report{}, fmt.Errorf("%w: %d channels", ErrNotStereo, clip.Channels)
	}

	if opts.BlockFrames <= 0 {
		opts.BlockFrames = DefaultBlockFrames
	}

	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	if opts.OutputRate == 0 {
		opts.OutputRate = clip.SampleRate
	}

	rep := Report{
		InputFrames: clip.Frames(),
		InputRate:   clip.SampleRate,
		OutputRate:  opts.OutputRate,
		Backend:     "none",
	}

	if chain != nil {
		rep.Effects = chain.Len()
	}

	var rs *resample.Resampler

	if opts.OutputRate != clip.SampleRate {
		var err error

		rs, err = resample.New(resample.Config{
			InputRate:  clip.SampleRate,
			OutputRate: opts.OutputRate,
			Channels:   2,
			Quality:    opts.Quality,
			Backend:    opts.Backend,
		})
		if err != nil {
			return nil, rep, err
		}

		rep.Backend = rs.Backend().String()
	}

	q, err := dither.NewQuantizer(opts.Bits, 2,
		dither.WithDitherType(opts.Dither),
		dither.WithNoiseShaping(opts.ShaperOrder))
	if err != nil {
		return nil, rep, err
	}

	outFrames := clip.Frames()
	if rs != nil {
		outFrames = rs.CalculateOutputSize(outFrames + opts.BlockFrames)
	}

	block := make([]float32, 2*opts.BlockFrames)
	out := make([]float32, 0, 2*outFrames)

	for off := 0; off < len(clip.Samples); off += len(block) {
		n := copy(block, clip.Samples[off:])
		buf := block[:n]

		if chain != nil {
			chain.Process(buf, clip.SampleRate)
		}

		if rs == nil {
			out = append(out, buf...)
			continue
		}

		y, err := rs.Process(buf)
		if err != nil {
			return nil, rep, err
		}

		out = append(out, y...)
	}

	if rs != nil {
		tail, err := rs.Flush()
		if err != nil {
			return nil, rep, err
		}

		out = append(out, tail...)
	}

	rep.OutputFrames = len(out) / 2
	rep.PeakDB = peakDB(out)

	words := q.Quantize(nil, out)

	opts.Log.WithFields(logrus.Fields{
		"in_frames":  rep.InputFrames,
		"out_frames": rep.OutputFrames,
		"in_rate":    rep.InputRate,
		"out_rate":   rep.OutputRate,
		"backend":    rep.Backend,
		"bits":       opts.Bits,
		"shaping":    opts.ShaperOrder,
	}).Info("render finished")

	return words, rep, nil
}

func peakDB(buf []float32) float64 {
	var peak float64

	for _, v := range buf {
		peak = max(peak, math.Abs(float64(v)))
	}

	return core.LinearToDB(peak)
}
