//go:build !nosoxr

package resample

import (
	"errors"
	"math"
	"sync"

	resampler "github.com/tphakala/go-audio-resampler"
)

func init() {
	RegisterBackend(BackendHighQuality, 20, func(cfg Config) (Stream, error) {
		return newHQStream(cfg)
	})
}

// calibrationLead is the silence fed ahead of the calibration impulse. It
// must exceed any leading trim the engine applies.
const calibrationLead = 4096

var errNoCalibration = errors.New("resample: high-quality engine produced no calibration output")

type hqEngine interface {
	Process([]float64) ([]float64, error)
	Flush() ([]float64, error)
}

type hqKey struct {
	in, out uint32
	quality Quality
}

// hqOffsets caches the measured engine offset per rate pair and quality.
var hqOffsets sync.Map

// hqStream adapts the multi-stage engine of go-audio-resampler. The engine
// compensates its own delay by discarding leading output, which would cut
// the start of a signal. The stream pre-rolls silence for the engine to
// discard and drops whatever remains of it, so output frame j lines up with
// input time j/OutputRate and Latency is zero. The engine has no reset, so
// Reset rebuilds it.
type hqStream struct {
	cfg    Config
	ratio  float64
	offset float64
	engine hqEngine
	skip   int
}

func newHQStream(cfg Config) (*hqStream, error) {
	s := &hqStream{cfg: cfg, ratio: cfg.Ratio()}

	offset, err := s.measureOffset()
	if err != nil {
		return nil, err
	}

	s.offset = offset

	if err := s.build(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *hqStream) newEngine() (hqEngine, error) {
	in, out := float64(s.cfg.InputRate), float64(s.cfg.OutputRate)

	switch s.cfg.Quality {
	case QualityFast:
		return resampler.NewEngine(in, out, resampler.QualityLow)
	case QualityHigh:
		return resampler.NewEngine(in, out, resampler.QualityHigh)
	case QualityMaximum:
		return resampler.NewEngine(in, out, resampler.QualityVeryHigh)
	default:
		return resampler.NewEngine(in, out, resampler.QualityMedium)
	}
}

// measureOffset runs an impulse behind calibrationLead frames of silence
// through a scratch engine and returns where it lands relative to its
// ideal output position. Negative values mean the engine advances the
// signal.
func (s *hqStream) measureOffset() (float64, error) {
	key := hqKey{s.cfg.InputRate, s.cfg.OutputRate, s.cfg.Quality}
	if v, ok := hqOffsets.Load(key); ok {
		return v.(float64), nil
	}

	eng, err := s.newEngine()
	if err != nil {
		return 0, err
	}

	in := make([]float64, 2*calibrationLead)
	in[calibrationLead] = 1

	y, err := eng.Process(in)
	if err != nil {
		return 0, err
	}

	out := append([]float64(nil), y...)

	tail, err := eng.Flush()
	if err != nil {
		return 0, err
	}

	out = append(out, tail...)

	peak, at := 0.0, -1
	for i, v := range out {
		if a := math.Abs(v); a > peak {
			peak, at = a, i
		}
	}

	if at < 0 {
		return 0, errNoCalibration
	}

	offset := float64(at) - calibrationLead*s.ratio
	hqOffsets.Store(key, offset)

	return offset, nil
}

func (s *hqStream) build() error {
	eng, err := s.newEngine()
	if err != nil {
		return err
	}

	s.engine = eng

	preroll := 0
	if s.offset < 0 {
		preroll = int(math.Ceil(-s.offset/s.ratio)) + 1
	}

	s.skip = max(0, int(math.Round(float64(preroll)*s.ratio+s.offset)))

	if preroll > 0 {
		if _, err := s.Process(make([]float64, preroll)); err != nil {
			return err
		}
	}

	return nil
}

func (s *hqStream) trim(y []float64) []float64 {
	if s.skip == 0 {
		return y
	}

	n := min(s.skip, len(y))
	s.skip -= n

	return y[n:]
}

func (s *hqStream) Process(in []float64) ([]float64, error) {
	y, err := s.engine.Process(in)
	if err != nil {
		return nil, err
	}

	return s.trim(y), nil
}

func (s *hqStream) Flush() ([]float64, error) {
	y, err := s.engine.Flush()
	if err != nil {
		return nil, err
	}

	return s.trim(y), nil
}

func (s *hqStream) Latency() float64 { return 0 }

func (s *hqStream) Reset() {
	// Rebuilding with an already validated config does not fail in practice;
	// keep the old engine if it does.
	_ = s.build()
}
