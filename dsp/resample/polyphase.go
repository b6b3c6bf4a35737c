package resample

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// maxPhases caps the interpolation factor. Ratios whose reduced fraction
// needs more phases are approximated by continued fractions.
const maxPhases = 1024

func init() {
	RegisterBackend(BackendPolyphase, 10, func(cfg Config) (Stream, error) {
		return NewPolyphase(cfg.InputRate, cfg.OutputRate, cfg.Quality)
	})
}

// Polyphase is a rational up/down resampler built from a Kaiser-windowed
// sinc prototype split into up branches.
type Polyphase struct {
	up, down int
	taps     int
	phases   [][]float64

	// pos is the next output position in units of 1/up input samples,
	// relative to the start of the next input block.
	pos     int
	history []float64
	work    []float64
	out     []float64
}

// NewPolyphase designs a stream converting inRate to outRate.
func NewPolyphase(inRate, outRate uint32, q Quality) (*Polyphase, error) {
	if inRate == 0 || outRate == 0 {
		return nil, ErrInvalidRate
	}

	up, down := reduceRatio(int(outRate), int(inRate))
	if up > maxPhases {
		up, down = approximateRatio(float64(outRate)/float64(inRate), maxPhases)
	}

	prof := q.Profile()

	phases, err := designPhases(up, down, prof)
	if err != nil {
		return nil, err
	}

	return &Polyphase{
		up:      up,
		down:    down,
		taps:    prof.TapsPerPhase,
		phases:  phases,
		history: make([]float64, prof.TapsPerPhase-1),
	}, nil
}

// Ratio returns the reduced up/down factors in use.
func (p *Polyphase) Ratio() (up, down int) { return p.up, p.down }

// Latency is the filter group delay in output frames.
func (p *Polyphase) Latency() float64 {
	return float64(p.taps*p.up-1) / (2 * float64(p.down))
}

func (p *Polyphase) Reset() {
	p.pos = 0
	clear(p.history)
}

func (p *Polyphase) Process(in []float64) ([]float64, error) {
	hist := len(p.history)

	need := hist + len(in)
	if cap(p.work) < need {
		p.work = make([]float64, need)
	}

	work := p.work[:need]
	copy(work, p.history)
	copy(work[hist:], in)

	p.out = p.out[:0]
	limit := len(in) * p.up

	for ; p.pos < limit; p.pos += p.down {
		base := p.pos / p.up
		coeffs := p.phases[p.pos%p.up]

		// work[hist+base] is the newest sample under the filter.
		newest := hist + base

		var acc float64
		for k, c := range coeffs {
			acc += c * work[newest-k]
		}

		p.out = append(p.out, acc)
	}

	p.pos -= limit
	copy(p.history, work[len(work)-hist:])

	return p.out, nil
}

// Flush pushes zeros through the delay line so the tail of the signal
// comes out.
func (p *Polyphase) Flush() ([]float64, error) {
	zeros := make([]float64, p.taps)

	out, err := p.Process(zeros)
	if err != nil {
		return nil, err
	}

	if n := int(math.Ceil(p.Latency())); n < len(out) {
		out = out[:n]
	}

	return out, nil
}

func designPhases(up, down int, prof Profile) ([][]float64, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRate
	}

	if prof.TapsPerPhase <= 0 {
		return nil, errors.New("resample: taps per phase must be > 0")
	}

	n := prof.TapsPerPhase * up

	fc := 0.5 / float64(max(up, down)) * prof.CutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	proto := make([]float64, n)
	window := make([]float64, n)
	center := 0.5 * float64(n-1)

	for i := range proto {
		proto[i] = 2 * fc * sinc(2*fc*(float64(i)-center))
		window[i] = kaiser(i, n, prof.KaiserBeta)
	}

	vecmath.MulBlockInPlace(proto, window)

	var sum float64
	for _, v := range proto {
		sum += v
	}

	if sum == 0 {
		return nil, errors.New("resample: designed zero-sum filter")
	}

	// Each branch sees one of every up samples, so unity DC gain needs a
	// prototype summing to up.
	scale := float64(up) / sum

	phases := make([][]float64, up)
	for ph := range phases {
		branch := make([]float64, prof.TapsPerPhase)
		for k := range branch {
			branch[k] = proto[ph+k*up] * scale
		}

		phases[ph] = branch
	}

	return phases, nil
}

func reduceRatio(num, den int) (int, int) {
	g := gcd(num, den)
	return num / g, den / g
}

func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		p2, q2 := a*p1+p0, a*q1+q0
		if p2 > float64(maxDen) || q2 > float64(maxDen) {
			break
		}

		p0, q0, p1, q1 = p1, q1, p2, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	return reduceRatio(num, den)
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}

	if b < 0 {
		b = -b
	}

	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1

	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 evaluates the modified Bessel function of order zero by its
// power series.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	x2 := x * x / 4

	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term

		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
