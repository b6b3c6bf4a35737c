package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// DefaultBlockSize is the partition length used by NewPartitioned callers
// that have no reason to pick another.
const DefaultBlockSize = 128

// Partitioned is a zero-latency uniformly partitioned convolver.
//
// Kernel taps [0, B) run through a Direct engine. Taps [B, N) are split into
// partitions of B taps; once an input block of B samples is complete, the
// tail contribution for the following block is computed by overlap-save with
// FFT size 2B and a frequency-domain delay line.
type Partitioned struct {
	block  int
	length int

	head *Direct
	plan *algofft.Plan[complex128]

	parts  [][]complex128 // spectra of tail partitions
	fdl    [][]complex128 // spectra of recent input frames, ring
	fdlPos int

	frame []float64 // previous and current input block
	spec  []complex128
	acc   []complex128
	tail  []float64 // tail contribution for the current block
	pos   int
}

// NewPartitioned returns a Partitioned engine for kernel with partition
// size block (power of two, >= 16).
func NewPartitioned(kernel []float64, block int) (*Partitioned, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if block < 16 || block&(block-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlock, block)
	}

	headLen := min(block, len(kernel))

	head, err := NewDirect(kernel[:headLen])
	if err != nil {
		return nil, err
	}

	p := &Partitioned{
		block:  block,
		length: len(kernel),
		head:   head,
		frame:  make([]float64, 2*block),
		tail:   make([]float64, block),
	}

	rest := kernel[headLen:]
	if len(rest) == 0 {
		return p, nil
	}

	fftSize := 2 * block

	p.plan, err = algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: create FFT plan (size %d): %w", fftSize, err)
	}

	numParts := (len(rest) + block - 1) / block
	p.parts = make([][]complex128, numParts)
	p.fdl = make([][]complex128, numParts)

	for j := range numParts {
		padded := make([]complex128, fftSize)
		seg := rest[j*block : min((j+1)*block, len(rest))]
		for i, v := range seg {
			padded[i] = complex(v, 0)
		}

		if err := p.plan.Forward(padded, padded); err != nil {
			return nil, fmt.Errorf("conv: transform partition %d: %w", j, err)
		}

		p.parts[j] = padded
		p.fdl[j] = make([]complex128, fftSize)
	}

	p.spec = make([]complex128, fftSize)
	p.acc = make([]complex128, fftSize)

	return p, nil
}

// ProcessSample pushes x and returns the next output sample.
func (p *Partitioned) ProcessSample(x float64) float64 {
	y := p.head.ProcessSample(x) + p.tail[p.pos]

	if p.plan == nil {
		return y
	}

	p.frame[p.block+p.pos] = x
	p.pos++

	if p.pos == p.block {
		p.pos = 0
		p.convolveTail()
	}

	return y
}

// ProcessBlock filters buf in place. Any length is accepted.
func (p *Partitioned) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = p.ProcessSample(x)
	}
}

func (p *Partitioned) convolveTail() {
	for i, v := range p.frame {
		p.spec[i] = complex(v, 0)
	}
	copy(p.frame[:p.block], p.frame[p.block:])

	if err := p.plan.Forward(p.spec, p.spec); err != nil {
		clear(p.tail)
		return
	}

	copy(p.fdl[p.fdlPos], p.spec)

	clear(p.acc)

	n := len(p.parts)
	for j, h := range p.parts {
		x := p.fdl[(p.fdlPos-j+n)%n]
		for i := range p.acc {
			p.acc[i] += x[i] * h[i]
		}
	}

	p.fdlPos = (p.fdlPos + 1) % n

	if err := p.plan.Inverse(p.acc, p.acc); err != nil {
		clear(p.tail)
		return
	}

	for i := range p.tail {
		p.tail[i] = real(p.acc[p.block+i])
	}
}

// Reset clears all history.
func (p *Partitioned) Reset() {
	p.head.Reset()
	clear(p.frame)
	clear(p.tail)
	for _, f := range p.fdl {
		clear(f)
	}
	p.fdlPos = 0
	p.pos = 0
}

// Len returns the kernel length.
func (p *Partitioned) Len() int { return p.length }

// BlockSize returns the partition size.
func (p *Partitioned) BlockSize() int { return p.block }

// Partitions returns the number of frequency-domain partitions.
func (p *Partitioned) Partitions() int { return len(p.parts) }
