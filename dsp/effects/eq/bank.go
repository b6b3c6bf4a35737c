package eq

import (
	"github.com/soulaudio/soul-player-sub002/dsp/core"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
	"github.com/soulaudio/soul-player-sub002/dsp/filter/biquad"
)

const maxBands = 31

// bandSet is a fixed-size copy of the band parameters so it can be handed
// to the audio goroutine without allocating.
type bandSet struct {
	n     int
	bands [maxBands]Band
}

func (s *bandSet) slice() []Band { return s.bands[:s.n] }

// bank is the stereo biquad cascade shared by both equalizers.
type bank struct {
	effects.Toggle

	shapes []Shape
	params *core.Latch[bandSet]

	active bandSet
	rate   uint32
	chains [effects.Channels]*biquad.Chain
}

func newBank(shapes []Shape, bands []Band) *bank {
	var set bandSet
	set.n = copy(set.bands[:], bands)

	b := &bank{
		shapes: shapes,
		params: core.NewLatch(set),
		active: set,
	}
	for ch := range b.chains {
		b.chains[ch] = biquad.NewChain(make([]biquad.Coefficients, len(shapes)))
	}

	return b
}

// Process implements effects.Effect.
func (b *bank) Process(buf []float32, sampleRate uint32) {
	if !effects.ValidBuffer(&b.Toggle, buf, sampleRate) {
		return
	}

	changed := b.params.Take(&b.active)

	switch {
	case sampleRate != b.rate:
		// Old-rate state would ring at the wrong frequencies.
		b.rate = sampleRate
		b.recompute()
		b.resetState()
	case changed:
		b.recompute()
	}

	left, right := b.chains[0], b.chains[1]
	for i := 0; i < len(buf); i += effects.Channels {
		buf[i] = float32(left.ProcessSample(float64(buf[i])))
		buf[i+1] = float32(right.ProcessSample(float64(buf[i+1])))
	}
}

// Reset implements effects.Effect.
func (b *bank) Reset() {
	b.params.Take(&b.active)
	if b.rate > 0 {
		b.recompute()
	}
	b.resetState()
}

func (b *bank) recompute() {
	sr := float64(b.rate)
	for i, band := range b.active.slice() {
		c := band.Coefficients(b.shapes[i], sr)
		for _, chain := range b.chains {
			chain.SetCoefficients(i, c)
		}
	}
}

func (b *bank) resetState() {
	for _, chain := range b.chains {
		chain.Reset()
	}
}

func (b *bank) bands() []Band {
	set := b.params.Load()
	return append([]Band(nil), set.slice()...)
}

func (b *bank) setBand(i int, band Band) error {
	band, err := checkedBand(band)
	if err != nil {
		return err
	}

	return b.params.Modify(func(set *bandSet) error {
		if i < 0 || i >= set.n {
			return ErrBandIndex
		}
		set.bands[i] = band
		return nil
	})
}

func (b *bank) setBands(bands []Band) error {
	checked := make([]Band, len(bands))
	for i, band := range bands {
		c, err := checkedBand(band)
		if err != nil {
			return err
		}
		checked[i] = c
	}

	return b.params.Modify(func(set *bandSet) error {
		if len(checked) != set.n {
			return ErrBandCount
		}
		copy(set.bands[:], checked)
		return nil
	})
}
