package eq

// Parametric band indices.
const (
	LowShelfBand = iota
	MidBand
	HighShelfBand
)

// ParametricSettings is the complete parameter set of a Parametric EQ.
type ParametricSettings struct {
	LowShelf  Band `json:"low_shelf"`
	Mid       Band `json:"mid"`
	HighShelf Band `json:"high_shelf"`
}

// DefaultParametricSettings returns a flat three-band configuration.
func DefaultParametricSettings() ParametricSettings {
	return ParametricSettings{
		LowShelf:  Band{Frequency: 100, GainDB: 0, Q: 0.707},
		Mid:       Band{Frequency: 1000, GainDB: 0, Q: 1},
		HighShelf: Band{Frequency: 10000, GainDB: 0, Q: 0.707},
	}
}

func (s ParametricSettings) bands() []Band {
	return []Band{s.LowShelf, s.Mid, s.HighShelf}
}

// Parametric is a low shelf, a peaking band and a high shelf in series.
type Parametric struct {
	*bank
}

// NewParametric returns a Parametric EQ with settings s.
func NewParametric(s ParametricSettings) (*Parametric, error) {
	p := &Parametric{
		bank: newBank(
			[]Shape{ShapeLowShelf, ShapePeak, ShapeHighShelf},
			DefaultParametricSettings().bands(),
		),
	}
	if err := p.Update(s); err != nil {
		return nil, err
	}

	return p, nil
}

// Update replaces all three bands. Nothing changes if any band is invalid.
func (p *Parametric) Update(s ParametricSettings) error {
	return p.setBands(s.bands())
}

// Settings returns the current (clamped) parameters.
func (p *Parametric) Settings() ParametricSettings {
	b := p.bank.bands()
	return ParametricSettings{LowShelf: b[LowShelfBand], Mid: b[MidBand], HighShelf: b[HighShelfBand]}
}

// SetBand replaces band i (LowShelfBand, MidBand or HighShelfBand).
func (p *Parametric) SetBand(i int, b Band) error { return p.setBand(i, b) }

// SetLowShelf replaces the low shelf.
func (p *Parametric) SetLowShelf(b Band) error { return p.setBand(LowShelfBand, b) }

// SetMid replaces the peaking band.
func (p *Parametric) SetMid(b Band) error { return p.setBand(MidBand, b) }

// SetHighShelf replaces the high shelf.
func (p *Parametric) SetHighShelf(b Band) error { return p.setBand(HighShelfBand, b) }

// Bands returns the current bands in processing order.
func (p *Parametric) Bands() []Band { return p.bank.bands() }
