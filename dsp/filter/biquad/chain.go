package biquad

// Chain is a cascade of sections sharing one channel of audio.
type Chain struct {
	sections []Section
}

// NewChain returns a cascade initialized with coeffs and zero state.
func NewChain(coeffs []Coefficients) *Chain {
	c := &Chain{sections: make([]Section, len(coeffs))}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}

	return c
}

// ProcessSample runs x through every section in order.
func (c *Chain) ProcessSample(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}

	return x
}

// ProcessBlock filters buf in place.
func (c *Chain) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = c.ProcessSample(x)
	}
}

// SetCoefficients replaces the coefficients of section i, keeping state.
// Out-of-range indices are ignored.
func (c *Chain) SetCoefficients(i int, coeffs Coefficients) {
	if i < 0 || i >= len(c.sections) {
		return
	}

	c.sections[i].Coefficients = coeffs
}

// Reset clears the state of every section.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// NumSections returns the number of cascaded sections.
func (c *Chain) NumSections() int { return len(c.sections) }

// Section returns section i.
func (c *Chain) Section(i int) *Section { return &c.sections[i] }
