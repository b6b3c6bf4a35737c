package conv

// Direct is a streaming time-domain FIR.
type Direct struct {
	kernel  []float64
	history []float64 // two copies of the ring so reads never wrap
	pos     int
}

// NewDirect returns a Direct engine for kernel. The kernel is copied.
func NewDirect(kernel []float64) (*Direct, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	return &Direct{
		kernel:  append([]float64(nil), kernel...),
		history: make([]float64, 2*len(kernel)),
	}, nil
}

// ProcessSample pushes x and returns the next output sample.
func (d *Direct) ProcessSample(x float64) float64 {
	n := len(d.kernel)

	d.pos--
	if d.pos < 0 {
		d.pos = n - 1
	}

	d.history[d.pos] = x
	d.history[d.pos+n] = x

	h := d.history[d.pos : d.pos+n]

	var y float64
	for i, k := range d.kernel {
		y += k * h[i]
	}

	return y
}

// ProcessBlock filters buf in place.
func (d *Direct) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = d.ProcessSample(x)
	}
}

// Reset clears the input history.
func (d *Direct) Reset() {
	clear(d.history)
	d.pos = 0
}

// Len returns the kernel length.
func (d *Direct) Len() int { return len(d.kernel) }
