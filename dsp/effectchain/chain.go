package effectchain

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/effects"
)

// ErrIndex is returned for a position outside the chain.
var ErrIndex = errors.New("effectchain: index out of range")

// Chain applies its adapters in order. Process and the read accessors are
// lock-free; mutations are serialized among themselves and publish a new
// list.
type Chain struct {
	effects.Toggle

	mu    sync.Mutex
	slots atomic.Pointer[[]Adapter]
	log   logrus.FieldLogger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger used for chain mutations.
func WithLogger(log logrus.FieldLogger) ChainOption {
	return func(c *Chain) { c.log = log }
}

// NewChain returns an empty, enabled chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}

	empty := []Adapter{}
	c.slots.Store(&empty)

	return c
}

func (c *Chain) list() []Adapter { return *c.slots.Load() }

// mutate copies the list, lets fn edit the copy and publishes it.
func (c *Chain) mutate(fn func([]Adapter) ([]Adapter, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.list()
	next := make([]Adapter, len(cur), len(cur)+1)
	copy(next, cur)

	next, err := fn(next)
	if err != nil {
		return err
	}

	c.slots.Store(&next)

	return nil
}

// Len is the number of effects.
func (c *Chain) Len() int { return len(c.list()) }

// At returns the effect at i, or nil.
func (c *Chain) At(i int) Adapter {
	l := c.list()
	if i < 0 || i >= len(l) {
		return nil
	}

	return l[i]
}

// Infos lists the Info of every effect in order.
func (c *Chain) Infos() []Info {
	l := c.list()

	out := make([]Info, len(l))
	for i, a := range l {
		out[i] = a.Info()
	}

	return out
}

// Add appends a.
func (c *Chain) Add(a Adapter) error {
	return c.Insert(c.Len(), a)
}

// Insert places a at position i, shifting later effects back.
func (c *Chain) Insert(i int, a Adapter) error {
	if a == nil {
		return errors.New("effectchain: nil adapter")
	}

	err := c.mutate(func(l []Adapter) ([]Adapter, error) {
		if i < 0 || i > len(l) {
			return nil, fmt.Errorf("%w: insert at %d of %d", ErrIndex, i, len(l))
		}

		l = append(l, nil)
		copy(l[i+1:], l[i:])
		l[i] = a

		return l, nil
	})
	if err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{"effect": a.Info().ID, "index": i}).Debug("effect inserted")

	return nil
}

// Remove deletes and returns the effect at i.
func (c *Chain) Remove(i int) (Adapter, error) {
	var removed Adapter

	err := c.mutate(func(l []Adapter) ([]Adapter, error) {
		if i < 0 || i >= len(l) {
			return nil, fmt.Errorf("%w: remove %d of %d", ErrIndex, i, len(l))
		}

		removed = l[i]

		return append(l[:i], l[i+1:]...), nil
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{"effect": removed.Info().ID, "index": i}).Debug("effect removed")

	return removed, nil
}

// Move relocates the effect at from to position to.
func (c *Chain) Move(from, to int) error {
	return c.mutate(func(l []Adapter) ([]Adapter, error) {
		if from < 0 || from >= len(l) || to < 0 || to >= len(l) {
			return nil, fmt.Errorf("%w: move %d to %d of %d", ErrIndex, from, to, len(l))
		}

		a := l[from]
		l = append(l[:from], l[from+1:]...)
		l = append(l, nil)
		copy(l[to+1:], l[to:])
		l[to] = a

		return l, nil
	})
}

// Clear removes every effect.
func (c *Chain) Clear() {
	_ = c.mutate(func([]Adapter) ([]Adapter, error) { return []Adapter{}, nil })
}

// UpdateParameters forwards s to the effect at i.
func (c *Chain) UpdateParameters(i int, s Settings) bool {
	a := c.At(i)
	if a == nil || s == nil {
		return false
	}

	ok := a.UpdateParameters(s)
	if !ok {
		c.log.WithFields(logrus.Fields{
			"effect": a.Info().ID,
			"index":  i,
			"kind":   s.Kind().String(),
		}).Warn("parameter update rejected")
	}

	return ok
}

// SetEnabled sets the chain flag and the flag of every member.
func (c *Chain) SetEnabled(enabled bool) {
	c.Toggle.SetEnabled(enabled)

	for _, a := range c.list() {
		a.SetEnabled(enabled)
	}
}

// Process runs every enabled effect over buf in order.
func (c *Chain) Process(buf []float32, sampleRate uint32) {
	if !c.Enabled() {
		return
	}

	for _, a := range c.list() {
		if a.Enabled() {
			a.Process(buf, sampleRate)
		}
	}
}

// Reset clears the state of every effect.
func (c *Chain) Reset() {
	for _, a := range c.list() {
		a.Reset()
	}
}
