package effectchain

import (
	"github.com/sirupsen/logrus"
	"github.com/soulaudio/soul-player-sub002/dsp/effects/reverb"
)

// Context is what factories need to build an effect.
type Context struct {
	// SampleRate is the rate effects are prepared for. Effects still
	// follow the rate passed to Process; the convolution reverb builds
	// its engine for this rate.
	SampleRate uint32
	// IRs resolves impulse responses named in reverb configs.
	IRs IRProvider
	Log logrus.FieldLogger
}

func (c Context) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}

	return c.Log
}

// IRProvider loads impulse responses by name.
type IRProvider interface {
	ImpulseResponse(name string) (reverb.ImpulseResponse, error)
}

// IRProviderFunc adapts a function to IRProvider.
type IRProviderFunc func(name string) (reverb.ImpulseResponse, error)

func (f IRProviderFunc) ImpulseResponse(name string) (reverb.ImpulseResponse, error) {
	return f(name)
}
