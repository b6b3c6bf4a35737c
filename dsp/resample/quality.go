package resample

import (
	"fmt"
	"math"
	"strings"
)

// Quality selects the anti-aliasing filter tier.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityHigh
	QualityMaximum
)

// Spec is the filter target of a quality tier.
type Spec struct {
	// TransitionBand is the transition width as a fraction of the lower
	// Nyquist frequency.
	TransitionBand float64
	// StopbandDB is the stop-band attenuation target.
	StopbandDB float64
}

// Profile holds the polyphase FIR parameters of a quality tier.
type Profile struct {
	TapsPerPhase int
	CutoffScale  float64
	KaiserBeta   float64
}

var qualityNames = [...]string{"fast", "balanced", "high", "maximum"}

var qualitySpecs = [...]Spec{
	QualityFast:     {TransitionBand: 0.20, StopbandDB: 60},
	QualityBalanced: {TransitionBand: 0.10, StopbandDB: 80},
	QualityHigh:     {TransitionBand: 0.05, StopbandDB: 100},
	QualityMaximum:  {TransitionBand: 0.02, StopbandDB: 140},
}

var qualityTaps = [...]int{
	QualityFast:     16,
	QualityBalanced: 32,
	QualityHigh:     48,
	QualityMaximum:  64,
}

func (q Quality) valid() bool {
	return q >= QualityFast && q <= QualityMaximum
}

func (q Quality) String() string {
	if q.valid() {
		return qualityNames[q]
	}

	return fmt.Sprintf("quality(%d)", int(q))
}

// ParseQuality maps a tier name to its Quality.
func ParseQuality(name string) (Quality, error) {
	for i, n := range qualityNames {
		if strings.EqualFold(n, name) {
			return Quality(i), nil
		}
	}

	return 0, fmt.Errorf("%w: quality %q", ErrInvalidConfig, name)
}

// Spec returns the transition band and attenuation target of q.
func (q Quality) Spec() Spec {
	if !q.valid() {
		return qualitySpecs[QualityBalanced]
	}

	return qualitySpecs[q]
}

// Profile returns the polyphase parameters realising q.
func (q Quality) Profile() Profile {
	if !q.valid() {
		q = QualityBalanced
	}

	s := qualitySpecs[q]

	return Profile{
		TapsPerPhase: qualityTaps[q],
		CutoffScale:  1 - s.TransitionBand/2,
		KaiserBeta:   kaiserBeta(s.StopbandDB),
	}
}

// kaiserBeta is Kaiser's empirical beta for a stop-band attenuation in dB.
func kaiserBeta(atten float64) float64 {
	switch {
	case atten > 50:
		return 0.1102 * (atten - 8.7)
	case atten >= 21:
		return 0.5842*math.Pow(atten-21, 0.4) + 0.07886*(atten-21)
	default:
		return 0
	}
}
