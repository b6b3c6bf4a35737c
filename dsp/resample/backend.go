package resample

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/sirupsen/logrus"
)

// BackendKind selects a resampling implementation.
type BackendKind int

const (
	// BackendAuto uses the highest-priority registered backend.
	BackendAuto BackendKind = iota
	// BackendHighQuality is the multi-stage engine from go-audio-resampler.
	BackendHighQuality
	// BackendPolyphase is the built-in Kaiser-windowed polyphase FIR.
	BackendPolyphase
)

var backendNames = [...]string{"auto", "high-quality", "polyphase"}

func (k BackendKind) String() string {
	if k >= 0 && int(k) < len(backendNames) {
		return backendNames[k]
	}

	return fmt.Sprintf("backend(%d)", int(k))
}

// ParseBackend maps a backend name to its kind.
func ParseBackend(name string) (BackendKind, error) {
	for i, n := range backendNames {
		if strings.EqualFold(n, name) {
			return BackendKind(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Stream resamples a single channel.
type Stream interface {
	// Process consumes in and returns the output produced so far. The
	// returned slice may be reused by the next call.
	Process(in []float64) ([]float64, error)
	// Flush drains the filter delay line.
	Flush() ([]float64, error)
	Reset()
	// Latency is the delay, in output frames, between an input frame and
	// the output frame that carries it.
	Latency() float64
}

// StreamFactory builds one channel stream for cfg.
type StreamFactory func(cfg Config) (Stream, error)

// BackendInfo describes a registered backend.
type BackendInfo struct {
	Kind     BackendKind
	Priority int
}

type backendEntry struct {
	BackendInfo
	factory StreamFactory
}

var (
	backendsMu sync.RWMutex
	backends   []backendEntry
)

// RegisterBackend adds a backend. Higher priorities win under BackendAuto.
// Registering a kind twice replaces the earlier entry.
func RegisterBackend(kind BackendKind, priority int, factory StreamFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	for i := range backends {
		if backends[i].Kind == kind {
			backends[i] = backendEntry{BackendInfo{kind, priority}, factory}
			sortBackends()

			return
		}
	}

	backends = append(backends, backendEntry{BackendInfo{kind, priority}, factory})
	sortBackends()
}

func sortBackends() {
	sort.SliceStable(backends, func(i, j int) bool {
		return backends[i].Priority > backends[j].Priority
	})
}

// Backends lists the registered backends, best first.
func Backends() []BackendInfo {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	out := make([]BackendInfo, len(backends))
	for i, b := range backends {
		out[i] = b.BackendInfo
	}

	return out
}

func lookupBackend(kind BackendKind) (backendEntry, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	if len(backends) == 0 {
		return backendEntry{}, fmt.Errorf("%w: none registered", ErrUnknownBackend)
	}

	if kind == BackendAuto {
		return backends[0], nil
	}

	for _, b := range backends {
		if b.Kind == kind {
			return b, nil
		}
	}

	return backendEntry{}, fmt.Errorf("%w: %s", ErrUnknownBackend, kind)
}

// SIMDLevel reports the vector extension the kernels can use on this CPU.
func SIMDLevel() cpu.SIMDLevel {
	f := cpu.DetectFeatures()

	switch {
	case f.ForceGeneric:
		return cpu.SIMDNone
	case f.HasAVX2:
		return cpu.SIMDAVX2
	case f.HasAVX:
		return cpu.SIMDAVX
	case f.HasSSE2:
		return cpu.SIMDSSE2
	case f.HasNEON:
		return cpu.SIMDNEON
	default:
		return cpu.SIMDNone
	}
}

func logSelection(cfg Config, kind BackendKind) {
	logrus.WithFields(logrus.Fields{
		"backend": kind.String(),
		"quality": cfg.Quality.String(),
		"in":      cfg.InputRate,
		"out":     cfg.OutputRate,
		"chans":   cfg.Channels,
		"simd":    SIMDLevel().String(),
		"arch":    cpu.DetectFeatures().Architecture,
	}).Debug("resampler created")
}
