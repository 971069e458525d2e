package device

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EnvDeviceOverride forces the resolved backend, bypassing probing.
// Accepted values: "cuda", "rocm", "cpu".
const EnvDeviceOverride = "COLORIZER_DEVICE"

// Resolver probes the available compute backends and pins the result.
// The first call to Resolve walks the prober chain; every later call
// returns the same Selection without re-probing.
//
// This organism composes:
//   - Prober implementations (CUDA, ROCm, CPU atoms)
//   - Selection for the pinned result
type Resolver struct {
	probers []Prober
	logger  *zap.Logger

	once      sync.Once
	selection Selection
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProbers replaces the default prober chain. Order is preference order.
func WithProbers(probers ...Prober) ResolverOption {
	return func(r *Resolver) {
		r.probers = probers
	}
}

// WithLogger attaches a logger for probe outcome reporting.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver with the default chain: CUDA, ROCm, CPU.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		probers: []Prober{&CUDAProber{}, &ROCmProber{}, &CPUProber{}},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Resolve returns the pinned backend selection, probing on first call.
// Resolution never fails: the CPU fallback always succeeds. An override
// via COLORIZER_DEVICE skips probing entirely.
func (r *Resolver) Resolve(ctx context.Context) Selection {
	r.once.Do(func() {
		r.selection = r.resolve(ctx)
		r.logger.Info("compute backend resolved",
			zap.String("backend", string(r.selection.Backend)),
			zap.String("precision", string(r.selection.Precision)))
	})
	return r.selection
}

func (r *Resolver) resolve(ctx context.Context) Selection {
	if override, ok := parseOverride(os.Getenv(EnvDeviceOverride)); ok {
		r.logger.Info("compute backend forced by environment",
			zap.String("backend", string(override)))
		return Selection{Backend: override, Precision: precisionFor(override)}
	}

	for _, p := range r.probers {
		err := p.Probe(ctx)
		if err == nil {
			return Selection{Backend: p.Backend(), Precision: precisionFor(p.Backend())}
		}
		r.logger.Debug("backend probe failed",
			zap.String("backend", string(p.Backend())),
			zap.Error(err))
	}

	// Unreachable with the default chain; kept for custom prober sets.
	return Selection{Backend: BackendCPU, Precision: PrecisionFloat32}
}

// parseOverride maps an override string to a backend.
func parseOverride(value string) (Backend, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "cuda":
		return BackendCUDA, true
	case "rocm":
		return BackendROCm, true
	case "cpu":
		return BackendCPU, true
	default:
		return "", false
	}
}
