// Package device resolves the compute backend for model execution.
// Resolution probes hardware in a fixed preference order (CUDA, ROCm, CPU)
// and pins the result for the lifetime of the process.
package device

import (
	"fmt"
)

// Backend identifies a compute backend for model execution.
type Backend string

const (
	BackendCUDA Backend = "cuda"
	BackendROCm Backend = "rocm"
	BackendCPU  Backend = "cpu"
)

// Precision identifies the floating point precision used on a backend.
type Precision string

const (
	PrecisionFloat16 Precision = "float16"
	PrecisionFloat32 Precision = "float32"
)

// Selection is the resolved compute backend and its precision.
// GPU backends run half precision; the CPU fallback runs full precision.
type Selection struct {
	Backend   Backend
	Precision Precision
}

// String returns a human-readable form like "cuda/float16".
func (s Selection) String() string {
	return fmt.Sprintf("%s/%s", s.Backend, s.Precision)
}

// IsGPU reports whether the selection is a GPU backend.
func (s Selection) IsGPU() bool {
	return s.Backend == BackendCUDA || s.Backend == BackendROCm
}

// UnavailableError records why a probed backend could not be used.
// It never escapes Resolve; the resolver moves down the chain instead.
type UnavailableError struct {
	Backend Backend
	Reason  string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device: %s unavailable: %s: %v", e.Backend, e.Reason, e.Err)
	}
	return fmt.Sprintf("device: %s unavailable: %s", e.Backend, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// precisionFor returns the precision used on the given backend.
func precisionFor(b Backend) Precision {
	if b == BackendCPU {
		return PrecisionFloat32
	}
	return PrecisionFloat16
}
