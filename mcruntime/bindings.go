// CGo bindings for the native colorization runtime (libmangacolor).
//
// This file contains the public wrapper functions. When the native library
// is not available, the default build uses pure-Go implementations from
// bindings_stub.go.
//
// Example build with the real library:
//
//	CGO_CFLAGS="-I/path/to/mangacolor" \
//	CGO_LDFLAGS="-L/path/to/mangacolor/build -lmangacolor" \
//	go build -tags native
//
// Example build without the library (default):
//
//	go build
package mcruntime

import "image"

// ModelContext represents an opaque handle to a loaded model.
// In the native implementation, this wraps a C pointer to mc_ctx_t.
// The stub implementation uses an internal ID for tracking.
type ModelContext struct {
	// id is used for stub implementation tracking
	id uint64
	// weightPath stores the weight file used to load this context
	weightPath string
	// valid indicates if this context is usable
	valid bool
}

// IsValid returns whether this context is valid and usable.
func (c *ModelContext) IsValid() bool {
	if c == nil {
		return false
	}
	return c.valid
}

// WeightPath returns the weight file used to create this context.
func (c *ModelContext) WeightPath() string {
	if c == nil {
		return ""
	}
	return c.weightPath
}

// sampleState is the opaque per-run state of the generative sampler.
// It is created by beginSampleImpl and consumed by decodeSampleImpl.
type sampleState struct {
	width, height int
	seed          int64
	strength      float64
	guidance      float64
	totalSteps    int
	tintA, tintB  float64
	luma          []float64
	chromaA       []float64
	chromaB       []float64
}

// LoadModel loads model weights and returns a context for execution.
// The weightPath should point to a valid weight file on disk.
//
// Error modes:
//   - ErrModelNotFound when weightPath does not exist
//   - ErrModelLoadFailed when the runtime fails to load the weights
//   - ErrModelCorrupted when the weight file is invalid
//
// The returned ModelContext must be freed with FreeContext.
func LoadModel(weightPath string) (*ModelContext, error) {
	return loadModelImpl(weightPath)
}

// FreeContext releases resources associated with a ModelContext.
// Calling FreeContext on a nil or already-freed context is safe (no-op).
func FreeContext(ctx *ModelContext) {
	freeContextImpl(ctx)
}

// ExtractLineArt runs the structural extraction model over a grayscale page
// and returns the line art map at the same dimensions.
func ExtractLineArt(ctx *ModelContext, src *image.Gray) (*image.Gray, error) {
	if ctx == nil || !ctx.valid {
		return nil, ErrModelLoadFailed
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrInvalidParams
	}
	return lineArtImpl(ctx, src)
}

// BackendInfo returns a human-readable description of the linked runtime.
func BackendInfo() string {
	return backendInfoImpl()
}
