//go:build native && cgo && !stub

// Native CGo implementation of the colorization runtime bindings.
// Build with: CGO_ENABLED=1 go build -tags native
//
// Prerequisites:
//   1. libmangacolor compiled as a shared library
//   2. Set CGO_CFLAGS to include the header path
//   3. Set CGO_LDFLAGS to link the library
//
// Example:
//   CGO_CFLAGS="-I${MANGACOLOR_PATH}" \
//   CGO_LDFLAGS="-L${MANGACOLOR_PATH}/build -lmangacolor -Wl,-rpath,${MANGACOLOR_PATH}/build" \
//   go build -tags native

package mcruntime

/*
#cgo CFLAGS: -I${SRCDIR}/../vendor/mangacolor
#cgo LDFLAGS: -L${SRCDIR}/../vendor/mangacolor/build -lmangacolor

// NOTE: The actual header include is commented out until the library is
// available. When libmangacolor is integrated, uncomment:
//
// #include <mangacolor.h>
// #include <stdlib.h>

#include <stdlib.h>
#include <stdint.h>

// Placeholder type definition - replace with the actual mangacolor.h type
typedef void* mc_ctx_t;

// Placeholder function declarations - replace with actual library functions.
// These are commented to prevent linker errors until the library is available:
//
// extern mc_ctx_t* mc_ctx_create(const char* weight_path, int n_threads);
// extern void mc_ctx_free(mc_ctx_t* ctx);
// extern uint8_t* mc_lineart(mc_ctx_t* ctx, const uint8_t* gray, int w, int h);
// extern void* mc_sample_begin(mc_ctx_t* ctx, const uint8_t* rgba, const uint8_t* lineart,
//                              int w, int h, float strength, float guidance,
//                              int steps, int64_t seed);
// extern int mc_sample_step(mc_ctx_t* ctx, void* state, int step);
// extern uint8_t* mc_sample_decode(mc_ctx_t* ctx, void* state, int* out_w, int* out_h);
// extern uint8_t* mc_fast_colorize(mc_ctx_t* ctx, const uint8_t* rgba, const uint8_t* lineart,
//                                  int w, int h);
// extern void mc_free_image(uint8_t* img);
// extern const char* mc_backend_info();
*/
import "C"

import (
	"fmt"
	"image"
	"os"
	"unsafe"
)

// cgoContext holds the C context pointer alongside Go metadata.
type cgoContext struct {
	cCtx *C.mc_ctx_t
}

// contextMap stores the mapping from ModelContext.id to cgoContext.
var contextMap = make(map[uint64]*cgoContext)

// loadModelImpl is the native implementation of LoadModel.
func loadModelImpl(weightPath string) (*ModelContext, error) {
	if _, err := os.Stat(weightPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, weightPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, weightPath, err)
	}

	cWeightPath := C.CString(weightPath)
	defer C.free(unsafe.Pointer(cWeightPath))

	// TODO: call C.mc_ctx_create once the library header lands and register
	// the context in contextMap.
	return nil, fmt.Errorf("%w: libmangacolor CGo bindings not yet implemented. "+
		"Header integration pending", ErrModelLoadFailed)
}

// freeContextImpl is the native implementation of FreeContext.
func freeContextImpl(ctx *ModelContext) {
	if ctx == nil {
		return
	}
	cgoCtx, ok := contextMap[ctx.id]
	if ok && cgoCtx != nil && cgoCtx.cCtx != nil {
		// TODO: call C.mc_ctx_free once the library header lands.
		delete(contextMap, ctx.id)
	}
	ctx.valid = false
}

// lineArtImpl is the native implementation of ExtractLineArt.
func lineArtImpl(ctx *ModelContext, src *image.Gray) (*image.Gray, error) {
	return nil, fmt.Errorf("%w: libmangacolor CGo bindings not yet implemented", ErrEngineExecution)
}

// beginSampleImpl is the native implementation of sampler initialization.
func beginSampleImpl(ctx *ModelContext, img *image.RGBA, lineArt *image.Gray, p Params, seed int64) (*sampleState, error) {
	return nil, fmt.Errorf("%w: libmangacolor CGo bindings not yet implemented", ErrEngineExecution)
}

// sampleStepImpl is the native implementation of one sampling step.
func sampleStepImpl(ctx *ModelContext, st *sampleState, step int) error {
	return fmt.Errorf("%w: libmangacolor CGo bindings not yet implemented", ErrEngineExecution)
}

// decodeSampleImpl is the native implementation of sample decoding.
func decodeSampleImpl(ctx *ModelContext, st *sampleState) (*image.RGBA, error) {
	return nil, fmt.Errorf("%w: libmangacolor CGo bindings not yet implemented", ErrEngineExecution)
}

// fastColorizeImpl is the native implementation of the fast transform.
func fastColorizeImpl(ctx *ModelContext, img *image.RGBA, lineArt *image.Gray) (*image.RGBA, error) {
	return nil, fmt.Errorf("%w: libmangacolor CGo bindings not yet implemented", ErrEngineExecution)
}

// backendInfoImpl returns backend info from the C library.
func backendInfoImpl() string {
	// TODO: call C.mc_backend_info once the library header lands.
	return "native (CGo bindings - library integration pending)"
}
