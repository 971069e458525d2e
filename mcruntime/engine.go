// engine.go defines the Engine interface and the variant selector.
package mcruntime

import (
	"context"
	"fmt"
	"image"
)

// Engine runs one colorization over a prepared page and its line art map.
// Both inputs must already be at the working resolution; the output has the
// same dimensions.
type Engine interface {
	// Tag returns the engine variant identifier.
	Tag() EngineTag

	// Run executes the colorization. The model handle must be acquired from
	// a ModelManager and the call must happen inside WithRunLock.
	Run(ctx context.Context, h *Handle, img *image.RGBA, lineArt *image.Gray, p Params) (*image.RGBA, error)
}

// NewEngine returns the engine for an explicit variant tag.
// Selection is an explicit switch, never reflection.
func NewEngine(tag EngineTag) (Engine, error) {
	switch tag {
	case EngineFast:
		return NewFastEngine(), nil
	case EngineGenerative:
		return NewGenerativeEngine(), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalidParams, tag)
	}
}

// checkRunInputs validates the shared preconditions of both engines.
func checkRunInputs(h *Handle, img *image.RGBA, lineArt *image.Gray) error {
	if h == nil || !h.Context().IsValid() {
		return fmt.Errorf("%w: model handle is nil or invalid", ErrEngineExecution)
	}
	if img == nil || lineArt == nil {
		return fmt.Errorf("%w: nil input image", ErrInvalidParams)
	}
	ib, lb := img.Bounds(), lineArt.Bounds()
	if ib.Dx() != lb.Dx() || ib.Dy() != lb.Dy() {
		return fmt.Errorf("%w: page %dx%d vs line art %dx%d",
			ErrDimensionMismatch, ib.Dx(), ib.Dy(), lb.Dx(), lb.Dy())
	}
	if ib.Empty() {
		return fmt.Errorf("%w: empty input image", ErrInvalidParams)
	}
	return nil
}
