// fast.go implements the single-pass feed-forward engine.
package mcruntime

import (
	"context"
	"fmt"
	"image"
)

// FastEngine is the single-pass variant. It takes no prompt, guidance, or
// seed input; for a fixed input and weights the output bytes are identical
// on every run.
type FastEngine struct{}

// NewFastEngine creates a fast engine.
func NewFastEngine() *FastEngine {
	return &FastEngine{}
}

// Tag implements Engine.
func (e *FastEngine) Tag() EngineTag { return EngineFast }

// Run implements Engine.
func (e *FastEngine) Run(ctx context.Context, h *Handle, img *image.RGBA, lineArt *image.Gray, p Params) (*image.RGBA, error) {
	if err := checkRunInputs(h, img, lineArt); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := fastColorizeImpl(h.Context(), img, lineArt)
	if err != nil {
		return nil, fmt.Errorf("fast colorize: %w", err)
	}
	return out, nil
}
