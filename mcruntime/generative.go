// generative.go implements the iterative diffusion-style engine.
package mcruntime

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
)

// Phase is the observable execution phase of a GenerativeEngine run.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhasePreprocessing
	PhaseConditioning
	PhaseSampling
	PhasePostprocessing
	PhaseDone
	PhaseFailed
)

// String returns the string representation of a phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreprocessing:
		return "preprocessing"
	case PhaseConditioning:
		return "conditioning"
	case PhaseSampling:
		return "sampling"
	case PhasePostprocessing:
		return "postprocessing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenerativeEngine is the iterative variant. A run advances through
// preprocessing, conditioning, N sampling steps, and postprocessing.
// The current phase and step are observable from other goroutines.
//
// With a fixed non-negative seed the output is deterministic for a given
// backend and precision. Seed < 0 draws a RandomSeed per run.
type GenerativeEngine struct {
	phase int32 // atomic Phase
	step  int32 // atomic current sampling step (1-based)
}

// NewGenerativeEngine creates an idle generative engine.
func NewGenerativeEngine() *GenerativeEngine {
	return &GenerativeEngine{}
}

// Tag implements Engine.
func (e *GenerativeEngine) Tag() EngineTag { return EngineGenerative }

// Phase returns the phase of the current (or last) run.
func (e *GenerativeEngine) Phase() Phase {
	return Phase(atomic.LoadInt32(&e.phase))
}

// CurrentStep returns the 1-based sampling step of the current run,
// or 0 outside the sampling phase.
func (e *GenerativeEngine) CurrentStep() int {
	return int(atomic.LoadInt32(&e.step))
}

func (e *GenerativeEngine) setPhase(p Phase) {
	atomic.StoreInt32(&e.phase, int32(p))
}

// Run implements Engine. Cancellation is honored between sampling steps;
// a cancelled run reports the context error, not an engine error.
func (e *GenerativeEngine) Run(ctx context.Context, h *Handle, img *image.RGBA, lineArt *image.Gray, p Params) (*image.RGBA, error) {
	out, err := e.run(ctx, h, img, lineArt, p)
	if err != nil {
		e.setPhase(PhaseFailed)
		return nil, err
	}
	e.setPhase(PhaseDone)
	return out, nil
}

func (e *GenerativeEngine) run(ctx context.Context, h *Handle, img *image.RGBA, lineArt *image.Gray, p Params) (*image.RGBA, error) {
	e.setPhase(PhasePreprocessing)
	atomic.StoreInt32(&e.step, 0)

	if err := checkRunInputs(h, img, lineArt); err != nil {
		return nil, err
	}
	if err := ValidateParams(p); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := p.Seed
	if seed < 0 {
		seed = RandomSeed()
	}

	e.setPhase(PhaseConditioning)
	state, err := beginSampleImpl(h.Context(), img, lineArt, p, seed)
	if err != nil {
		return nil, fmt.Errorf("conditioning: %w", err)
	}

	e.setPhase(PhaseSampling)
	for step := 1; step <= p.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		atomic.StoreInt32(&e.step, int32(step))
		if err := sampleStepImpl(h.Context(), state, step); err != nil {
			return nil, fmt.Errorf("sampling step %d: %w", step, err)
		}
	}

	e.setPhase(PhasePostprocessing)
	out, err := decodeSampleImpl(h.Context(), state)
	if err != nil {
		return nil, fmt.Errorf("postprocessing: %w", err)
	}
	return out, nil
}
