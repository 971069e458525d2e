// Package mcruntime provides colorization model execution.
package mcruntime

import "errors"

// Sentinel errors for model runtime operations.
// These are domain-specific errors that provide clear failure modes.
var (
	// Model-related errors
	ErrModelNotFound   = errors.New("mcruntime: model weights not found")
	ErrModelLoadFailed = errors.New("mcruntime: failed to load model")
	ErrModelCorrupted  = errors.New("mcruntime: model weights are corrupted or invalid")

	// Execution errors
	ErrEngineExecution = errors.New("mcruntime: engine execution failed")
	ErrOutOfVRAM       = errors.New("mcruntime: out of VRAM")

	// Input validation errors
	ErrInvalidParams     = errors.New("mcruntime: invalid colorization parameters")
	ErrDimensionMismatch = errors.New("mcruntime: page and line art dimensions differ")
	ErrInvalidPrompt     = errors.New("mcruntime: invalid prompt")

	// Manager errors
	ErrManagerClosed = errors.New("mcruntime: model manager is closed")
)
