package mcruntime

import "fmt"

// EngineTag selects a colorization engine variant.
type EngineTag string

const (
	// EngineFast is the single-pass feed-forward variant.
	EngineFast EngineTag = "fast"
	// EngineGenerative is the iterative diffusion-style variant.
	EngineGenerative EngineTag = "generative"
)

// Params holds parameters for one colorization run.
type Params struct {
	Prompt         string    // Style guidance for the generative engine
	NegativePrompt string    // What to avoid in the generated colors
	Strength       float64   // How far to depart from the source (0.3-0.5)
	GuidanceScale  float64   // Prompt adherence (7.0-9.0)
	Steps          int       // Sampling steps for the generative engine (20-30)
	Seed           int64     // Sampling seed; negative means pick one at random
	ProtectText    bool      // Detect text regions and keep them unmodified
	InkThreshold   int       // Luminance at or below which a pixel is ink (0-255)
	MaxSide        int       // Working resolution cap (multiple of 8)
	Engine         EngineTag // Engine variant to run
}

// Parameter validation constants.
const (
	MinStrength = 0.3
	MaxStrength = 0.5

	MinGuidanceScale = 7.0
	MaxGuidanceScale = 9.0

	MinSteps = 20
	MaxSteps = 30

	MinInkThreshold = 0
	MaxInkThreshold = 255

	MinMaxSide      = 256
	MaxMaxSide      = 2048
	SizeGranularity = 8 // Working dimensions must be divisible by this
	MaxPromptLength = 1000
)

// Default parameter values.
const (
	DefaultSteps         = 25
	DefaultGuidanceScale = 7.0
	DefaultStrength      = 0.45
	DefaultInkThreshold  = 110
	DefaultMaxSide       = 1024

	DefaultPrompt = "vibrant anime colors, clean cel shading, consistent palette, " +
		"high quality manga colorization"
	DefaultNegativePrompt = "monochrome, greyscale, washed out, blurry, artifacts, " +
		"color bleeding over linework"
)

// DefaultParams returns the default colorization parameters.
func DefaultParams() Params {
	return Params{
		Prompt:         DefaultPrompt,
		NegativePrompt: DefaultNegativePrompt,
		Strength:       DefaultStrength,
		GuidanceScale:  DefaultGuidanceScale,
		Steps:          DefaultSteps,
		Seed:           -1,
		ProtectText:    true,
		InkThreshold:   DefaultInkThreshold,
		MaxSide:        DefaultMaxSide,
		Engine:         EngineGenerative,
	}
}

// ValidateParams validates colorization parameters.
// This is a pure function with no side effects.
func ValidateParams(p Params) error {
	if p.Engine != EngineFast && p.Engine != EngineGenerative {
		return fmt.Errorf("%w: engine %q must be %q or %q",
			ErrInvalidParams, p.Engine, EngineFast, EngineGenerative)
	}

	if len(p.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d",
			ErrInvalidPrompt, len(p.Prompt), MaxPromptLength)
	}
	if len(p.NegativePrompt) > MaxPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidPrompt, len(p.NegativePrompt), MaxPromptLength)
	}

	if p.Strength < MinStrength || p.Strength > MaxStrength {
		return fmt.Errorf("%w: strength %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.Strength, MinStrength, MaxStrength)
	}

	if p.GuidanceScale < MinGuidanceScale || p.GuidanceScale > MaxGuidanceScale {
		return fmt.Errorf("%w: guidance scale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.GuidanceScale, MinGuidanceScale, MaxGuidanceScale)
	}

	if p.Steps < MinSteps || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d must be between %d and %d",
			ErrInvalidParams, p.Steps, MinSteps, MaxSteps)
	}

	if p.InkThreshold < MinInkThreshold || p.InkThreshold > MaxInkThreshold {
		return fmt.Errorf("%w: ink threshold %d must be between %d and %d",
			ErrInvalidParams, p.InkThreshold, MinInkThreshold, MaxInkThreshold)
	}

	if p.MaxSide < MinMaxSide || p.MaxSide > MaxMaxSide {
		return fmt.Errorf("%w: max side %d must be between %d and %d",
			ErrInvalidParams, p.MaxSide, MinMaxSide, MaxMaxSide)
	}
	if p.MaxSide%SizeGranularity != 0 {
		return fmt.Errorf("%w: max side %d must be divisible by %d",
			ErrInvalidParams, p.MaxSide, SizeGranularity)
	}

	return nil
}
