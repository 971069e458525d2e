package core

import (
	"os"
	"path/filepath"
)

// Config holds all configuration values for the colorizer backend.
// Values are read from environment variables (typically via a .env file)
// with sensible defaults for local use.
type Config struct {
	// Directories
	OutputDir string // Where colorized pages are written
	ModelsDir string // Where model weights are stored
	TempDir   string // Scratch space for archive extraction
	DataDir   string // Application data (job history database)

	// Model registry
	RegistryPath string // Optional models.yaml path; empty = built-in registry

	// Device
	DeviceOverride string // Force a compute backend ("cuda", "rocm", "cpu"); empty = auto

	// Colorization defaults (per-request values override these)
	Engine       string  // "fast" or "generative"
	MaxSide      int     // Working resolution cap, multiple of 8
	InkThreshold int     // Luminance at or below which original pixels are kept (0-255)
	Steps        int     // Sampling steps for the generative engine
	Guidance     float64 // Classifier-free guidance scale
	Strength     float64 // Denoise strength
	ProtectText  bool    // Enable text region detection

	// Batch
	SaveComparison bool // Also write a side-by-side comparison sheet

	// Weight downloads
	MaxRetries int // Download retry attempts
}

// Default configuration values. The colorization defaults come from tuning
// against ink-on-white page scans.
const (
	DefaultOutputDir    = "output"
	DefaultModelsDir    = "models"
	DefaultEngine       = "generative"
	DefaultMaxSide      = 1024
	DefaultInkThreshold = 110
	DefaultSteps        = 25
	DefaultGuidance     = 7.0
	DefaultStrength     = 0.45
	DefaultMaxRetries   = 3
)

// LoadConfig reads configuration from environment variables.
// Returns a ConfigError describing the first invalid value encountered.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		OutputDir:      GetEnvOrDefault("COLORIZER_OUTPUT_DIR", DefaultOutputDir),
		ModelsDir:      GetEnvOrDefault("COLORIZER_MODELS_DIR", DefaultModelsDir),
		TempDir:        GetEnvOrDefault("COLORIZER_TEMP_DIR", filepath.Join(os.TempDir(), "colorizer")),
		DataDir:        GetEnvOrDefault("COLORIZER_DATA_DIR", GetDataDirectory()),
		RegistryPath:   os.Getenv("COLORIZER_MODEL_REGISTRY"),
		DeviceOverride: os.Getenv("COLORIZER_DEVICE"),
		Engine:         GetEnvOrDefault("COLORIZER_ENGINE", DefaultEngine),
		MaxSide:        ParseIntEnv("COLORIZER_MAX_SIDE", DefaultMaxSide),
		InkThreshold:   ParseIntEnv("COLORIZER_INK_THRESHOLD", DefaultInkThreshold),
		Steps:          ParseIntEnv("COLORIZER_STEPS", DefaultSteps),
		Guidance:       ParseFloat64Env("COLORIZER_GUIDANCE", DefaultGuidance),
		Strength:       ParseFloat64Env("COLORIZER_STRENGTH", DefaultStrength),
		ProtectText:    ParseBoolEnv("COLORIZER_PROTECT_TEXT", true),
		SaveComparison: ParseBoolEnv("COLORIZER_SAVE_COMPARISON", false),
		MaxRetries:     ParseIntEnv("COLORIZER_DOWNLOAD_RETRIES", DefaultMaxRetries),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration values for internal consistency.
func (c *Config) Validate() error {
	switch c.Engine {
	case "fast", "generative":
	default:
		return ErrInvalidParam("COLORIZER_ENGINE", c.Engine, `must be "fast" or "generative"`)
	}
	if c.MaxSide < 8 || c.MaxSide%8 != 0 {
		return ErrInvalidParam("COLORIZER_MAX_SIDE", c.MaxSide, "must be a positive multiple of 8")
	}
	if c.InkThreshold < 0 || c.InkThreshold > 255 {
		return ErrInvalidParam("COLORIZER_INK_THRESHOLD", c.InkThreshold, "must be between 0 and 255")
	}
	if c.Steps < 1 || c.Steps > 100 {
		return ErrInvalidParam("COLORIZER_STEPS", c.Steps, "must be between 1 and 100")
	}
	if c.Guidance < 1.0 || c.Guidance > 30.0 {
		return ErrInvalidParam("COLORIZER_GUIDANCE", c.Guidance, "must be between 1.0 and 30.0")
	}
	if c.Strength < 0.0 || c.Strength > 1.0 {
		return ErrInvalidParam("COLORIZER_STRENGTH", c.Strength, "must be between 0.0 and 1.0")
	}
	if c.RegistryPath != "" {
		if _, err := os.Stat(c.RegistryPath); err != nil {
			return ErrRegistryMissing(c.RegistryPath)
		}
	}
	return nil
}

// EnsureDirectories creates the output, models, temp, and data directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return ErrInvalidOutputDir(c.OutputDir, err.Error())
	}
	if err := os.MkdirAll(c.ModelsDir, 0755); err != nil {
		return ErrInvalidModelsDir(c.ModelsDir, err.Error())
	}
	if err := os.MkdirAll(c.TempDir, 0755); err != nil {
		return ErrInvalidOutputDir(c.TempDir, err.Error())
	}
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return ErrInvalidOutputDir(c.DataDir, err.Error())
	}
	return nil
}
