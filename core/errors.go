package core

import (
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing   = "ENV_FILE_MISSING"
	ErrCodeInvalidOutputDir = "INVALID_OUTPUT_DIR"
	ErrCodeInvalidModelsDir = "INVALID_MODELS_DIR"
	ErrCodeInvalidParam     = "INVALID_PARAM"
	ErrCodeRegistryMissing  = "REGISTRY_MISSING"
	ErrCodeUnknownModel     = "UNKNOWN_MODEL"
)

// ErrEnvFileMissing returns an error for a missing .env file
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Copy example.env to .env and configure the required values",
	}
}

// ErrInvalidOutputDir returns an error for an unusable output directory
func ErrInvalidOutputDir(dir string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidOutputDir,
		Message: fmt.Sprintf("Output directory %q is not usable: %s", dir, reason),
		Action:  "Set COLORIZER_OUTPUT_DIR to a writable directory",
	}
}

// ErrInvalidModelsDir returns an error for an unusable models directory
func ErrInvalidModelsDir(dir string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidModelsDir,
		Message: fmt.Sprintf("Models directory %q is not usable: %s", dir, reason),
		Action:  "Set COLORIZER_MODELS_DIR to a writable directory with enough space for model weights",
	}
}

// ErrInvalidParam returns an error for an out-of-range configuration value
func ErrInvalidParam(name string, value interface{}, constraint string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidParam,
		Message: fmt.Sprintf("Invalid value %v for %s: %s", value, name, constraint),
		Action:  fmt.Sprintf("Set %s to a value satisfying: %s", name, constraint),
	}
}

// ErrRegistryMissing returns an error for a missing model registry file
func ErrRegistryMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeRegistryMissing,
		Message: fmt.Sprintf("Model registry not found: %s", path),
		Action:  "Provide a models.yaml registry or unset COLORIZER_MODEL_REGISTRY to use the built-in defaults",
	}
}

// ErrUnknownModel returns an error for a model id absent from the registry
func ErrUnknownModel(id string, known []string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownModel,
		Message: fmt.Sprintf("Unknown model id %q", id),
		Action:  fmt.Sprintf("Use one of the registered model ids: %v", known),
	}
}
