package core

import (
	"strings"
	"testing"
)

func TestConfigError_ErrorFormat(t *testing.T) {
	err := &ConfigError{
		Code:    "TEST_CODE",
		Message: "something broke",
		Action:  "do the thing",
	}
	got := err.Error()
	if !strings.Contains(got, "something broke") {
		t.Errorf("Expected message in error string, got %s", got)
	}
	if !strings.Contains(got, "do the thing") {
		t.Errorf("Expected action in error string, got %s", got)
	}
}

func TestConfigError_NoAction(t *testing.T) {
	err := &ConfigError{Code: "TEST_CODE", Message: "something broke"}
	if got := err.Error(); got != "something broke" {
		t.Errorf("Expected bare message, got %s", got)
	}
}

func TestErrEnvFileMissing(t *testing.T) {
	err := ErrEnvFileMissing(".env")
	if err.Code != ErrCodeEnvFileMissing {
		t.Errorf("Expected code %s, got %s", ErrCodeEnvFileMissing, err.Code)
	}
	if !strings.Contains(err.Message, ".env") {
		t.Errorf("Expected message to contain path, got %s", err.Message)
	}
}

func TestErrInvalidOutputDir(t *testing.T) {
	err := ErrInvalidOutputDir("/bad/dir", "permission denied")
	if err.Code != ErrCodeInvalidOutputDir {
		t.Errorf("Expected code %s, got %s", ErrCodeInvalidOutputDir, err.Code)
	}
	if !strings.Contains(err.Message, "/bad/dir") {
		t.Errorf("Expected message to contain directory, got %s", err.Message)
	}
	if !strings.Contains(err.Action, "COLORIZER_OUTPUT_DIR") {
		t.Errorf("Expected action to mention COLORIZER_OUTPUT_DIR, got %s", err.Action)
	}
}

func TestErrInvalidModelsDir(t *testing.T) {
	err := ErrInvalidModelsDir("/bad/models", "read-only filesystem")
	if err.Code != ErrCodeInvalidModelsDir {
		t.Errorf("Expected code %s, got %s", ErrCodeInvalidModelsDir, err.Code)
	}
	if !strings.Contains(err.Action, "COLORIZER_MODELS_DIR") {
		t.Errorf("Expected action to mention COLORIZER_MODELS_DIR, got %s", err.Action)
	}
}

func TestErrInvalidParam(t *testing.T) {
	err := ErrInvalidParam("COLORIZER_MAX_SIDE", 1000, "must be a positive multiple of 8")
	if err.Code != ErrCodeInvalidParam {
		t.Errorf("Expected code %s, got %s", ErrCodeInvalidParam, err.Code)
	}
	if !strings.Contains(err.Message, "COLORIZER_MAX_SIDE") {
		t.Errorf("Expected message to contain parameter name, got %s", err.Message)
	}
	if !strings.Contains(err.Message, "1000") {
		t.Errorf("Expected message to contain value, got %s", err.Message)
	}
	if !strings.Contains(err.Message, "multiple of 8") {
		t.Errorf("Expected message to contain constraint, got %s", err.Message)
	}
}

func TestErrRegistryMissing(t *testing.T) {
	err := ErrRegistryMissing("models.yaml")
	if err.Code != ErrCodeRegistryMissing {
		t.Errorf("Expected code %s, got %s", ErrCodeRegistryMissing, err.Code)
	}
	if !strings.Contains(err.Action, "COLORIZER_MODEL_REGISTRY") {
		t.Errorf("Expected action to mention COLORIZER_MODEL_REGISTRY, got %s", err.Action)
	}
}

func TestErrUnknownModel(t *testing.T) {
	err := ErrUnknownModel("bogus", []string{"lineart-extractor", "colorizer-fast"})
	if err.Code != ErrCodeUnknownModel {
		t.Errorf("Expected code %s, got %s", ErrCodeUnknownModel, err.Code)
	}
	if !strings.Contains(err.Message, "bogus") {
		t.Errorf("Expected message to contain the id, got %s", err.Message)
	}
	if !strings.Contains(err.Action, "lineart-extractor") {
		t.Errorf("Expected action to list known ids, got %s", err.Action)
	}
}
