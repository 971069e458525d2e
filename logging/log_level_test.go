package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevelString(t *testing.T) {
	tests := []struct {
		name         string
		levelStr     string
		defaultLevel zapcore.Level
		want         zapcore.Level
	}{
		{"debug lowercase", "debug", zapcore.InfoLevel, zapcore.DebugLevel},
		{"info uppercase", "INFO", zapcore.DebugLevel, zapcore.InfoLevel},
		{"warn mixed case", "Warn", zapcore.InfoLevel, zapcore.WarnLevel},
		{"warning spelling", "warning", zapcore.InfoLevel, zapcore.WarnLevel},
		{"error", "error", zapcore.InfoLevel, zapcore.ErrorLevel},
		{"fatal uppercase", "FATAL", zapcore.InfoLevel, zapcore.FatalLevel},
		{"unknown returns default", "verbose", zapcore.WarnLevel, zapcore.WarnLevel},
		{"empty returns default", "", zapcore.ErrorLevel, zapcore.ErrorLevel},
		{"whitespace trimmed", "  debug  ", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLogLevelString(tt.levelStr, tt.defaultLevel)
			if got != tt.want {
				t.Errorf("ParseLogLevelString(%q, %v) = %v, want %v",
					tt.levelStr, tt.defaultLevel, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	const envVar = "COLORIZER_TEST_LOG_LEVEL"

	t.Run("reads from environment variable", func(t *testing.T) {
		t.Setenv(envVar, "debug")
		if got := ParseLogLevel(envVar, zapcore.InfoLevel); got != zapcore.DebugLevel {
			t.Errorf("ParseLogLevel with env=debug got %v, want %v", got, zapcore.DebugLevel)
		}
	})

	t.Run("returns default when env var empty", func(t *testing.T) {
		t.Setenv(envVar, "")
		if got := ParseLogLevel(envVar, zapcore.WarnLevel); got != zapcore.WarnLevel {
			t.Errorf("ParseLogLevel with empty env got %v, want %v", got, zapcore.WarnLevel)
		}
	})

	t.Run("returns default when env var invalid", func(t *testing.T) {
		t.Setenv(envVar, "not-a-level")
		if got := ParseLogLevel(envVar, zapcore.ErrorLevel); got != zapcore.ErrorLevel {
			t.Errorf("ParseLogLevel with invalid env got %v, want %v", got, zapcore.ErrorLevel)
		}
	})
}
