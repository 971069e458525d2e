package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for colorizer.log. Long batch runs over whole chapters
// produce steady per-page output, so the file rotates by size rather than
// by run.
const (
	// DefaultMaxSizeMB is the log size in megabytes before rotation
	DefaultMaxSizeMB = 100

	// DefaultMaxBackups is the number of rotated files to retain
	DefaultMaxBackups = 5

	// DefaultMaxAgeDays is how many days rotated files are kept
	DefaultMaxAgeDays = 30

	// DefaultCompress gzips rotated files
	DefaultCompress = true
)

// FileWriterConfig holds rotation settings for the log file writer.
// Zero-value fields fall back to the defaults above.
type FileWriterConfig struct {
	// MaxSizeMB is the log size in megabytes before rotation
	MaxSizeMB int

	// MaxBackups is the number of rotated files to retain
	MaxBackups int

	// MaxAgeDays is how many days rotated files are kept
	MaxAgeDays int

	// Compress gzips rotated files
	Compress bool

	// LocalTime names backups in local time instead of UTC
	LocalTime bool
}

// DefaultFileWriterConfig returns the standard rotation settings.
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
		LocalTime:  false,
	}
}

// NewFileWriter returns a zapcore.WriteSyncer that writes to path with
// automatic size-based rotation at the default settings.
//
// This is a molecule that composes lumberjack.Logger into a
// zapcore.WriteSyncer.
//
// Example:
//
//	writer := NewFileWriter("colorizer.log")
//	core := zapcore.NewCore(encoder, writer, level)
func NewFileWriter(path string) zapcore.WriteSyncer {
	return NewFileWriterWithConfig(path, DefaultFileWriterConfig())
}

// NewFileWriterWithConfig is NewFileWriter with explicit rotation settings.
// Zero-value fields are filled with the defaults.
//
// Example:
//
//	config := FileWriterConfig{
//	    MaxSizeMB:  50,
//	    MaxBackups: 3,
//	    MaxAgeDays: 7,
//	    Compress:   true,
//	}
//	writer := NewFileWriterWithConfig("colorizer.log", config)
func NewFileWriterWithConfig(path string, config FileWriterConfig) zapcore.WriteSyncer {
	cfg := applyFileWriterDefaults(config)

	logger := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}

	return zapcore.AddSync(logger)
}

// applyFileWriterDefaults fills zero values with defaults. Compress stays
// as given: a false bool cannot be told apart from unset, so callers that
// want compression start from DefaultFileWriterConfig.
func applyFileWriterDefaults(config FileWriterConfig) FileWriterConfig {
	result := config

	if result.MaxSizeMB == 0 {
		result.MaxSizeMB = DefaultMaxSizeMB
	}
	if result.MaxBackups == 0 {
		result.MaxBackups = DefaultMaxBackups
	}
	if result.MaxAgeDays == 0 {
		result.MaxAgeDays = DefaultMaxAgeDays
	}

	return result
}
