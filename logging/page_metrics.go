package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// PageMetrics represents metrics collected while colorizing a single page.
// Implements zapcore.ObjectMarshaler for structured logging.
//
// This is a pure data structure with no dependencies on other logging atoms.
//
// Example:
//
//	metrics := PageMetrics{
//		Page:          "page_012.png",
//		Engine:        "generative",
//		Device:        "cuda",
//		Steps:         25,
//		WorkingWidth:  768,
//		WorkingHeight: 1024,
//		LineArt:       120 * time.Millisecond,
//		TextMask:      45 * time.Millisecond,
//		Transform:     8 * time.Second,
//		Compose:       30 * time.Millisecond,
//		Total:         8300 * time.Millisecond,
//	}
//	logger.Info("page colorized", zap.Object("page_metrics", metrics))
type PageMetrics struct {
	// Page is the source file name of the processed page
	Page string `json:"page"`

	// Engine is the engine variant used ("fast" or "generative")
	Engine string `json:"engine"`

	// Device is the compute backend the transform ran on
	Device string `json:"device"`

	// Steps is the number of sampling steps (0 for the fast engine)
	Steps int `json:"steps"`

	// WorkingWidth and WorkingHeight are the working resolution
	WorkingWidth  int `json:"working_width"`
	WorkingHeight int `json:"working_height"`

	// LineArt is the time spent extracting the structural map
	LineArt time.Duration `json:"lineart"`

	// TextMask is the time spent detecting text regions
	TextMask time.Duration `json:"text_mask"`

	// Transform is the time spent inside the engine run
	Transform time.Duration `json:"transform"`

	// Compose is the time spent compositing the final image
	Compose time.Duration `json:"compose"`

	// Total is the wall-clock time for the whole page
	Total time.Duration `json:"total"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler for structured logging.
// Durations are encoded in milliseconds for readability.
func (m PageMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("page", m.Page)
	enc.AddString("engine", m.Engine)
	enc.AddString("device", m.Device)
	enc.AddInt("steps", m.Steps)
	enc.AddInt("working_width", m.WorkingWidth)
	enc.AddInt("working_height", m.WorkingHeight)
	enc.AddInt64("lineart_ms", m.LineArt.Milliseconds())
	enc.AddInt64("text_mask_ms", m.TextMask.Milliseconds())
	enc.AddInt64("transform_ms", m.Transform.Milliseconds())
	enc.AddInt64("compose_ms", m.Compose.Milliseconds())
	enc.AddInt64("total_ms", m.Total.Milliseconds())
	return nil
}
