// Package logging provides structured logging utilities for the colorizer backend.
// This file contains molecule-level helper functions that compose the PageMetrics
// atom into convenient zap.Field helpers for structured logging.
package logging

import (
	"go.uber.org/zap"
)

// PageFields creates a structured zap field from page colorization metrics.
//
// Example:
//
//	logger.Info("page colorized", logging.PageFields(metrics))
func PageFields(metrics PageMetrics) zap.Field {
	return zap.Object("page_metrics", metrics)
}

// JobFields creates a slice of zap fields describing batch job progress.
//
// Example:
//
//	logger.Info("item finished", logging.JobFields(job.ID, 3, 10)...)
func JobFields(jobID string, current, total int) []zap.Field {
	return []zap.Field{
		zap.String("job_id", jobID),
		zap.Int("current", current),
		zap.Int("total", total),
	}
}

// DeviceFields creates a slice of zap fields describing the resolved compute
// backend and precision.
func DeviceFields(backend, precision string) []zap.Field {
	return []zap.Field{
		zap.String("backend", backend),
		zap.String("precision", precision),
	}
}
