package shutdown

import (
	"context"
	"os"
	"path/filepath"

	"colorizer_backend/core"

	"go.uber.org/zap"
)

// workDirPattern matches the staging directories and files the pipeline
// creates under the temp directory (archive extraction, partial downloads).
const workDirPattern = "colorizer-*"

// CleanupWorkFiles returns a shutdown function that removes leftover staging
// entries from the temp directory. Entries match the "colorizer-*" pattern.
//
// Priority recommendation: 40+ (final cleanup, after services stopped)
//
// The cleanup function removes matching entries, logs each removal, keeps
// going when individual removals fail, and returns nil so shutdown is never
// blocked on cleanup.
//
// Usage:
//
//	manager.Register("cleanup-temp", 45, shutdown.CleanupWorkFiles(logger, cfg.TempDir))
func CleanupWorkFiles(logger *zap.Logger, tempDir string) core.ShutdownFunc {
	return func(ctx context.Context) error {
		return cleanupStagingEntries(ctx, logger, tempDir)
	}
}

// CleanupWorkFilesAndDir returns a shutdown function that removes all staging
// entries AND the temp directory itself. Use this when the temp directory is
// purely transient and should not persist between runs.
//
// Priority recommendation: 45+ (very final cleanup)
func CleanupWorkFilesAndDir(logger *zap.Logger, tempDir string) core.ShutdownFunc {
	return func(ctx context.Context) error {
		if err := cleanupStagingEntries(ctx, logger, tempDir); err != nil {
			logger.Warn("Error during staging cleanup, continuing with directory removal",
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			logger.Warn("Shutdown context cancelled, skipping directory removal")
			return nil
		default:
		}

		return removeTempDir(logger, tempDir)
	}
}

// cleanupStagingEntries removes entries matching workDirPattern in tempDir.
// It returns nil even if some entries fail to delete (errors are logged).
func cleanupStagingEntries(ctx context.Context, logger *zap.Logger, tempDir string) error {
	logger.Debug("Starting staging cleanup",
		zap.String("directory", tempDir),
	)

	pattern := filepath.Join(tempDir, workDirPattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		logger.Error("Failed to list staging entries",
			zap.String("pattern", pattern),
			zap.Error(err),
		)
		return nil
	}

	if len(matches) == 0 {
		logger.Debug("No staging entries to clean up")
		return nil
	}

	logger.Info("Cleaning up staging entries",
		zap.Int("entry_count", len(matches)),
	)

	var removedCount int
	var failedCount int

	for _, match := range matches {
		select {
		case <-ctx.Done():
			logger.Warn("Shutdown context cancelled during cleanup",
				zap.Int("removed", removedCount),
				zap.Int("remaining", len(matches)-removedCount-failedCount),
			)
			return nil
		default:
		}

		// Staging entries can be extraction directories, not just files.
		if err := os.RemoveAll(match); err != nil {
			failedCount++
			logger.Warn("Failed to remove staging entry",
				zap.String("entry", filepath.Base(match)),
				zap.Error(err),
			)
		} else {
			removedCount++
			logger.Debug("Removed staging entry",
				zap.String("entry", filepath.Base(match)),
			)
		}
	}

	logger.Info("Staging cleanup complete",
		zap.Int("removed", removedCount),
		zap.Int("failed", failedCount),
	)

	return nil
}

// removeTempDir removes the temp directory and all its contents.
// It returns nil if the directory doesn't exist.
func removeTempDir(logger *zap.Logger, tempDir string) error {
	info, err := os.Stat(tempDir)
	if os.IsNotExist(err) {
		logger.Debug("Temp directory does not exist, nothing to remove",
			zap.String("directory", tempDir),
		)
		return nil
	}
	if err != nil {
		logger.Error("Failed to stat temp directory",
			zap.String("directory", tempDir),
			zap.Error(err),
		)
		return nil
	}

	if !info.IsDir() {
		logger.Warn("Temp path is not a directory",
			zap.String("path", tempDir),
		)
		return nil
	}

	if err := os.RemoveAll(tempDir); err != nil {
		logger.Error("Failed to remove temp directory",
			zap.String("directory", tempDir),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("Removed temp directory",
		zap.String("directory", tempDir),
	)

	return nil
}
