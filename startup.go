package main

import (
	"fmt"
	"os"

	"colorizer_backend/core"
	"colorizer_backend/core/validation"
	"colorizer_backend/logging"

	"go.uber.org/zap"
)

// defaultMinModelsDiskSpace is the free space required under the models
// directory before startup proceeds. The generative weights alone are around
// 2 GB. COLORIZER_MIN_DISK_SPACE overrides it, e.g. "6GB".
const defaultMinModelsDiskSpace = 4 * core.BytesPerGB

// minModelsDiskSpace resolves the disk space floor, preferring the
// COLORIZER_MIN_DISK_SPACE override when it parses.
func minModelsDiskSpace() int64 {
	if raw := os.Getenv("COLORIZER_MIN_DISK_SPACE"); raw != "" {
		if parsed, err := core.ParseBytes(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultMinModelsDiskSpace
}

// runStartupValidation checks the environment before any heavy operation.
//
// Returns the appropriate exit code:
//   - ExitCodeSuccess (0) if all required checks pass
//   - ExitCodeError (1) if any required check fails
func runStartupValidation(config *core.Config, logger *logging.Logger) int {
	logger.Info("Starting startup validation...")

	suite := validation.NewSuite().
		WithShowProgress(true).
		Add("configuration", config.Validate).
		Add("directories", config.EnsureDirectories).
		Add("disk space", func() error {
			return validation.CheckDiskSpace(config.ModelsDir, minModelsDiskSpace())
		}).
		AddOptional(".env file", validation.CheckEnvFileExists).
		AddOptional("model weights", func() error {
			return checkWeightsPresent(config)
		})

	result := suite.Run()

	logger.Info("Startup validation finished",
		zap.Int("total", result.TotalSteps),
		zap.Int("passed", result.PassedSteps),
		zap.Int("failed", result.FailedSteps),
		zap.Int("warnings", result.Warnings),
		zap.Duration("duration", result.Duration),
	)

	if !result.Success {
		logger.Error("Startup validation failed")
		return core.ExitCodeError
	}
	return core.ExitCodeSuccess
}

// checkWeightsPresent reports whether every registered weight file exists.
// Missing weights are a warning at startup; the weights command fetches them.
func checkWeightsPresent(config *core.Config) error {
	wm, err := newWeightManager(config)
	if err != nil {
		return err
	}

	var missing []string
	for _, id := range wm.IDs() {
		path, pathErr := wm.WeightPath(id)
		if pathErr != nil {
			return pathErr
		}
		if _, statErr := os.Stat(path); statErr != nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing weights %v, run 'weights ensure' to download", missing)
	}
	return nil
}

// newWeightManager builds the weight manager from configuration, honoring an
// external registry file when one is configured.
func newWeightManager(config *core.Config) (*core.WeightManager, error) {
	opts := []core.WeightManagerOption{
		core.WithMaxRetries(config.MaxRetries),
	}
	if config.RegistryPath != "" {
		specs, err := core.LoadWeightRegistry(config.RegistryPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithWeights(specs))
	}
	return core.NewWeightManager(config.ModelsDir, nil, opts...), nil
}
