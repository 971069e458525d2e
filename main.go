package main

import (
	"fmt"
	"os"

	"colorizer_backend/core"
	"colorizer_backend/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Determine if running in development mode
	isDevelopment := os.Getenv("DEV_MODE") == "true"

	// Initialize structured logger early
	logger, err := logging.NewLogger(isDevelopment, "colorizer.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Printf("Failed to sync logger: %v\n", syncErr)
		}
	}()

	// Service management commands (install/uninstall/start/stop/...)
	if HandleServiceCommand(os.Args) {
		return
	}

	// Load configuration
	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}

	logger.Info("Configuration loaded",
		zap.String("output_dir", config.OutputDir),
		zap.String("models_dir", config.ModelsDir),
		zap.String("data_dir", config.DataDir),
		zap.String("engine", config.Engine),
		zap.Int("max_side", config.MaxSide),
		zap.Int("ink_threshold", config.InkThreshold),
		zap.Bool("protect_text", config.ProtectText),
		zap.Bool("dev_mode", isDevelopment),
	)

	// Run startup validation before heavy operations
	exitCode := runStartupValidation(config, logger)
	if exitCode != core.ExitCodeSuccess {
		os.Exit(exitCode)
	}

	// When launched by the service manager, block inside the service runtime.
	if ran, svcErr := RunAsService(); ran {
		if svcErr != nil {
			logger.Error("Service run failed", zap.Error(svcErr))
			os.Exit(core.ExitCodeError)
		}
		return
	}

	app := newApp(config, logger)
	code := app.Run(os.Args[1:])
	if code != core.ExitCodeSuccess {
		logger.Info("Exiting",
			zap.Int("code", code),
			zap.String("reason", core.ExitCodeName(code)),
			zap.Bool("signal", core.IsSignalExit(code)),
		)
		logger.Sync()
		os.Exit(code)
	}
}
