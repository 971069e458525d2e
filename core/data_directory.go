package core

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the application name used in data directory paths.
const AppName = "MangaColorizer"

// GetDataDirectory returns the platform-specific data directory path for the
// application. This is a pure function based on runtime.GOOS and environment
// variables.
//
// Paths by platform:
//   - Windows: %APPDATA%/MangaColorizer
//   - Linux/macOS: ~/.mangacolorizer
//
// Does NOT create the directory - callers should use EnsureDataDirectory for that.
func GetDataDirectory() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return AppName
			}
			return filepath.Join(home, "AppData", "Roaming", AppName)
		}
		return filepath.Join(appData, AppName)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory if home cannot be determined
			return ".mangacolorizer"
		}
		return filepath.Join(home, ".mangacolorizer")
	}
}

// GetDataFilePath returns the full path for a file within the data directory.
// Example: GetDataFilePath("jobs.db") -> "/home/user/.mangacolorizer/jobs.db"
func GetDataFilePath(filename string) string {
	return filepath.Join(GetDataDirectory(), filename)
}

// EnsureDataDirectory creates the data directory if it doesn't exist.
// Returns the directory path and any error encountered.
func EnsureDataDirectory() (string, error) {
	dir := GetDataDirectory()
	err := os.MkdirAll(dir, 0700) // owner-only: the job database lives here
	if err != nil {
		return "", err
	}
	return dir, nil
}
