package validation

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"colorizer_backend/core"
)

// DiskSpaceInfo contains information about disk space.
type DiskSpaceInfo struct {
	// Path that was checked
	Path string
	// Total disk space in bytes
	Total int64
	// Free disk space in bytes
	Free int64
	// Used disk space in bytes
	Used int64
	// Human-readable total
	TotalFormatted string
	// Human-readable free
	FreeFormatted string
	// Human-readable used
	UsedFormatted string
	// Percentage used (0-100)
	UsedPercent float64
}

// DiskSpaceError indicates a disk space problem.
type DiskSpaceError struct {
	// Path that was checked
	Path string
	// Required space in bytes
	Required int64
	// Available space in bytes
	Available int64
	// Human-readable message
	Message string
}

func (e *DiskSpaceError) Error() string {
	return e.Message
}

// GetDiskSpace returns disk space information for the given path.
// The path can be a file or directory; the function checks the filesystem
// containing that path. Nonexistent paths fall back to the parent directory.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			parentPath := getParentPath(path)
			if parentPath != "" && parentPath != path {
				return GetDiskSpace(parentPath)
			}
		}
		return nil, fmt.Errorf("cannot check disk space for %q: %w", path, err)
	}

	total, free, err := getDiskSpace(path)
	if err != nil {
		return nil, fmt.Errorf("failed to query filesystem for %q: %w", path, err)
	}

	used := total - free
	var usedPercent float64
	if total > 0 {
		usedPercent = float64(used) / float64(total) * 100
	}

	return &DiskSpaceInfo{
		Path:           path,
		Total:          total,
		Free:           free,
		Used:           used,
		TotalFormatted: core.FormatBytes(total),
		FreeFormatted:  core.FormatBytes(free),
		UsedFormatted:  core.FormatBytes(used),
		UsedPercent:    usedPercent,
	}, nil
}

// CheckDiskSpace verifies at least requiredBytes are free at path.
func CheckDiskSpace(path string, requiredBytes int64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return err
	}

	if info.Free < requiredBytes {
		return &DiskSpaceError{
			Path:      path,
			Required:  requiredBytes,
			Available: info.Free,
			Message: fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
				path, core.FormatBytes(requiredBytes), info.FreeFormatted),
		}
	}

	return nil
}

// DefaultBufferPercent is the buffer percentage added for temporary files
// during weight downloads and archive extraction.
const DefaultBufferPercent = 10

// CheckDiskSpaceForWeights checks if there's enough space to download a
// weight file of the given size, with bufferPercent extra headroom.
func CheckDiskSpaceForWeights(path string, weightSizeBytes int64, bufferPercent int) error {
	buffer := weightSizeBytes * int64(bufferPercent) / 100
	return CheckDiskSpace(path, weightSizeBytes+buffer)
}

// getParentPath returns the parent directory of a path.
// Returns "" if the path has no parent (e.g., "/" or ".").
func getParentPath(path string) string {
	if path == "" || path == "." || path == "/" {
		return ""
	}

	if runtime.GOOS == "windows" {
		if idx := strings.LastIndexAny(path, `\/`); idx > 0 {
			return path[:idx]
		}
		return ""
	}

	if idx := strings.LastIndex(path, "/"); idx > 0 {
		return path[:idx]
	}
	if strings.HasPrefix(path, "/") {
		return "/"
	}
	return ""
}
