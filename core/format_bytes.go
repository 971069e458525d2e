package core

import (
	"fmt"
	"strings"
)

// Byte size constants used across weight sizes and disk space checks.
// Binary units (1024 base), displayed with the familiar KB/MB/GB labels.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
	BytesPerTB int64 = 1024 * BytesPerGB
)

// FormatBytes converts a byte count to a human-readable string with two
// decimal places, e.g. FormatBytes(1536) is "1.50 KB". Negative input is
// treated as 0. Pure function.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	switch {
	case bytes >= BytesPerTB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(BytesPerTB))
	case bytes >= BytesPerGB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(BytesPerGB))
	case bytes >= BytesPerMB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(BytesPerMB))
	case bytes >= BytesPerKB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(BytesPerKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatBytesCompact is FormatBytes without trailing zeros: round values
// print bare ("4 GB"), others with one decimal ("1.5 GB"). Used for the
// expected weight sizes in "weights list". Pure function.
func FormatBytesCompact(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	format := func(val float64, unit string) string {
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f %s", val, unit)
		}
		return fmt.Sprintf("%.1f %s", val, unit)
	}

	switch {
	case bytes >= BytesPerTB:
		return format(float64(bytes)/float64(BytesPerTB), "TB")
	case bytes >= BytesPerGB:
		return format(float64(bytes)/float64(BytesPerGB), "GB")
	case bytes >= BytesPerMB:
		return format(float64(bytes)/float64(BytesPerMB), "MB")
	case bytes >= BytesPerKB:
		return format(float64(bytes)/float64(BytesPerKB), "KB")
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ParseBytes converts a human-readable size string to bytes. Accepted
// forms: "100B", "10KB", "1.5 MB", "4GB", "1TB", case-insensitive, with
// optional whitespace before the unit and single-letter shorthands
// ("4G"). Used for size overrides such as COLORIZER_MIN_DISK_SPACE.
// Pure function.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	numEnd := 0
	for i, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			numEnd = i
			break
		}
		numEnd = i + 1
	}
	if numEnd == 0 {
		return 0, fmt.Errorf("invalid size format: no number found")
	}

	numStr := s[:numEnd]
	unit := strings.TrimSpace(s[numEnd:])

	var value float64
	if _, err := fmt.Sscanf(numStr, "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid number: %s", numStr)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative sizes not allowed")
	}

	var multiplier int64
	switch strings.ToUpper(unit) {
	case "", "B":
		multiplier = 1
	case "KB", "K":
		multiplier = BytesPerKB
	case "MB", "M":
		multiplier = BytesPerMB
	case "GB", "G":
		multiplier = BytesPerGB
	case "TB", "T":
		multiplier = BytesPerTB
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}

	return int64(value * float64(multiplier)), nil
}
