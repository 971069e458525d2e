package core

import "fmt"

// BuildRangeHeader builds the Range request header for resuming a weight
// download at a byte offset, e.g. BuildRangeHeader(1024) is "bytes=1024-".
// Negative offsets are treated as 0. Pure function.
func BuildRangeHeader(resumeFrom int64) string {
	if resumeFrom < 0 {
		resumeFrom = 0
	}
	return fmt.Sprintf("bytes=%d-", resumeFrom)
}

// ParseContentRange extracts the byte range from a Content-Range response
// header, which a server sends when it honors a Range request.
//
// Expected format: "bytes start-end/total" or "bytes start-end/*".
// A "*" total comes back as -1. Pure function.
func ParseContentRange(header string) (start, end, total int64, err error) {
	if header == "" {
		return 0, 0, 0, fmt.Errorf("empty Content-Range header")
	}

	var totalStr string
	n, scanErr := fmt.Sscanf(header, "bytes %d-%d/%s", &start, &end, &totalStr)
	if scanErr != nil || n < 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %q", header)
	}

	if totalStr == "*" {
		total = -1
	} else {
		if _, parseErr := fmt.Sscanf(totalStr, "%d", &total); parseErr != nil {
			return 0, 0, 0, fmt.Errorf("invalid total in Content-Range: %q", totalStr)
		}
	}

	return start, end, total, nil
}
