package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DownloadOptions configures a weight file download.
type DownloadOptions struct {
	// URL of the remote weight file
	URL string
	// DestPath is the local path to save to, typically under the models dir
	DestPath string
	// ExpectedSHA256 is the registry checksum (lowercase hex, 64 chars).
	// When provided, the downloaded file is verified against it.
	ExpectedSHA256 string
	// HTTPClient overrides the default client (useful in tests)
	HTTPClient *http.Client
	// OnProgress receives periodic progress updates (optional)
	OnProgress func(ProgressInfo)
	// Resume continues from an existing partial file when the server
	// supports Range requests
	Resume bool
}

// DownloadResult describes a completed weight download.
type DownloadResult struct {
	// BytesDownloaded is the number of bytes fetched in this session
	BytesDownloaded int64
	// TotalBytes is the full file size reported by the server
	TotalBytes int64
	// Resumed is true when the download continued a partial file
	Resumed bool
	// ChecksumValid is true when a checksum was provided and matched
	ChecksumValid bool
	// Path is the final file path
	Path string
}

// DownloadWithProgress fetches a weight file with progress reporting and
// optional resume. This molecule composes:
//   - Range headers (resume of interrupted weight downloads)
//   - ProgressTracker (speed and ETA for the CLI progress bar)
//   - SHA256 verification against the registry checksum
//
// Weight files run to multiple gigabytes, so there is no client timeout;
// cancellation comes from the context. A 416 response means the partial
// file already covers the full range: the checksum decides whether it is
// complete or corrupt, and a corrupt partial is removed and refetched.
func DownloadWithProgress(ctx context.Context, opts DownloadOptions) (*DownloadResult, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.DestPath == "" {
		return nil, fmt.Errorf("DestPath is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 0, // cancellation via ctx only
		}
	}

	destDir := filepath.Dir(opts.DestPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	// A pre-existing file is a partial download when resume is on.
	var resumeFrom int64
	if opts.Resume {
		if info, err := os.Stat(opts.DestPath); err == nil {
			resumeFrom = info.Size()
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", BuildRangeHeader(resumeFrom))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	var totalSize int64
	var resumed bool

	switch resp.StatusCode {
	case http.StatusOK: // 200, server sent the full file
		totalSize = resp.ContentLength
		resumeFrom = 0

	case http.StatusPartialContent: // 206, resume accepted
		resumed = true
		if contentRange := resp.Header.Get("Content-Range"); contentRange != "" {
			_, _, total, parseErr := ParseContentRange(contentRange)
			if parseErr == nil && total > 0 {
				totalSize = total
			}
		}
		if totalSize == 0 && resp.ContentLength > 0 {
			totalSize = resumeFrom + resp.ContentLength
		}

	case http.StatusRequestedRangeNotSatisfiable: // 416
		// The local file may already be complete.
		if opts.ExpectedSHA256 != "" {
			valid, verifyErr := VerifyChecksum(opts.DestPath, opts.ExpectedSHA256)
			if verifyErr != nil {
				return nil, fmt.Errorf("range not satisfiable and checksum verification failed: %w", verifyErr)
			}
			if valid {
				info, _ := os.Stat(opts.DestPath)
				return &DownloadResult{
					BytesDownloaded: 0,
					TotalBytes:      info.Size(),
					Resumed:         true,
					ChecksumValid:   true,
					Path:            opts.DestPath,
				}, nil
			}
		}
		// Corrupt or oversized partial. Start over.
		_ = os.Remove(opts.DestPath)
		opts.Resume = false
		return DownloadWithProgress(ctx, opts)

	default:
		return nil, fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, resp.Status)
	}

	var file *os.File
	if resumed {
		file, err = os.OpenFile(opts.DestPath, os.O_APPEND|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(opts.DestPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open destination file: %w", err)
	}
	defer file.Close()

	tracker := NewProgressTracker(totalSize)
	if resumed {
		tracker.SetDownloaded(resumeFrom)
	}

	reader := &progressReader{
		reader:     resp.Body,
		tracker:    tracker,
		onProgress: opts.OnProgress,
	}

	bytesWritten, err := io.Copy(file, reader)
	if err != nil {
		return nil, fmt.Errorf("download interrupted: %w", err)
	}

	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync file: %w", err)
	}

	result := &DownloadResult{
		BytesDownloaded: bytesWritten,
		TotalBytes:      totalSize,
		Resumed:         resumed,
		ChecksumValid:   false,
		Path:            opts.DestPath,
	}

	if opts.ExpectedSHA256 != "" {
		// Close before hashing so the full content is visible.
		file.Close()

		valid, verifyErr := VerifyChecksum(opts.DestPath, opts.ExpectedSHA256)
		if verifyErr != nil {
			return nil, fmt.Errorf("checksum verification failed: %w", verifyErr)
		}
		if !valid {
			return nil, fmt.Errorf("checksum mismatch: file may be corrupted")
		}
		result.ChecksumValid = true
	}

	return result, nil
}

// progressReader wraps the response body and feeds the tracker as bytes
// arrive. Callbacks are rate-limited to roughly one per 100KB so a
// multi-gigabyte weight download does not flood the progress bar.
type progressReader struct {
	reader       io.Reader
	tracker      *ProgressTracker
	onProgress   func(ProgressInfo)
	lastCallback int64
}

func (r *progressReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	if n > 0 {
		r.tracker.Update(int64(n))

		if r.onProgress != nil {
			downloaded := r.tracker.Downloaded()
			if downloaded-r.lastCallback >= 102400 || err == io.EOF {
				r.onProgress(r.tracker.Progress())
				r.lastCallback = downloaded
			}
		}
	}
	return n, err
}
