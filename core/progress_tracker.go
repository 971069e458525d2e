package core

import (
	"sync"
	"time"
)

// ProgressInfo is a point-in-time snapshot of a weight download, shaped for
// display by the CLI progress bar.
type ProgressInfo struct {
	// Total bytes to download (0 if the server did not say)
	Total int64
	// Downloaded bytes so far
	Downloaded int64
	// Percentage complete (0-100, or -1 if total is unknown)
	Percent float64
	// Download speed in bytes per second
	SpeedBytesPerSec float64
	// Speed formatted for display, e.g. "5.2 MB/s"
	SpeedFormatted string
	// Estimated time remaining (0 if unknown or complete)
	ETA time.Duration
	// Elapsed time since the download started
	Elapsed time.Duration
	// Human-readable downloaded size
	DownloadedFormatted string
	// Human-readable total size, or "unknown" when total is 0
	TotalFormatted string
}

// ProgressTracker accumulates byte counts for one weight download and derives
// speed and ETA from them. Safe for concurrent use: the download goroutine
// feeds Update while the display goroutine polls Progress.
type ProgressTracker struct {
	mu sync.RWMutex

	total          int64
	downloaded     int64
	startTime      time.Time
	lastUpdateTime time.Time
	// Bytes seen at the last speed sample
	lastDownloaded int64
	// Exponential moving average of speed in bytes/sec
	speedAvg float64
	// EMA weight, higher favors recent samples
	speedAlpha float64
}

// NewProgressTracker creates a tracker for a download of total bytes.
// Pass 0 when the server did not report a Content-Length.
func NewProgressTracker(total int64) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		total:          total,
		startTime:      now,
		lastUpdateTime: now,
		speedAlpha:     0.3,
	}
}

// Update adds n bytes to the downloaded count. Non-positive n is ignored.
func (p *ProgressTracker) Update(n int64) {
	if n <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.downloaded += n
	p.updateSpeed()
}

// SetDownloaded sets the absolute downloaded byte count, used when a resume
// starts partway through an earlier weight download.
func (p *ProgressTracker) SetDownloaded(downloaded int64) {
	if downloaded < 0 {
		downloaded = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.downloaded = downloaded
	p.updateSpeed()
}

// SetTotal updates the expected total, e.g. once a Content-Range arrives.
func (p *ProgressTracker) SetTotal(total int64) {
	if total < 0 {
		total = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
}

// updateSpeed resamples the moving average. Must be called with mu held.
func (p *ProgressTracker) updateSpeed() {
	now := time.Now()
	elapsed := now.Sub(p.lastUpdateTime).Seconds()

	// Sample at most every 100ms so tiny reads do not produce wild spikes.
	if elapsed >= 0.1 {
		bytesInInterval := p.downloaded - p.lastDownloaded
		instantSpeed := float64(bytesInInterval) / elapsed

		if p.speedAvg == 0 {
			p.speedAvg = instantSpeed
		} else {
			p.speedAvg = p.speedAlpha*instantSpeed + (1-p.speedAlpha)*p.speedAvg
		}

		p.lastUpdateTime = now
		p.lastDownloaded = p.downloaded
	}
}

// Progress returns the current snapshot with formatted fields filled in.
func (p *ProgressTracker) Progress() ProgressInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	now := time.Now()
	elapsed := now.Sub(p.startTime)

	info := ProgressInfo{
		Total:               p.total,
		Downloaded:          p.downloaded,
		Percent:             -1,
		SpeedBytesPerSec:    p.speedAvg,
		SpeedFormatted:      FormatBytes(int64(p.speedAvg)) + "/s",
		Elapsed:             elapsed,
		DownloadedFormatted: FormatBytes(p.downloaded),
		TotalFormatted:      "unknown",
	}

	if p.total > 0 {
		info.Percent = float64(p.downloaded) / float64(p.total) * 100
		info.TotalFormatted = FormatBytes(p.total)

		if info.Percent > 100 {
			info.Percent = 100
		}

		if p.speedAvg > 0 && p.downloaded < p.total {
			remaining := float64(p.total - p.downloaded)
			etaSeconds := remaining / p.speedAvg
			info.ETA = time.Duration(etaSeconds * float64(time.Second))
		}
	}

	return info
}

// Downloaded returns the current downloaded byte count.
func (p *ProgressTracker) Downloaded() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.downloaded
}

// Total returns the expected total byte count.
func (p *ProgressTracker) Total() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total
}

// IsComplete reports whether downloaded has reached total.
// Always false while the total is unknown.
func (p *ProgressTracker) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total > 0 && p.downloaded >= p.total
}

// Reset prepares the tracker for a fresh download of total bytes.
func (p *ProgressTracker) Reset(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.total = total
	p.downloaded = 0
	p.startTime = now
	p.lastUpdateTime = now
	p.lastDownloaded = 0
	p.speedAvg = 0
}
