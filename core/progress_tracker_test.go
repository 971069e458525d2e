package core

import (
	"sync"
	"testing"
	"time"
)

func TestNewProgressTracker(t *testing.T) {
	tests := []struct {
		name  string
		total int64
	}{
		{"unknown total", 0},
		{"small registry file", 4096},
		{"lineart extractor weights", 180 * 1024 * 1024},
		{"generative engine weights", 6 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewProgressTracker(tt.total)
			if tracker == nil {
				t.Fatal("NewProgressTracker returned nil")
			}
			if tracker.Total() != tt.total {
				t.Errorf("Total() = %d, want %d", tracker.Total(), tt.total)
			}
			if tracker.Downloaded() != 0 {
				t.Errorf("Downloaded() = %d, want 0", tracker.Downloaded())
			}
		})
	}
}

func TestProgressTracker_Update(t *testing.T) {
	tracker := NewProgressTracker(1024)

	tracker.Update(100)
	if tracker.Downloaded() != 100 {
		t.Errorf("After Update(100), Downloaded() = %d, want 100", tracker.Downloaded())
	}

	tracker.Update(200)
	if tracker.Downloaded() != 300 {
		t.Errorf("After Update(200), Downloaded() = %d, want 300", tracker.Downloaded())
	}

	// Zero and negative updates are ignored.
	tracker.Update(0)
	tracker.Update(-50)
	if tracker.Downloaded() != 300 {
		t.Errorf("After no-op updates, Downloaded() = %d, want 300", tracker.Downloaded())
	}
}

func TestProgressTracker_SetDownloaded(t *testing.T) {
	tracker := NewProgressTracker(1024)

	tracker.SetDownloaded(500)
	if tracker.Downloaded() != 500 {
		t.Errorf("SetDownloaded(500) => Downloaded() = %d, want 500", tracker.Downloaded())
	}

	tracker.SetDownloaded(0)
	if tracker.Downloaded() != 0 {
		t.Errorf("SetDownloaded(0) => Downloaded() = %d, want 0", tracker.Downloaded())
	}

	// Negative is clamped to 0.
	tracker.SetDownloaded(-100)
	if tracker.Downloaded() != 0 {
		t.Errorf("SetDownloaded(-100) => Downloaded() = %d, want 0", tracker.Downloaded())
	}
}

func TestProgressTracker_SetTotal(t *testing.T) {
	tracker := NewProgressTracker(1024)

	tracker.SetTotal(2048)
	if tracker.Total() != 2048 {
		t.Errorf("SetTotal(2048) => Total() = %d, want 2048", tracker.Total())
	}

	tracker.SetTotal(0)
	if tracker.Total() != 0 {
		t.Errorf("SetTotal(0) => Total() = %d, want 0", tracker.Total())
	}

	tracker.SetTotal(-100)
	if tracker.Total() != 0 {
		t.Errorf("SetTotal(-100) => Total() = %d, want 0", tracker.Total())
	}
}

func TestProgressTracker_Progress_PercentCalculation(t *testing.T) {
	tests := []struct {
		name        string
		total       int64
		downloaded  int64
		wantPercent float64
	}{
		{"nothing fetched", 1024, 0, 0},
		{"half fetched", 1024, 512, 50},
		{"fully fetched", 1024, 1024, 100},
		{"overshoot caps at 100", 1024, 2048, 100},
		{"unknown total reports -1", 0, 500, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewProgressTracker(tt.total)
			tracker.SetDownloaded(tt.downloaded)

			info := tracker.Progress()
			if info.Percent != tt.wantPercent {
				t.Errorf("Percent = %.2f, want %.2f", info.Percent, tt.wantPercent)
			}
		})
	}
}

func TestProgressTracker_Progress_FormattedValues(t *testing.T) {
	tracker := NewProgressTracker(1024 * 1024)
	tracker.SetDownloaded(512 * 1024)

	info := tracker.Progress()

	if want := "512.00 KB"; info.DownloadedFormatted != want {
		t.Errorf("DownloadedFormatted = %q, want %q", info.DownloadedFormatted, want)
	}
	if want := "1.00 MB"; info.TotalFormatted != want {
		t.Errorf("TotalFormatted = %q, want %q", info.TotalFormatted, want)
	}
}

func TestProgressTracker_Progress_UnknownTotal(t *testing.T) {
	tracker := NewProgressTracker(0)
	tracker.SetDownloaded(1024)

	info := tracker.Progress()

	if info.Percent != -1 {
		t.Errorf("Percent with unknown total = %.2f, want -1", info.Percent)
	}
	if info.TotalFormatted != "unknown" {
		t.Errorf("TotalFormatted with unknown total = %q, want %q", info.TotalFormatted, "unknown")
	}
}

func TestProgressTracker_IsComplete(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		downloaded int64
		want       bool
	}{
		{"partway", 1024, 512, false},
		{"exactly complete", 1024, 1024, true},
		{"overshoot", 1024, 2048, true},
		{"unknown total never completes", 0, 1000, false},
		{"nothing fetched", 1024, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewProgressTracker(tt.total)
			tracker.SetDownloaded(tt.downloaded)

			if tracker.IsComplete() != tt.want {
				t.Errorf("IsComplete() = %v, want %v", tracker.IsComplete(), tt.want)
			}
		})
	}
}

func TestProgressTracker_Reset(t *testing.T) {
	tracker := NewProgressTracker(1024)
	tracker.Update(500)

	if tracker.Downloaded() != 500 {
		t.Errorf("Before reset, Downloaded() = %d, want 500", tracker.Downloaded())
	}

	tracker.Reset(2048)

	if tracker.Total() != 2048 {
		t.Errorf("After reset, Total() = %d, want 2048", tracker.Total())
	}
	if tracker.Downloaded() != 0 {
		t.Errorf("After reset, Downloaded() = %d, want 0", tracker.Downloaded())
	}
	if tracker.IsComplete() {
		t.Error("After reset, IsComplete() = true, want false")
	}
}

func TestProgressTracker_ConcurrentUpdates(t *testing.T) {
	tracker := NewProgressTracker(10000)
	var wg sync.WaitGroup

	const (
		goroutines  = 10
		updatesEach = 100
		bytesPer    = int64(10)
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < updatesEach; j++ {
				tracker.Update(bytesPer)
			}
		}()
	}

	wg.Wait()

	want := int64(goroutines*updatesEach) * bytesPer
	if tracker.Downloaded() != want {
		t.Errorf("After concurrent updates, Downloaded() = %d, want %d",
			tracker.Downloaded(), want)
	}
}

func TestProgressTracker_ConcurrentReadWrite(t *testing.T) {
	tracker := NewProgressTracker(10000)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			tracker.Update(100)
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tracker.Progress()
				_ = tracker.Downloaded()
				_ = tracker.Total()
				_ = tracker.IsComplete()
				time.Sleep(time.Millisecond)
			}
		}()
	}

	wg.Wait()

	if tracker.Downloaded() != 10000 {
		t.Errorf("After concurrent read/write, Downloaded() = %d, want 10000",
			tracker.Downloaded())
	}
}

func TestProgressTracker_ElapsedTime(t *testing.T) {
	tracker := NewProgressTracker(1024)

	time.Sleep(50 * time.Millisecond)

	info := tracker.Progress()
	if info.Elapsed < 50*time.Millisecond {
		t.Errorf("Elapsed = %v, want >= 50ms", info.Elapsed)
	}
}

func TestProgressTracker_SpeedCalculation(t *testing.T) {
	tracker := NewProgressTracker(10000)

	for i := 0; i < 5; i++ {
		tracker.Update(1000)
		time.Sleep(100 * time.Millisecond)
	}

	info := tracker.Progress()

	// Roughly 1000 bytes per 100ms. Wide tolerance for scheduler jitter.
	if info.SpeedBytesPerSec < 1000 || info.SpeedBytesPerSec > 50000 {
		t.Errorf("SpeedBytesPerSec = %.2f, expected roughly 10000", info.SpeedBytesPerSec)
	}

	if len(info.SpeedFormatted) == 0 {
		t.Error("SpeedFormatted is empty")
	}
}

func BenchmarkProgressTracker_Update(b *testing.B) {
	tracker := NewProgressTracker(int64(b.N) * 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tracker.Update(100)
	}
}

func BenchmarkProgressTracker_Progress(b *testing.B) {
	tracker := NewProgressTracker(1024 * 1024)
	tracker.SetDownloaded(512 * 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tracker.Progress()
	}
}
