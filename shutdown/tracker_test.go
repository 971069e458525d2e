package shutdown

import (
	"sync"
	"testing"
	"time"
)

func TestOperationTracker_Fresh(t *testing.T) {
	tracker := NewOperationTracker()
	if tracker == nil {
		t.Fatal("NewOperationTracker returned nil")
	}
	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations, got %d", tracker.ActiveCount())
	}
	if tracker.IsClosed() {
		t.Error("new tracker should not be closed")
	}
}

func TestOperationTracker_StartDone(t *testing.T) {
	tracker := NewOperationTracker()

	if !tracker.Start() {
		t.Error("Start should return true on an open tracker")
	}
	if tracker.ActiveCount() != 1 {
		t.Errorf("expected 1 active operation, got %d", tracker.ActiveCount())
	}

	tracker.Done()
	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations after Done, got %d", tracker.ActiveCount())
	}
}

func TestOperationTracker_CountsConcurrentPages(t *testing.T) {
	tracker := NewOperationTracker()

	for i := 0; i < 5; i++ {
		if !tracker.Start() {
			t.Errorf("Start %d should succeed", i)
		}
	}

	if tracker.ActiveCount() != 5 {
		t.Errorf("expected 5 active operations, got %d", tracker.ActiveCount())
	}

	for i := 0; i < 5; i++ {
		tracker.Done()
	}

	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations, got %d", tracker.ActiveCount())
	}
}

func TestOperationTracker_CloseRejectsNewWork(t *testing.T) {
	tracker := NewOperationTracker()

	tracker.Close()

	if !tracker.IsClosed() {
		t.Error("tracker should be closed after Close()")
	}
	if tracker.Start() {
		t.Error("Start should return false on a closed tracker")
	}
	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations, got %d", tracker.ActiveCount())
	}
}

func TestOperationTracker_CloseLetsInFlightFinish(t *testing.T) {
	tracker := NewOperationTracker()

	if !tracker.Start() {
		t.Fatal("Start should succeed")
	}

	tracker.Close()

	// The page already in progress stays counted.
	if tracker.ActiveCount() != 1 {
		t.Errorf("expected 1 active operation, got %d", tracker.ActiveCount())
	}
	if tracker.Start() {
		t.Error("Start should return false on a closed tracker")
	}

	tracker.Done()

	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations, got %d", tracker.ActiveCount())
	}
}

func TestOperationTracker_WaitCompletes(t *testing.T) {
	tracker := NewOperationTracker()

	if !tracker.Start() {
		t.Fatal("Start should succeed")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		tracker.Done()
	}()

	if err := tracker.Wait(1 * time.Second); err != nil {
		t.Errorf("Wait should succeed, got error: %v", err)
	}
}

func TestOperationTracker_WaitTimeout(t *testing.T) {
	tracker := NewOperationTracker()

	// An operation that never finishes.
	if !tracker.Start() {
		t.Fatal("Start should succeed")
	}

	if err := tracker.Wait(50 * time.Millisecond); err != ErrWaitTimeout {
		t.Errorf("expected ErrWaitTimeout, got: %v", err)
	}

	tracker.Done()
}

func TestOperationTracker_WaitWithNothingInFlight(t *testing.T) {
	tracker := NewOperationTracker()

	if err := tracker.Wait(100 * time.Millisecond); err != nil {
		t.Errorf("Wait should succeed with no operations, got error: %v", err)
	}
}

func TestOperationTracker_ConcurrentStartDone(t *testing.T) {
	tracker := NewOperationTracker()
	const goroutines = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if tracker.Start() {
				time.Sleep(time.Millisecond)
				tracker.Done()
			}
		}()
	}

	wg.Wait()

	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations after all goroutines finish, got %d", tracker.ActiveCount())
	}
}

func TestOperationTracker_ConcurrentStartWithClose(t *testing.T) {
	tracker := NewOperationTracker()
	const goroutines = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	var started, rejected int64

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if tracker.Start() {
				mu.Lock()
				started++
				mu.Unlock()
				time.Sleep(time.Millisecond)
				tracker.Done()
			} else {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}

	time.Sleep(500 * time.Microsecond)
	tracker.Close()

	wg.Wait()

	if tracker.ActiveCount() != 0 {
		t.Errorf("expected 0 active operations, got %d", tracker.ActiveCount())
	}

	t.Logf("started: %d, rejected: %d", started, rejected)
	if started+rejected != goroutines {
		t.Errorf("expected %d total, got %d", goroutines, started+rejected)
	}
}
