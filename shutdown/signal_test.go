package shutdown

import (
	"sync"
	"testing"
)

func TestSignalCounter_Fresh(t *testing.T) {
	counter := NewSignalCounter(2, nil)
	if counter == nil {
		t.Fatal("NewSignalCounter returned nil")
	}
	if counter.Count() != 0 {
		t.Errorf("expected 0 count, got %d", counter.Count())
	}
}

func TestSignalCounter_Increment(t *testing.T) {
	counter := NewSignalCounter(10, nil)

	for i := 1; i <= 5; i++ {
		got := counter.Increment()
		if got != i {
			t.Errorf("Increment() returned %d, expected %d", got, i)
		}
		if counter.Count() != i {
			t.Errorf("Count() returned %d, expected %d", counter.Count(), i)
		}
	}
}

func TestSignalCounter_SecondSignalForces(t *testing.T) {
	var forced bool
	counter := NewSignalCounter(2, func() {
		forced = true
	})

	// First Ctrl+C stays graceful.
	counter.Increment()
	if forced {
		t.Error("callback should not fire on the first signal")
	}

	// Second one forces.
	counter.Increment()
	if !forced {
		t.Error("callback should fire on the second signal")
	}
}

func TestSignalCounter_FiresAtAndPastThreshold(t *testing.T) {
	var callCount int
	counter := NewSignalCounter(3, func() {
		callCount++
	})

	counter.Increment()
	counter.Increment()
	if callCount != 0 {
		t.Errorf("callback fired too early, count: %d", callCount)
	}

	counter.Increment() // reaches the threshold
	if callCount != 1 {
		t.Errorf("expected callback fired once at threshold, got %d", callCount)
	}

	counter.Increment() // past it, fires again
	if callCount != 2 {
		t.Errorf("expected callback fired again, got %d", callCount)
	}
}

func TestSignalCounter_NilCallback(t *testing.T) {
	counter := NewSignalCounter(1, nil)

	counter.Increment()
	counter.Increment()

	if counter.Count() != 2 {
		t.Errorf("expected count 2, got %d", counter.Count())
	}
}

func TestSignalCounter_Reset(t *testing.T) {
	var callCount int
	counter := NewSignalCounter(2, func() {
		callCount++
	})

	counter.Increment()
	counter.Increment()
	if callCount != 1 {
		t.Errorf("expected 1 callback, got %d", callCount)
	}

	counter.Reset()
	if counter.Count() != 0 {
		t.Errorf("expected 0 after reset, got %d", counter.Count())
	}

	counter.Increment()
	counter.Increment()
	if callCount != 2 {
		t.Errorf("expected 2 callbacks after reset and re-trigger, got %d", callCount)
	}
}

func TestSignalCounter_SetForceCallback(t *testing.T) {
	var oldCalled, newCalled bool

	counter := NewSignalCounter(2, func() {
		oldCalled = true
	})

	counter.Increment()

	counter.SetForceCallback(func() {
		newCalled = true
	})

	counter.Increment()

	if oldCalled {
		t.Error("replaced callback should not fire")
	}
	if !newCalled {
		t.Error("new callback should fire")
	}
}

func TestSignalCounter_ConcurrentIncrement(t *testing.T) {
	var callCount int
	var mu sync.Mutex

	counter := NewSignalCounter(50, func() {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	const goroutines = 100

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			counter.Increment()
		}()
	}

	wg.Wait()

	if counter.Count() != goroutines {
		t.Errorf("expected count %d, got %d", goroutines, counter.Count())
	}

	// Increments 50 through 100 each fire the callback.
	wantCalls := goroutines - 50 + 1
	mu.Lock()
	if callCount != wantCalls {
		t.Errorf("expected %d callbacks, got %d", wantCalls, callCount)
	}
	mu.Unlock()
}

func TestSignalCounter_ZeroThreshold(t *testing.T) {
	var called bool
	counter := NewSignalCounter(0, func() {
		called = true
	})

	if called {
		t.Error("callback should not fire before any increment")
	}

	counter.Increment()
	if !called {
		t.Error("callback should fire once count >= threshold")
	}
}
