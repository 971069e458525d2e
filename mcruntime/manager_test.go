package mcruntime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeResolver maps every id to a fixed path.
type fakeResolver struct {
	path string
	err  error
}

func (r *fakeResolver) WeightPath(id string) (string, error) {
	return r.path, r.err
}

func TestModelManager_AcquireRelease(t *testing.T) {
	mgr := NewModelManager(&fakeResolver{path: writeFakeWeights(t)})
	defer mgr.Close()

	h, err := mgr.Acquire(context.Background(), "colorizer-fast")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if h.ID() != "colorizer-fast" {
		t.Errorf("handle id = %q", h.ID())
	}
	if !h.Context().IsValid() {
		t.Error("expected valid model context")
	}
	if got := mgr.State("colorizer-fast"); got != StateReady {
		t.Errorf("state = %v, want ready", got)
	}

	mgr.Release(h)
	if got := mgr.State("colorizer-fast"); got != StateReady {
		t.Errorf("release should not unload, state = %v", got)
	}
}

func TestModelManager_ConcurrentAcquireSingleLoad(t *testing.T) {
	var loads int32
	mgr := NewModelManager(&fakeResolver{path: "unused"},
		withLoader(func(path string) (*ModelContext, error) {
			atomic.AddInt32(&loads, 1)
			time.Sleep(20 * time.Millisecond) // widen the race window
			return &ModelContext{id: 1, weightPath: path, valid: true}, nil
		}))
	defer mgr.Close()

	const workers = 8
	handles := make([]*Handle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := mgr.Acquire(context.Background(), "colorizer-generative")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("expected exactly 1 load, got %d", n)
	}
	for i := 1; i < workers; i++ {
		if handles[i] != nil && handles[0] != nil && handles[i].Context() != handles[0].Context() {
			t.Error("all handles should share one model context")
		}
	}
}

func TestModelManager_FailedLoadRetries(t *testing.T) {
	var calls int32
	mgr := NewModelManager(&fakeResolver{path: "unused"},
		withLoader(func(path string) (*ModelContext, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, ErrModelCorrupted
			}
			return &ModelContext{id: 2, weightPath: path, valid: true}, nil
		}))
	defer mgr.Close()

	_, err := mgr.Acquire(context.Background(), "lineart-extractor")
	if !errors.Is(err, ErrModelCorrupted) {
		t.Fatalf("first acquire: got %v, want ErrModelCorrupted", err)
	}
	if got := mgr.State("lineart-extractor"); got != StateError {
		t.Errorf("state after failure = %v, want error", got)
	}
	if mgr.LoadError("lineart-extractor") == nil {
		t.Error("expected inspectable load error")
	}

	h, err := mgr.Acquire(context.Background(), "lineart-extractor")
	if err != nil {
		t.Fatalf("retry acquire failed: %v", err)
	}
	mgr.Release(h)
	if got := mgr.State("lineart-extractor"); got != StateReady {
		t.Errorf("state after retry = %v, want ready", got)
	}
}

func TestModelManager_AcquireCancelledWhileLoading(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	mgr := NewModelManager(&fakeResolver{path: "unused"},
		withLoader(func(path string) (*ModelContext, error) {
			close(started)
			<-release
			return &ModelContext{id: 3, weightPath: path, valid: true}, nil
		}))
	defer mgr.Close()
	defer close(release)

	go func() {
		_, _ = mgr.Acquire(context.Background(), "m")
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mgr.Acquire(ctx, "m")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestModelManager_Evict(t *testing.T) {
	mgr := NewModelManager(&fakeResolver{path: writeFakeWeights(t)})
	defer mgr.Close()

	h, err := mgr.Acquire(context.Background(), "m")
	if err != nil {
		t.Fatal(err)
	}

	if err := mgr.Evict("m"); err == nil {
		t.Error("evict with outstanding reference should fail")
	}

	mgr.Release(h)
	if err := mgr.Evict("m"); err != nil {
		t.Errorf("evict after release failed: %v", err)
	}
	if got := mgr.State("m"); got != StateUnloaded {
		t.Errorf("state after evict = %v, want unloaded", got)
	}

	// Evicting an unknown id is a no-op.
	if err := mgr.Evict("never-loaded"); err != nil {
		t.Errorf("evict of unknown id: %v", err)
	}
}

func TestModelManager_ResolverError(t *testing.T) {
	mgr := NewModelManager(&fakeResolver{err: errors.New("unknown model id")})
	defer mgr.Close()

	_, err := mgr.Acquire(context.Background(), "bogus")
	if err == nil {
		t.Fatal("expected error from resolver")
	}
	if got := mgr.State("bogus"); got != StateError {
		t.Errorf("state = %v, want error", got)
	}
}

func TestModelManager_Closed(t *testing.T) {
	mgr := NewModelManager(&fakeResolver{path: writeFakeWeights(t)})
	mgr.Close()

	_, err := mgr.Acquire(context.Background(), "m")
	if !errors.Is(err, ErrManagerClosed) {
		t.Errorf("got %v, want ErrManagerClosed", err)
	}
}

func TestModelManager_WithRunLockSerializes(t *testing.T) {
	mgr := NewModelManager(&fakeResolver{path: writeFakeWeights(t)})
	defer mgr.Close()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.WithRunLock(context.Background(), func() error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxInside) {
					atomic.StoreInt32(&maxInside, n)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&maxInside) != 1 {
		t.Errorf("run lock allowed %d concurrent runs", maxInside)
	}
}

func TestModelManager_WithRunLockCancelled(t *testing.T) {
	mgr := NewModelManager(&fakeResolver{path: writeFakeWeights(t)})
	defer mgr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mgr.WithRunLock(ctx, func() error {
		t.Error("fn should not run after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
