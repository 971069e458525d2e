package shutdown

import (
	"context"
	"sort"
	"sync"

	"colorizer_backend/core"
)

// shutdownEntry pairs a registered cleanup function with its name and priority.
type shutdownEntry struct {
	name     string
	fn       core.ShutdownFunc
	priority int // lower = earlier execution
}

// ShutdownRegistry holds the cleanup functions to run when the colorizer
// stops, ordered by priority.
//
// This is a molecule that composes core.ShutdownFunc with priority ordering
// and thread-safe registration.
//
// Usage:
//
//	registry := NewShutdownRegistry()
//
//	// Lower priority runs first.
//	registry.Register("recorder", 10, func(ctx context.Context) error {
//	    return recorder.Flush(ctx)
//	})
//	registry.Register("history", 20, func(ctx context.Context) error {
//	    return history.Close()
//	})
//
//	// During shutdown:
//	errs := registry.Shutdown(ctx)
//	for _, err := range errs {
//	    log.Printf("shutdown error: %v", err)
//	}
type ShutdownRegistry struct {
	mu      sync.Mutex
	entries []shutdownEntry
	closed  bool
}

// NewShutdownRegistry creates an empty registry ready to accept registrations.
func NewShutdownRegistry() *ShutdownRegistry {
	return &ShutdownRegistry{
		entries: make([]shutdownEntry, 0),
	}
}

// Register adds a shutdown function under a name and priority.
// Lower priority values execute earlier. Registering after Shutdown has
// been called is a no-op.
//
// Priority ranges used across the colorizer:
//   - 0-9: flush batch recorder and logs
//   - 10-19: stop in-flight downloads
//   - 20-29: stop background workers
//   - 30-39: close the history database
//   - 40+: remove temp files, release locks
func (r *ShutdownRegistry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.entries = append(r.entries, shutdownEntry{
		name:     name,
		fn:       fn,
		priority: priority,
	})
}

// Shutdown runs every registered function in priority order and returns the
// errors from those that failed. Each function receives ctx for
// cancellation or timeout.
//
// A failing function does not stop the rest. After Shutdown returns the
// registry is closed.
func (r *ShutdownRegistry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	sorted := r.sortedEntriesLocked()
	r.mu.Unlock()

	var errs []error
	for _, entry := range sorted {
		if err := entry.fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Names returns the registered function names in priority order.
func (r *ShutdownRegistry) Names() []string {
	r.mu.Lock()
	sorted := r.sortedEntriesLocked()
	r.mu.Unlock()

	names := make([]string, len(sorted))
	for i, entry := range sorted {
		names[i] = entry.name
	}
	return names
}

// sortedEntriesLocked copies the entries sorted by priority.
// Callers must hold r.mu.
func (r *ShutdownRegistry) sortedEntriesLocked() []shutdownEntry {
	sorted := make([]shutdownEntry, len(r.entries))
	copy(sorted, r.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	return sorted
}

// Count returns the number of registered shutdown functions.
func (r *ShutdownRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IsClosed reports whether Shutdown has been called.
func (r *ShutdownRegistry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
