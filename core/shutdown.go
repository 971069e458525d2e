package core

import (
	"context"
)

// ShutdownFunc is the signature for cleanup handlers run during graceful
// shutdown. Each handler receives a context that may carry a deadline and
// returns an error when cleanup fails.
//
// Implementations should respect context cancellation, return nil on
// success, and be idempotent.
//
// Example usage:
//
//	var recorderShutdown ShutdownFunc = func(ctx context.Context) error {
//	    return recorder.Stop()
//	}
type ShutdownFunc func(ctx context.Context) error
