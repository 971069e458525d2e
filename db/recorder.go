package db

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultQueueCapacity is the buffer size for pending history writes.
const DefaultQueueCapacity = 100

// DefaultDrainTimeout bounds the wait for pending writes during shutdown.
const DefaultDrainTimeout = 30 * time.Second

// historyOp is one queued history write.
type historyOp func(ctx context.Context, repo *Repository) error

// Recorder is the write-behind queue in front of the Repository. The batch
// orchestrator calls the Record methods from its processing loop; they queue
// and return immediately, and a background goroutine applies them in order.
// A full queue drops the write rather than stalling colorization.
//
// This organism composes:
//   - Repository (molecule) for the actual SQL
//   - a buffered channel with a drain-on-stop worker
type Recorder struct {
	repo   *Repository
	queue  chan historyOp
	logger *zap.Logger

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// RecorderConfig holds configuration for the Recorder.
type RecorderConfig struct {
	// QueueCapacity is the buffer size for pending writes
	QueueCapacity int
	// DrainTimeout is the maximum wait during shutdown
	DrainTimeout time.Duration
}

// DefaultRecorderConfig returns the default configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		QueueCapacity: DefaultQueueCapacity,
		DrainTimeout:  DefaultDrainTimeout,
	}
}

// NewRecorder creates a Recorder over the repository.
func NewRecorder(repo *Repository, logger *zap.Logger) *Recorder {
	return NewRecorderWithConfig(repo, logger, DefaultRecorderConfig())
}

// NewRecorderWithConfig creates a Recorder with custom configuration.
func NewRecorderWithConfig(repo *Repository, logger *zap.Logger, config RecorderConfig) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = DefaultQueueCapacity
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Recorder{
		repo:   repo,
		queue:  make(chan historyOp, config.QueueCapacity),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins background processing. Must be called before recording.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.wg.Add(1)
	go r.process()
}

func (r *Recorder) process() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			r.drain()
			return
		case op, ok := <-r.queue:
			if !ok {
				return
			}
			r.apply(op)
		}
	}
}

// drain applies any remaining queued writes.
func (r *Recorder) drain() {
	for {
		select {
		case op, ok := <-r.queue:
			if !ok {
				return
			}
			r.apply(op)
		default:
			return
		}
	}
}

func (r *Recorder) apply(op historyOp) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := op(ctx, r.repo); err != nil {
		r.logger.Warn("history write failed", zap.Error(err))
	}
}

// enqueue queues one write without blocking. A full queue drops the write.
func (r *Recorder) enqueue(op historyOp) bool {
	select {
	case r.queue <- op:
		return true
	default:
		r.logger.Warn("history queue full, dropping write")
		return false
	}
}

// RecordJobStart queues the initial job row.
func (r *Recorder) RecordJobStart(rec JobRecord) bool {
	return r.enqueue(func(ctx context.Context, repo *Repository) error {
		_, err := repo.InsertJob(ctx, rec)
		return err
	})
}

// RecordItem queues one page outcome.
func (r *Recorder) RecordItem(rec ItemRecord) bool {
	return r.enqueue(func(ctx context.Context, repo *Repository) error {
		_, err := repo.InsertItem(ctx, rec)
		return err
	})
}

// RecordJobEnd queues the terminal status update.
func (r *Recorder) RecordJobEnd(jobID, status, message string, succeeded, failed int) bool {
	return r.enqueue(func(ctx context.Context, repo *Repository) error {
		return repo.FinishJob(ctx, jobID, status, message, succeeded, failed)
	})
}

// Pending returns the number of writes waiting in the queue.
func (r *Recorder) Pending() int {
	return len(r.queue)
}

// Stop drains pending writes and stops the worker.
func (r *Recorder) Stop() {
	r.cancel()
	r.wg.Wait()
}

// StopWithTimeout stops the recorder with a maximum wait.
// Returns true if stopped gracefully, false on timeout.
func (r *Recorder) StopWithTimeout(timeout time.Duration) bool {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
