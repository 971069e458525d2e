// manager.go implements the model lifecycle state machine.
// This is an organism that composes atoms from bindings.go and errors.go.
package mcruntime

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ModelState is the lifecycle state of one model id.
type ModelState int

const (
	StateUnloaded ModelState = iota
	StateLoading
	StateReady
	StateError
)

// String returns the string representation of a model state.
func (s ModelState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Handle is a reference to an acquired model. It stays valid until released.
type Handle struct {
	id  string
	ctx *ModelContext
}

// ID returns the model id this handle refers to.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Context returns the underlying model context for engine runs.
func (h *Handle) Context() *ModelContext {
	if h == nil {
		return nil
	}
	return h.ctx
}

// modelEntry tracks one model id inside the manager.
type modelEntry struct {
	state   ModelState
	ctx     *ModelContext
	loadErr error
	refs    int
	// loading is closed when an in-flight load finishes (either way).
	loading chan struct{}
}

// WeightResolver maps a model id to its weight file on disk.
// core.WeightManager satisfies this through WeightPath.
type WeightResolver interface {
	WeightPath(id string) (string, error)
}

// loaderFunc creates a ModelContext from a weight path. Overridable in tests.
type loaderFunc func(weightPath string) (*ModelContext, error)

// ModelManager owns model lifecycles: each id moves unloaded -> loading ->
// ready (or error), with concurrent Acquire calls for the same id sharing a
// single load. A failed load parks the id in StateError until the next
// Acquire retries it.
//
// A single run mutex serializes engine execution process-wide: model runs
// saturate the compute device, so overlapping them only thrashes memory.
//
// This organism composes:
//   - LoadModel / FreeContext (atoms from bindings.go)
//   - WeightResolver for id-to-path mapping
type ModelManager struct {
	mu      sync.Mutex
	models  map[string]*modelEntry
	weights WeightResolver
	loader  loaderFunc
	logger  *zap.Logger
	closed  bool

	// runMu serializes every engine run across all models.
	runMu sync.Mutex
}

// ManagerOption configures a ModelManager.
type ManagerOption func(*ModelManager)

// WithManagerLogger attaches a logger for lifecycle events.
func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *ModelManager) {
		m.logger = logger
	}
}

// withLoader overrides the model loader. Test seam.
func withLoader(loader loaderFunc) ManagerOption {
	return func(m *ModelManager) {
		m.loader = loader
	}
}

// NewModelManager creates a manager resolving weight files through weights.
func NewModelManager(weights WeightResolver, opts ...ManagerOption) *ModelManager {
	m := &ModelManager{
		models:  make(map[string]*modelEntry),
		weights: weights,
		loader:  LoadModel,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Acquire returns a handle to a ready model, loading it if necessary.
// If a load of the same id is already in flight, Acquire blocks until that
// load finishes and shares its outcome. The handle must be released with
// Release.
func (m *ModelManager) Acquire(ctx context.Context, id string) (*Handle, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrManagerClosed
		}

		entry, ok := m.models[id]
		if !ok {
			entry = &modelEntry{state: StateUnloaded}
			m.models[id] = entry
		}

		switch entry.state {
		case StateReady:
			entry.refs++
			h := &Handle{id: id, ctx: entry.ctx}
			m.mu.Unlock()
			return h, nil

		case StateLoading:
			loading := entry.loading
			m.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-loading:
				// Load finished; loop to observe the outcome.
			}

		case StateUnloaded, StateError:
			// This caller performs the load. A previous failure is retried.
			entry.state = StateLoading
			entry.loadErr = nil
			entry.loading = make(chan struct{})
			m.mu.Unlock()

			m.load(id, entry)

			m.mu.Lock()
			if entry.state == StateReady {
				entry.refs++
				h := &Handle{id: id, ctx: entry.ctx}
				m.mu.Unlock()
				return h, nil
			}
			err := entry.loadErr
			m.mu.Unlock()
			return nil, err

		default:
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: id %q in unexpected state", ErrModelLoadFailed, id)
		}
	}
}

// load performs the blocking weight load and publishes the outcome.
func (m *ModelManager) load(id string, entry *modelEntry) {
	var mctx *ModelContext
	path, err := m.weights.WeightPath(id)
	if err == nil {
		m.logger.Info("loading model", zap.String("model_id", id), zap.String("weights", path))
		mctx, err = m.loader(path)
	}

	m.mu.Lock()
	if err != nil {
		entry.state = StateError
		entry.loadErr = err
		m.logger.Error("model load failed", zap.String("model_id", id), zap.Error(err))
	} else {
		entry.state = StateReady
		entry.ctx = mctx
		m.logger.Info("model ready", zap.String("model_id", id))
	}
	close(entry.loading)
	entry.loading = nil
	m.mu.Unlock()
}

// Release decrements the reference count for a handle.
// The model stays resident; eviction is explicit via Evict.
func (m *ModelManager) Release(h *Handle) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.models[h.id]
	if !ok || entry.refs == 0 {
		return
	}
	entry.refs--
}

// Evict unloads a ready model with no outstanding references.
// Evicting an unloaded id is a no-op.
func (m *ModelManager) Evict(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.models[id]
	if !ok || entry.state == StateUnloaded {
		return nil
	}
	if entry.state == StateLoading {
		return fmt.Errorf("%w: cannot evict %q while loading", ErrModelLoadFailed, id)
	}
	if entry.refs > 0 {
		return fmt.Errorf("%w: cannot evict %q with %d outstanding references",
			ErrModelLoadFailed, id, entry.refs)
	}

	FreeContext(entry.ctx)
	entry.ctx = nil
	entry.state = StateUnloaded
	entry.loadErr = nil
	m.logger.Info("model evicted", zap.String("model_id", id))
	return nil
}

// State returns the lifecycle state of a model id.
func (m *ModelManager) State(id string) ModelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.models[id]
	if !ok {
		return StateUnloaded
	}
	return entry.state
}

// LoadError returns the error from the last failed load, or nil.
func (m *ModelManager) LoadError(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.models[id]
	if !ok {
		return nil
	}
	return entry.loadErr
}

// WithRunLock runs fn while holding the process-wide run lock.
// Every engine run must go through here.
func (m *ModelManager) WithRunLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// Close frees every loaded model and rejects further Acquire calls.
func (m *ModelManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, entry := range m.models {
		if entry.ctx != nil {
			FreeContext(entry.ctx)
			entry.ctx = nil
		}
		entry.state = StateUnloaded
	}
}
