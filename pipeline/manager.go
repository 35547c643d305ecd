package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go_imagegen/core"
	"go_imagegen/logging"
	"go_imagegen/sdruntime"

	"go.uber.org/zap"
)

// ModelHandle is the generation capability shared by every request. It is
// satisfied by *sdruntime.Runtime; tests substitute fakes.
type ModelHandle interface {
	Generate(ctx context.Context, params sdruntime.GenerateParams) (*sdruntime.GenerateResult, error)
	Close() error
}

// RuntimeFactory constructs the model handle. The default factory prepares
// directories, ensures the model file is available (downloading it when a
// URL is configured), and loads the model.
type RuntimeFactory func(ctx context.Context, cfg *core.Config) (ModelHandle, error)

// Manager owns the lazy, at-most-once construction of the model handle.
//
// Concurrency contract: any number of goroutines may call Acquire
// concurrently; exactly one construction happens under concurrent first-use
// pressure (double-checked: an atomic fast path, then a mutex-guarded
// re-check). A failed construction is never cached; the next Acquire
// attempts construction again.
type Manager struct {
	cfg     *core.Config
	logger  *logging.Logger
	factory RuntimeFactory

	handle atomic.Pointer[handleBox]
	mu     sync.Mutex
}

// handleBox wraps the interface value so it can live in an atomic.Pointer.
type handleBox struct {
	h ModelHandle
}

// NewManager creates a Manager using the default runtime factory.
func NewManager(cfg *core.Config, logger *logging.Logger) *Manager {
	return NewManagerWithFactory(cfg, logger, defaultRuntimeFactory)
}

// NewManagerWithFactory creates a Manager with a custom runtime factory.
func NewManagerWithFactory(cfg *core.Config, logger *logging.Logger, factory RuntimeFactory) *Manager {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Manager{cfg: cfg, logger: logger, factory: factory}
}

// Acquire returns the shared model handle, constructing it on first use.
// Construction failure propagates as ErrInitializationFailed and clears the
// way for a later Acquire to retry.
func (m *Manager) Acquire(ctx context.Context) (ModelHandle, error) {
	if box := m.handle.Load(); box != nil {
		return box.h, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the lock: another caller may have just finished.
	if box := m.handle.Load(); box != nil {
		return box.h, nil
	}

	m.logger.Info("initializing model runtime",
		zap.String("models_dir", m.cfg.ModelsDir))

	handle, err := m.factory(ctx, m.cfg)
	if err != nil {
		m.logger.Error("model runtime initialization failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInitializationFailed, err)
	}

	m.handle.Store(&handleBox{h: handle})
	m.logger.Info("model runtime initialized",
		zap.String("backend", sdruntime.BackendInfo()))
	return handle, nil
}

// Ready reports whether the model handle has been constructed.
func (m *Manager) Ready() bool {
	return m.handle.Load() != nil
}

// Close releases the model handle if it was ever constructed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	box := m.handle.Load()
	if box == nil {
		return nil
	}
	return box.h.Close()
}

// defaultRuntimeFactory is the production construction path: idempotent
// directory preparation, model availability (with download when configured),
// then model load.
func defaultRuntimeFactory(ctx context.Context, cfg *core.Config) (ModelHandle, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare directories: %w", err)
	}

	path, err := cfg.EnsureModelAvailable(ctx, nil)
	if err != nil {
		return nil, err
	}

	return sdruntime.NewRuntime(path)
}
