package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go_imagegen/logging"

	"go.uber.org/zap"
)

// Manager coordinates graceful shutdown: it cancels its context when a
// signal arrives, runs the registered cleanup functions in order, and
// force-exits the process on a second signal.
//
// Usage:
//
//	mgr := NewManager(logger)
//	mgr.Register("http", 0, server.Shutdown)
//	mgr.Register("database", 30, func(context.Context) error { return db.Close() })
//	mgr.Start()
//
//	<-mgr.Context().Done()
//	mgr.Shutdown()
type Manager struct {
	logger  *logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc

	registry *Registry
	sigChan  chan os.Signal

	// lastSignal records the signal that initiated shutdown, for exit codes.
	lastSignal os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the shutdown timeout. Default is 60 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// NewManager creates a Manager. Call Start to install the signal handler.
func NewManager(logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger,
		timeout:  60 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 2),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Context returns the managed context, cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priority runs earlier.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.registry.Register(name, priority, fn)
}

// Start installs the signal handler. The first SIGINT or SIGTERM cancels
// the context; a second one exits immediately.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-m.sigChan
		m.mu.Lock()
		m.lastSignal = sig
		m.mu.Unlock()

		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		m.cancel()

		<-m.sigChan
		m.logger.Warn("second signal received, forcing immediate exit")
		os.Exit(1)
	}()
}

// Trigger initiates shutdown programmatically, as if a signal had arrived.
func (m *Manager) Trigger() {
	m.cancel()
}

// LastSignal returns the signal that initiated shutdown, or nil if shutdown
// was triggered programmatically.
func (m *Manager) LastSignal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSignal
}

// Shutdown runs the registered cleanup functions under the configured
// timeout and logs any failures. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true
	m.mu.Unlock()

	signal.Stop(m.sigChan)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.logger.Info("running shutdown sequence",
		zap.Int("handlers", m.registry.Count()))

	for _, err := range m.registry.Shutdown(ctx) {
		m.logger.Error("shutdown handler failed", zap.Error(err))
	}

	m.logger.Info("shutdown complete")
}
