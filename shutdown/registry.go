// Package shutdown coordinates graceful service shutdown: ordered cleanup
// functions, signal handling, and a force-exit escape hatch on repeated
// signals.
package shutdown

import (
	"context"
	"sort"
	"sync"
)

// Func is a cleanup function invoked during shutdown.
type Func func(ctx context.Context) error

// entry holds a registered shutdown function with metadata.
type entry struct {
	name     string
	fn       Func
	priority int // lower = earlier execution
}

// Registry maintains an ordered collection of shutdown functions.
//
// Typical priority ranges:
//   - 0-9: stop accepting work (HTTP server)
//   - 10-19: stop background workers (history writer)
//   - 20-29: release resources (model runtime)
//   - 30+: final cleanup (database, log flush)
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

// NewRegistry creates a Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a shutdown function with a name and priority.
// Lower priority values execute earlier. Registration after Shutdown has
// been called is a no-op.
func (r *Registry) Register(name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.entries = append(r.entries, entry{name: name, fn: fn, priority: priority})
}

// Shutdown executes all registered functions in priority order. All
// functions run even if some fail; errors are collected and returned.
// After Shutdown completes the registry is closed; a second call is a no-op.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	r.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	var errs []error
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Names returns the registered names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]entry, len(r.entries))
	copy(sorted, r.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered functions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
