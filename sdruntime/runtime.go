// Package sdruntime provides Stable Diffusion image generation capabilities.
//
// runtime.go implements the high-level Runtime API wrapping a single loaded
// model context. The Runtime is the expensive, process-wide generation
// resource: constructed once, shared by every request, never reloaded.
package sdruntime

import (
	"context"
	"fmt"
	"sync"
)

// Runtime wraps one loaded model context with a Generate API.
//
// Thread-safety: Generate may be called concurrently; the underlying
// backend's own concurrency contract governs simultaneous invocations.
// Close is safe to call multiple times.
type Runtime struct {
	mu     sync.Mutex // guards closed and ctx teardown only
	ctx    *SDContext
	closed bool
}

// NewRuntime loads the model at modelPath and returns a ready Runtime.
// Loading is expensive (seconds to minutes for large models), so callers
// should construct one Runtime and share it.
func NewRuntime(modelPath string) (*Runtime, error) {
	sdCtx, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	return &Runtime{ctx: sdCtx}, nil
}

// Generate creates an image from the given parameters.
//
// The ctx parameter bounds the generation: if it is cancelled or its deadline
// passes before the backend finishes, ErrGenerationTimeout is returned. The
// backend call itself cannot be interrupted; it completes in the background
// and its result is discarded.
//
// When the backend produces output at a size other than the requested
// dimensions, the result is rescaled to match.
//
// Error cases:
//   - ErrInvalidParams / ErrInvalidPrompt: parameters fail validation
//   - ErrRuntimeClosed: runtime has been closed
//   - ErrGenerationTimeout: ctx done before the backend finished
//   - ErrGenerationFailed: the backend failed
func (r *Runtime) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	if params.Seed < 0 {
		params.Seed = RandomSeed()
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRuntimeClosed
	}
	sdCtx := r.ctx
	r.mu.Unlock()

	type generateOutcome struct {
		result *GenerateResult
		err    error
	}
	done := make(chan generateOutcome, 1)

	go func() {
		result, err := GenerateImage(sdCtx, params)
		done <- generateOutcome{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrGenerationTimeout, ctx.Err())
	case outcome := <-done:
		if outcome.err != nil {
			return nil, outcome.err
		}
		return r.finalize(outcome.result, params)
	}
}

// finalize validates the backend output and rescales it to the requested
// dimensions when they differ from the backend's native output size.
func (r *Runtime) finalize(result *GenerateResult, params GenerateParams) (*GenerateResult, error) {
	if err := ValidateImageData(result.ImageData); err != nil {
		return nil, fmt.Errorf("generated image validation failed: %w", err)
	}

	if result.Width != params.Width || result.Height != params.Height {
		scaled, err := ScalePNG(result.ImageData, params.Width, params.Height)
		if err != nil {
			return nil, fmt.Errorf("%w: rescale failed: %v", ErrGenerationFailed, err)
		}
		result.ImageData = scaled
		result.Width = params.Width
		result.Height = params.Height
	}

	return result, nil
}

// ModelPath returns the path of the loaded model file.
func (r *Runtime) ModelPath() string {
	return r.ctx.ModelPath()
}

// IsClosed reports whether the runtime has been closed.
func (r *Runtime) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close releases the model context. Safe to call multiple times.
// In normal operation the Runtime lives for the whole process and Close is
// only called during shutdown.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	FreeContext(r.ctx)
	r.closed = true
	return nil
}
