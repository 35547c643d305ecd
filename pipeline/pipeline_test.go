package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"go_imagegen/core"
	"go_imagegen/sdruntime"
)

// testConfig returns a config with the default tier table and small limits,
// decoupled from the environment.
func testConfig() *core.Config {
	return &core.Config{
		DefaultWidth:         768,
		DefaultHeight:        768,
		DefaultGuidanceScale: 7.5,
		HighQualitySteps:     50,
		MediumQualitySteps:   30,
		LowQualitySteps:      20,
		MaxBatchSize:         5,
		GenerationTimeout:    5 * time.Second,
	}
}

// testPNG returns a valid encoded PNG of the given size.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// fakeHandle is a ModelHandle that records calls and returns canned output.
type fakeHandle struct {
	mu     sync.Mutex
	calls  []sdruntime.GenerateParams
	image  []byte
	err    error
	closed bool
}

func (f *fakeHandle) Generate(_ context.Context, params sdruntime.GenerateParams) (*sdruntime.GenerateResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &sdruntime.GenerateResult{
		ImageData: f.image,
		Width:     params.Width,
		Height:    params.Height,
	}, nil
}

func (f *fakeHandle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeHandle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeHandle) call(i int) sdruntime.GenerateParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// fixedFactory returns a factory that always yields the given handle and
// counts invocations.
type fixedFactory struct {
	mu     sync.Mutex
	count  int
	handle ModelHandle
	err    error
}

func (f *fixedFactory) factory(_ context.Context, _ *core.Config) (ModelHandle, error) {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.handle, nil
}

func (f *fixedFactory) constructions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// newTestProcessor builds a processor backed by a fake handle.
func newTestProcessor(t *testing.T, cfg *core.Config, handle *fakeHandle, observers ...Observer) *Processor {
	t.Helper()
	ff := &fixedFactory{handle: handle}
	mgr := NewManagerWithFactory(cfg, nil, ff.factory)
	return NewProcessor(cfg, nil, mgr, HeuristicEnhancer{}, observers...)
}

// recordingObserver captures lifecycle notifications.
type recordingObserver struct {
	mu        sync.Mutex
	started   []string
	completed []Record
}

func (r *recordingObserver) GenerationStarted(id, prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, prompt)
}

func (r *recordingObserver) GenerationCompleted(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, rec)
}
