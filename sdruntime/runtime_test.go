//go:build !sd || stub

package sdruntime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeModelFile creates a placeholder model file for stub loading.
func writeModelFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(path, []byte("weights"), 0644); err != nil {
		t.Fatalf("failed to write model file: %v", err)
	}
	return path
}

func TestNewRuntime_MissingModel(t *testing.T) {
	_, err := NewRuntime("/nonexistent/model.safetensors")
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got: %v", err)
	}
}

func TestNewRuntime_LoadsStubContext(t *testing.T) {
	path := writeModelFile(t)

	rt, err := NewRuntime(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rt.Close()

	if rt.ModelPath() != path {
		t.Errorf("expected model path %s, got %s", path, rt.ModelPath())
	}
	if rt.IsClosed() {
		t.Error("new runtime must not be closed")
	}
}

func TestRuntime_Generate_InvalidParams(t *testing.T) {
	rt, err := NewRuntime(writeModelFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rt.Close()

	_, err = rt.Generate(context.Background(), GenerateParams{
		Prompt:        "",
		Width:         512,
		Height:        512,
		Steps:         20,
		GuidanceScale: 7.5,
	})
	if !errors.Is(err, ErrInvalidPrompt) {
		t.Errorf("expected ErrInvalidPrompt, got: %v", err)
	}
}

func TestRuntime_Generate_StubReportsUnavailable(t *testing.T) {
	rt, err := NewRuntime(writeModelFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rt.Close()

	_, err = rt.Generate(context.Background(), GenerateParams{
		Prompt:        "a cat",
		Width:         512,
		Height:        512,
		Steps:         20,
		GuidanceScale: 7.5,
		Seed:          -1,
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed in stub mode, got: %v", err)
	}
}

func TestRuntime_Generate_AfterClose(t *testing.T) {
	rt, err := NewRuntime(writeModelFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	_, err = rt.Generate(context.Background(), GenerateParams{
		Prompt:        "a cat",
		Width:         512,
		Height:        512,
		Steps:         20,
		GuidanceScale: 7.5,
	})
	if !errors.Is(err, ErrRuntimeClosed) {
		t.Errorf("expected ErrRuntimeClosed, got: %v", err)
	}
}

func TestRuntime_CloseIsIdempotent(t *testing.T) {
	rt, err := NewRuntime(writeModelFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rt.Close(); err != nil {
		t.Errorf("first close failed: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if !rt.IsClosed() {
		t.Error("runtime must report closed")
	}
}

func TestRandomSeed_NonNegative(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		seed := RandomSeed()
		if seed < 0 {
			t.Fatalf("seed %d is negative", seed)
		}
		seen[seed] = true
	}
	if len(seen) < 2 {
		t.Error("100 draws produced a single seed value")
	}
}
