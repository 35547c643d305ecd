package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateBatch(t *testing.T) {
	handle := &fakeHandle{image: testPNG(t, 768, 768)}
	proc := newTestProcessor(t, testConfig(), handle)

	prompts := []string{"a red fox", "a blue heron", "a grey wolf"}
	result, err := proc.GenerateBatch(context.Background(), BatchRequest{Prompts: prompts})
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}

	if len(result.Results) != len(prompts) {
		t.Fatalf("got %d results, want %d", len(result.Results), len(prompts))
	}
	// Input order is preserved.
	for i, item := range result.Results {
		if item.Prompt != prompts[i] {
			t.Errorf("result[%d].Prompt = %q, want %q", i, item.Prompt, prompts[i])
		}
		if item.Image == "" {
			t.Errorf("result[%d] has empty image", i)
		}
	}

	// Every batch item runs at the low tier's step count with medium
	// enhancement.
	if handle.callCount() != len(prompts) {
		t.Fatalf("model invoked %d times, want %d", handle.callCount(), len(prompts))
	}
	for i := 0; i < handle.callCount(); i++ {
		call := handle.call(i)
		if call.Steps != 20 {
			t.Errorf("call %d steps = %d, want 20", i, call.Steps)
		}
		if !strings.HasSuffix(call.Prompt, "high quality, detailed, sharp focus") {
			t.Errorf("call %d prompt %q lacks the medium enhancement suffix", i, call.Prompt)
		}
		if call.Seed >= 0 {
			t.Errorf("call %d seed = %d, want negative (random seed request)", i, call.Seed)
		}
	}
}

func TestGenerateBatchEmptyList(t *testing.T) {
	handle := &fakeHandle{image: testPNG(t, 768, 768)}
	proc := newTestProcessor(t, testConfig(), handle)

	for _, prompts := range [][]string{nil, {}} {
		_, err := proc.GenerateBatch(context.Background(), BatchRequest{Prompts: prompts})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("GenerateBatch(%v) error = %v, want ErrInvalidInput", prompts, err)
		}
	}
	if handle.callCount() != 0 {
		t.Error("invalid batch touched the model")
	}
}

func TestGenerateBatchCeiling(t *testing.T) {
	ff := &fixedFactory{handle: &fakeHandle{image: testPNG(t, 768, 768)}}
	mgr := NewManagerWithFactory(testConfig(), nil, ff.factory)
	proc := NewProcessor(testConfig(), nil, mgr, HeuristicEnhancer{})

	prompts := []string{"one", "two", "three", "four", "five", "six"}
	_, err := proc.GenerateBatch(context.Background(), BatchRequest{Prompts: prompts})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "maximum 5 prompts") {
		t.Errorf("error %q does not name the batch ceiling", err)
	}
	// Rejection happens before any model work, including construction.
	if ff.constructions() != 0 {
		t.Error("over-limit batch triggered model construction")
	}
}

func TestGenerateBatchAtCeiling(t *testing.T) {
	handle := &fakeHandle{image: testPNG(t, 768, 768)}
	proc := newTestProcessor(t, testConfig(), handle)

	prompts := []string{"one", "two", "three", "four", "five"}
	result, err := proc.GenerateBatch(context.Background(), BatchRequest{Prompts: prompts})
	if err != nil {
		t.Fatalf("GenerateBatch at the ceiling: %v", err)
	}
	if len(result.Results) != 5 {
		t.Errorf("got %d results, want 5", len(result.Results))
	}
}

func TestGenerateBatchBlankPrompt(t *testing.T) {
	handle := &fakeHandle{image: testPNG(t, 768, 768)}
	proc := newTestProcessor(t, testConfig(), handle)

	_, err := proc.GenerateBatch(context.Background(), BatchRequest{
		Prompts: []string{"a red fox", "   ", "a grey wolf"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if handle.callCount() != 0 {
		t.Error("batch with a blank prompt touched the model")
	}
}

func TestGenerateBatchFailsAsAWhole(t *testing.T) {
	handle := &fakeHandle{err: errors.New("inference crashed")}
	proc := newTestProcessor(t, testConfig(), handle)

	result, err := proc.GenerateBatch(context.Background(), BatchRequest{
		Prompts: []string{"a red fox", "a blue heron"},
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	if result != nil {
		t.Error("failed batch returned partial results")
	}
	// The first failure aborts the batch.
	if handle.callCount() != 1 {
		t.Errorf("model invoked %d times after first failure, want 1", handle.callCount())
	}
}

func TestGenerateBatchObserverRecords(t *testing.T) {
	obs := &recordingObserver{}
	handle := &fakeHandle{image: testPNG(t, 768, 768)}
	proc := newTestProcessor(t, testConfig(), handle, obs)

	if _, err := proc.GenerateBatch(context.Background(), BatchRequest{
		Prompts: []string{"a red fox", "a blue heron"},
	}); err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}

	if len(obs.completed) != 2 {
		t.Fatalf("completed notifications = %d, want 2", len(obs.completed))
	}
	for i, rec := range obs.completed {
		if !rec.Batch {
			t.Errorf("record %d not flagged as batch", i)
		}
		if rec.Steps != 20 {
			t.Errorf("record %d steps = %d, want 20", i, rec.Steps)
		}
		if rec.Status != StatusSuccess {
			t.Errorf("record %d status = %q, want %q", i, rec.Status, StatusSuccess)
		}
	}
}
