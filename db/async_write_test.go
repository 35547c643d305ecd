package db

import (
	"context"
	"testing"
	"time"

	"go_imagegen/pipeline"
)

// waitForPersisted polls until the history table reaches the wanted count or
// the deadline passes.
func waitForPersisted(t *testing.T, repo *Repository, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		counts, err := repo.CountGenerations(context.Background())
		if err != nil {
			t.Fatalf("CountGenerations: %v", err)
		}
		if counts.Total >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("history never reached %d records", want)
}

func TestHistoryWriterPersistsRecords(t *testing.T) {
	repo := setupTestRepository(t)

	w := NewHistoryWriter(repo, nil)
	w.Start()
	defer w.Stop()

	if !w.Enqueue(sampleRecord("req-async-1")) {
		t.Fatal("Enqueue returned false on empty queue")
	}
	if !w.Enqueue(sampleRecord("req-async-2")) {
		t.Fatal("Enqueue returned false on empty queue")
	}

	waitForPersisted(t, repo, 2)
}

func TestHistoryWriterDrainsOnStop(t *testing.T) {
	repo := setupTestRepository(t)

	w := NewHistoryWriter(repo, nil)
	w.Start()

	for i := 0; i < 10; i++ {
		w.Enqueue(sampleRecord("req-drain"))
	}
	w.Stop()

	counts, err := repo.CountGenerations(context.Background())
	if err != nil {
		t.Fatalf("CountGenerations: %v", err)
	}
	if counts.Total != 10 {
		t.Errorf("persisted %d records after Stop, want 10", counts.Total)
	}
}

func TestHistoryWriterFullQueueDrops(t *testing.T) {
	repo := setupTestRepository(t)

	// Capacity 1 and never started: the second enqueue must report a drop
	// instead of blocking.
	w := NewHistoryWriterWithCapacity(repo, nil, 1)

	if !w.Enqueue(sampleRecord("req-1")) {
		t.Fatal("first Enqueue should succeed")
	}
	if w.Enqueue(sampleRecord("req-2")) {
		t.Error("Enqueue on a full queue should return false")
	}
	if w.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", w.Pending())
	}
}

func TestHistoryWriterStopWithTimeout(t *testing.T) {
	repo := setupTestRepository(t)

	w := NewHistoryWriter(repo, nil)
	w.Start()

	if !w.StopWithTimeout(5 * time.Second) {
		t.Error("StopWithTimeout reported a timeout on an idle writer")
	}
}

func TestHistoryWriterObserver(t *testing.T) {
	repo := setupTestRepository(t)

	w := NewHistoryWriter(repo, nil)
	w.Start()

	// Start events produce no rows.
	w.GenerationStarted("req-obs", "a red fox")

	w.GenerationCompleted(pipeline.Record{
		ID:             "req-obs",
		Prompt:         "a red fox",
		EnhancedPrompt: "a red fox, good quality",
		Quality:        "low",
		Width:          768,
		Height:         768,
		Steps:          20,
		Duration:       750 * time.Millisecond,
		Status:         pipeline.StatusSuccess,
		Batch:          true,
	})
	w.Stop()

	rec, err := repo.GetGenerationByRequestID(context.Background(), "req-obs")
	if err != nil {
		t.Fatalf("GetGenerationByRequestID: %v", err)
	}
	if rec.Quality != "low" || rec.Steps != 20 {
		t.Errorf("record tier = %q/%d steps, want low/20", rec.Quality, rec.Steps)
	}
	if rec.DurationMS != 750 {
		t.Errorf("DurationMS = %d, want 750", rec.DurationMS)
	}
	if !rec.IsBatch {
		t.Error("IsBatch not carried through the observer")
	}
	if rec.Status != "success" {
		t.Errorf("Status = %q, want success", rec.Status)
	}
}
