package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testSchemaUp mirrors the production schema from
// 000001_create_generation_history.up.sql.
const testSchemaUp = `
CREATE TABLE IF NOT EXISTS generation_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    prompt TEXT NOT NULL,
    enhanced_prompt TEXT NOT NULL DEFAULT '',
    quality TEXT NOT NULL DEFAULT 'medium',
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    steps INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL CHECK (status IN ('success', 'error')),
    error_message TEXT NOT NULL DEFAULT '',
    is_batch INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_generation_history_request_id ON generation_history(request_id);
CREATE INDEX IF NOT EXISTS idx_generation_history_created_at ON generation_history(created_at);
CREATE INDEX IF NOT EXISTS idx_generation_history_status ON generation_history(status);
`

const testSchemaDown = `
DROP INDEX IF EXISTS idx_generation_history_status;
DROP INDEX IF EXISTS idx_generation_history_created_at;
DROP INDEX IF EXISTS idx_generation_history_request_id;
DROP TABLE IF EXISTS generation_history;
`

// setupTestMigrations creates a temporary migrations directory with test
// migration files. Returns the temp directory and the file:// migrations path.
func setupTestMigrations(t *testing.T) (string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	migrationsDir := filepath.Join(tmpDir, "migrations")

	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		t.Fatalf("failed to create migrations directory: %v", err)
	}

	upPath := filepath.Join(migrationsDir, "000001_create_generation_history.up.sql")
	if err := os.WriteFile(upPath, []byte(testSchemaUp), 0644); err != nil {
		t.Fatalf("failed to write up migration: %v", err)
	}

	downPath := filepath.Join(migrationsDir, "000001_create_generation_history.down.sql")
	if err := os.WriteFile(downPath, []byte(testSchemaDown), 0644); err != nil {
		t.Fatalf("failed to write down migration: %v", err)
	}

	return tmpDir, "file://" + migrationsDir
}

// setupTestRepository creates a migrated test database and returns a Repository.
func setupTestRepository(t *testing.T) *Repository {
	t.Helper()

	tmpDir, migrationsPath := setupTestMigrations(t)
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := NewDatabaseWithMigrations(dbPath, migrationsPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewRepository(database)
}

func sampleRecord(requestID string) GenerationRecord {
	return GenerationRecord{
		RequestID:      requestID,
		Prompt:         "a red fox",
		EnhancedPrompt: "a red fox, high quality, detailed, sharp focus",
		Quality:        "medium",
		Width:          768,
		Height:         768,
		Steps:          30,
		DurationMS:     1234,
		Status:         "success",
	}
}

func TestInsertAndQueryGeneration(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	id, err := repo.InsertGeneration(ctx, sampleRecord("req-001"))
	if err != nil {
		t.Fatalf("InsertGeneration: %v", err)
	}
	if id <= 0 {
		t.Errorf("inserted ID = %d, want > 0", id)
	}

	rec, err := repo.GetGenerationByRequestID(ctx, "req-001")
	if err != nil {
		t.Fatalf("GetGenerationByRequestID: %v", err)
	}
	if rec.Prompt != "a red fox" {
		t.Errorf("Prompt = %q, want %q", rec.Prompt, "a red fox")
	}
	if rec.EnhancedPrompt != "a red fox, high quality, detailed, sharp focus" {
		t.Errorf("EnhancedPrompt = %q", rec.EnhancedPrompt)
	}
	if rec.Steps != 30 || rec.Width != 768 || rec.Height != 768 {
		t.Errorf("parameters = %d steps %dx%d, want 30 steps 768x768", rec.Steps, rec.Width, rec.Height)
	}
	if rec.Status != "success" {
		t.Errorf("Status = %q, want success", rec.Status)
	}
	if rec.IsBatch {
		t.Error("IsBatch = true, want false")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestGetGenerationByRequestIDNotFound(t *testing.T) {
	repo := setupTestRepository(t)

	_, err := repo.GetGenerationByRequestID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestRecentGenerations(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := sampleRecord("req-00" + string(rune('1'+i)))
		if _, err := repo.InsertGeneration(ctx, rec); err != nil {
			t.Fatalf("InsertGeneration: %v", err)
		}
	}

	records, err := repo.RecentGenerations(ctx, 3)
	if err != nil {
		t.Fatalf("RecentGenerations: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Newest first: same created_at second, so ordering falls back to ID.
	if records[0].ID <= records[1].ID || records[1].ID <= records[2].ID {
		t.Errorf("records not in newest-first order: IDs %d, %d, %d",
			records[0].ID, records[1].ID, records[2].ID)
	}
}

func TestCountGenerations(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	counts, err := repo.CountGenerations(ctx)
	if err != nil {
		t.Fatalf("CountGenerations on empty table: %v", err)
	}
	if counts.Total != 0 {
		t.Errorf("Total = %d on empty table, want 0", counts.Total)
	}

	ok := sampleRecord("req-ok")
	if _, err := repo.InsertGeneration(ctx, ok); err != nil {
		t.Fatalf("InsertGeneration: %v", err)
	}

	failed := sampleRecord("req-fail")
	failed.Status = "error"
	failed.ErrorMessage = "inference crashed"
	if _, err := repo.InsertGeneration(ctx, failed); err != nil {
		t.Fatalf("InsertGeneration: %v", err)
	}

	counts, err = repo.CountGenerations(ctx)
	if err != nil {
		t.Fatalf("CountGenerations: %v", err)
	}
	if counts.Total != 2 || counts.Succeeded != 1 || counts.Failed != 1 {
		t.Errorf("counts = %+v, want Total=2 Succeeded=1 Failed=1", counts)
	}
}

func TestInsertGenerationBatchFlag(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	rec := sampleRecord("req-batch")
	rec.IsBatch = true
	if _, err := repo.InsertGeneration(ctx, rec); err != nil {
		t.Fatalf("InsertGeneration: %v", err)
	}

	got, err := repo.GetGenerationByRequestID(ctx, "req-batch")
	if err != nil {
		t.Fatalf("GetGenerationByRequestID: %v", err)
	}
	if !got.IsBatch {
		t.Error("IsBatch not round-tripped")
	}
}

func TestPruneOlderThan(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	if _, err := repo.InsertGeneration(ctx, sampleRecord("req-keep")); err != nil {
		t.Fatalf("InsertGeneration: %v", err)
	}

	// A cutoff in the past removes nothing.
	removed, err := repo.PruneOlderThan(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed %d records with past cutoff, want 0", removed)
	}

	// A cutoff in the future removes everything.
	removed, err = repo.PruneOlderThan(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d records with future cutoff, want 1", removed)
	}
}
