package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GenerationRecord represents a row in the generation_history table.
// It tracks every generation attempt, successful or not.
type GenerationRecord struct {
	ID             int64     // Auto-incremented primary key
	RequestID      string    // Correlation ID for tracing a request end to end
	Prompt         string    // Original user prompt
	EnhancedPrompt string    // Prompt actually sent to the model
	Quality        string    // Tier: "high", "medium", "low"
	Width          int       // Image width in pixels
	Height         int       // Image height in pixels
	Steps          int       // Inference step count
	DurationMS     int64     // Generation duration in milliseconds
	Status         string    // "success" or "error"
	ErrorMessage   string    // Error description when status is "error"
	IsBatch        bool      // Whether the record came from a batch request
	CreatedAt      time.Time // Timestamp when the record was created
}

// GenerationCounts summarizes the history table for status reporting.
type GenerationCounts struct {
	Total     int64
	Succeeded int64
	Failed    int64
}

// Repository provides CRUD operations for generation history.
type Repository struct {
	db *Database
}

// NewRepository creates a Repository over the given database.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// InsertGeneration inserts a generation history record and returns its ID.
func (r *Repository) InsertGeneration(ctx context.Context, rec GenerationRecord) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO generation_history (
			request_id, prompt, enhanced_prompt, quality,
			width, height, steps, duration_ms,
			status, error_message, is_batch
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.DB().ExecContext(ctx, query,
		rec.RequestID,
		rec.Prompt,
		rec.EnhancedPrompt,
		rec.Quality,
		rec.Width,
		rec.Height,
		rec.Steps,
		rec.DurationMS,
		rec.Status,
		rec.ErrorMessage,
		boolToInt(rec.IsBatch),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert generation record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted record ID: %w", err)
	}

	return id, nil
}

// RecentGenerations returns the most recent records, newest first.
func (r *Repository) RecentGenerations(ctx context.Context, limit int) ([]GenerationRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, request_id, prompt, enhanced_prompt, quality,
		       width, height, steps, duration_ms,
		       status, error_message, is_batch, created_at
		FROM generation_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation history: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		rec, err := scanGenerationRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation history: %w", err)
	}

	return records, nil
}

// GetGenerationByRequestID returns the record for a request ID, or
// sql.ErrNoRows if none exists.
func (r *Repository) GetGenerationByRequestID(ctx context.Context, requestID string) (GenerationRecord, error) {
	if r.db == nil {
		return GenerationRecord{}, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, request_id, prompt, enhanced_prompt, quality,
		       width, height, steps, duration_ms,
		       status, error_message, is_batch, created_at
		FROM generation_history
		WHERE request_id = ?
		ORDER BY id DESC
		LIMIT 1`

	row := r.db.DB().QueryRowContext(ctx, query, requestID)
	return scanGenerationRecord(row)
}

// CountGenerations returns aggregate counts over the history table.
func (r *Repository) CountGenerations(ctx context.Context) (GenerationCounts, error) {
	if r.db == nil {
		return GenerationCounts{}, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0)
		FROM generation_history`

	var counts GenerationCounts
	err := r.db.DB().QueryRowContext(ctx, query).Scan(&counts.Total, &counts.Succeeded, &counts.Failed)
	if err != nil {
		return GenerationCounts{}, fmt.Errorf("failed to count generation history: %w", err)
	}

	return counts, nil
}

// PruneOlderThan deletes records created before the cutoff. Returns the
// number of rows removed.
func (r *Repository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	result, err := r.db.DB().ExecContext(ctx,
		`DELETE FROM generation_history WHERE created_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune generation history: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}

	return removed, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGenerationRecord(row rowScanner) (GenerationRecord, error) {
	var rec GenerationRecord
	var isBatch int
	var createdAt string

	err := row.Scan(
		&rec.ID,
		&rec.RequestID,
		&rec.Prompt,
		&rec.EnhancedPrompt,
		&rec.Quality,
		&rec.Width,
		&rec.Height,
		&rec.Steps,
		&rec.DurationMS,
		&rec.Status,
		&rec.ErrorMessage,
		&isBatch,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return GenerationRecord{}, err
		}
		return GenerationRecord{}, fmt.Errorf("failed to scan generation record: %w", err)
	}

	rec.IsBatch = isBatch != 0
	rec.CreatedAt = parseSQLiteTime(createdAt)
	return rec, nil
}

// parseSQLiteTime parses a CURRENT_TIMESTAMP value. SQLite stores these as
// "YYYY-MM-DD HH:MM:SS" in UTC.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
