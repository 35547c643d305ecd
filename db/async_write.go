package db

import (
	"context"
	"sync"
	"time"

	"go_imagegen/logging"
	"go_imagegen/pipeline"

	"go.uber.org/zap"
)

// DefaultChannelCapacity is the default buffer size for the history write channel.
const DefaultChannelCapacity = 100

// HistoryWriter persists generation records without blocking the request
// path. Records are queued on a buffered channel and written by a background
// goroutine; a full queue drops the record rather than stalling a request.
//
// HistoryWriter implements pipeline.Observer.
type HistoryWriter struct {
	repo      *Repository
	logger    *logging.Logger
	writeChan chan GenerationRecord
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	mu        sync.Mutex
}

// NewHistoryWriter creates a history writer with the default queue capacity.
func NewHistoryWriter(repo *Repository, logger *logging.Logger) *HistoryWriter {
	return NewHistoryWriterWithCapacity(repo, logger, DefaultChannelCapacity)
}

// NewHistoryWriterWithCapacity creates a history writer with a custom queue capacity.
func NewHistoryWriterWithCapacity(repo *Repository, logger *logging.Logger, capacity int) *HistoryWriter {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &HistoryWriter{
		repo:      repo,
		logger:    logger,
		writeChan: make(chan GenerationRecord, capacity),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the background processing goroutine.
// Must be called before records will be persisted. Returns immediately.
func (w *HistoryWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}

	w.started = true
	w.wg.Add(1)
	go w.processWrites()
}

func (w *HistoryWriter) processWrites() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.drainChannel()
			return
		case rec, ok := <-w.writeChan:
			if !ok {
				return
			}
			w.persist(rec)
		}
	}
}

// drainChannel persists any records still buffered at shutdown.
func (w *HistoryWriter) drainChannel() {
	for {
		select {
		case rec, ok := <-w.writeChan:
			if !ok {
				return
			}
			w.persist(rec)
		default:
			return
		}
	}
}

func (w *HistoryWriter) persist(rec GenerationRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := w.repo.InsertGeneration(ctx, rec); err != nil {
		w.logger.Warn("failed to persist generation record",
			zap.String("request_id", rec.RequestID),
			zap.Error(err))
	}
}

// Enqueue queues a record for async persistence.
// Returns false if the queue is full; the record is dropped in that case.
func (w *HistoryWriter) Enqueue(rec GenerationRecord) bool {
	select {
	case w.writeChan <- rec:
		return true
	default:
		return false
	}
}

// Pending returns the number of records waiting in the queue.
func (w *HistoryWriter) Pending() int {
	return len(w.writeChan)
}

// Stop signals the background goroutine to stop and waits for pending
// records to drain.
func (w *HistoryWriter) Stop() {
	w.cancel()
	w.wg.Wait()
}

// StopWithTimeout stops the writer with a maximum wait time.
// Returns true if stopped gracefully, false if timed out.
func (w *HistoryWriter) StopWithTimeout(timeout time.Duration) bool {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// GenerationStarted implements pipeline.Observer. Start events are not
// persisted; only completed attempts produce rows.
func (w *HistoryWriter) GenerationStarted(id, prompt string) {}

// GenerationCompleted implements pipeline.Observer by queueing the record
// for async persistence.
func (w *HistoryWriter) GenerationCompleted(rec pipeline.Record) {
	queued := w.Enqueue(GenerationRecord{
		RequestID:      rec.ID,
		Prompt:         rec.Prompt,
		EnhancedPrompt: rec.EnhancedPrompt,
		Quality:        rec.Quality,
		Width:          rec.Width,
		Height:         rec.Height,
		Steps:          rec.Steps,
		DurationMS:     rec.Duration.Milliseconds(),
		Status:         rec.Status,
		ErrorMessage:   rec.ErrorMessage,
		IsBatch:        rec.Batch,
	})
	if !queued {
		w.logger.Warn("history queue full, dropping record",
			zap.String("request_id", rec.ID))
	}
}
