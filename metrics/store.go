// Package metrics provides in-memory aggregation of generation activity for
// the status endpoint and dashboard.
package metrics

import (
	"sync"
	"time"

	"go_imagegen/pipeline"
)

// MetricsStore is thread-safe in-memory storage for generation metrics:
// a circular buffer of recent generation records plus running aggregates.
//
// MetricsStore implements pipeline.Observer, so it can be attached directly
// to the generation pipeline.
//
// Usage:
//
//	store := NewMetricsStore(DefaultStoreConfig(), time.Now())
//	proc := pipeline.NewProcessor(cfg, logger, mgr, enhancer, store)
type MetricsStore struct {
	mu sync.RWMutex

	// Recent generation history (circular buffer)
	history []pipeline.Record
	cap     int
	head    int
	size    int

	// Running aggregates
	total     int64
	succeeded int64
	failed    int64
	inFlight  int64
	byQuality map[string]*qualityStats

	lastDuration time.Duration

	startTime time.Time
	version   string
}

// qualityStats holds per-tier aggregation data.
type qualityStats struct {
	count         int64
	successCount  int64
	totalDuration time.Duration
}

// StoreConfig configures the MetricsStore behavior.
type StoreConfig struct {
	// HistoryCapacity is the max number of records to retain
	HistoryCapacity int
	// Version is the application version string
	Version string
}

// DefaultStoreConfig returns a default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HistoryCapacity: 100,
		Version:         "0.0.0",
	}
}

// NewMetricsStore creates a MetricsStore. The startTime is used to calculate uptime.
func NewMetricsStore(config StoreConfig, startTime time.Time) *MetricsStore {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = 100
	}

	return &MetricsStore{
		history:   make([]pipeline.Record, capacity),
		cap:       capacity,
		byQuality: make(map[string]*qualityStats),
		startTime: startTime,
		version:   config.Version,
	}
}

// GenerationStarted implements pipeline.Observer.
func (s *MetricsStore) GenerationStarted(id, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
}

// GenerationCompleted implements pipeline.Observer.
func (s *MetricsStore) GenerationCompleted(rec pipeline.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight > 0 {
		s.inFlight--
	}

	s.history[s.head] = rec
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}

	s.total++
	if rec.Status == pipeline.StatusSuccess {
		s.succeeded++
	} else {
		s.failed++
	}
	s.lastDuration = rec.Duration

	stats, ok := s.byQuality[rec.Quality]
	if !ok {
		stats = &qualityStats{}
		s.byQuality[rec.Quality] = stats
	}
	stats.count++
	if rec.Status == pipeline.StatusSuccess {
		stats.successCount++
	}
	stats.totalDuration += rec.Duration
}

// QualityMetrics summarizes activity for one quality tier.
type QualityMetrics struct {
	Count           int64         `json:"count"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Snapshot is a point-in-time view of all aggregates.
type Snapshot struct {
	Total        int64                     `json:"total"`
	Succeeded    int64                     `json:"succeeded"`
	Failed       int64                     `json:"failed"`
	InFlight     int64                     `json:"in_flight"`
	LastDuration time.Duration             `json:"last_duration"`
	ByQuality    map[string]QualityMetrics `json:"by_quality"`
	Uptime       time.Duration             `json:"uptime"`
	Version      string                    `json:"version"`
}

// GetSnapshot returns the current aggregate view.
func (s *MetricsStore) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Total:        s.total,
		Succeeded:    s.succeeded,
		Failed:       s.failed,
		InFlight:     s.inFlight,
		LastDuration: s.lastDuration,
		ByQuality:    make(map[string]QualityMetrics, len(s.byQuality)),
		Uptime:       time.Since(s.startTime),
		Version:      s.version,
	}

	for quality, stats := range s.byQuality {
		var successRate float64
		if stats.count > 0 {
			successRate = float64(stats.successCount) / float64(stats.count) * 100
		}
		var avgDuration time.Duration
		if stats.count > 0 {
			avgDuration = stats.totalDuration / time.Duration(stats.count)
		}
		snap.ByQuality[quality] = QualityMetrics{
			Count:           stats.count,
			SuccessRate:     successRate,
			AverageDuration: avgDuration,
		}
	}

	return snap
}

// GetRecentRecords returns up to limit of the most recent records, newest first.
func (s *MetricsStore) GetRecentRecords(limit int) []pipeline.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.size {
		limit = s.size
	}

	records := make([]pipeline.Record, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - 1 - i + s.cap) % s.cap
		records = append(records, s.history[idx])
	}
	return records
}
