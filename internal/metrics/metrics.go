// Package metrics provides run-level counters for the ingestion pipeline.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds the counters for one crawl run.
type Metrics struct {
	// EntitiesProcessed is the number of entities fully processed.
	EntitiesProcessed int64
	// EntitiesFailed is the number of entities that failed a pipeline stage.
	EntitiesFailed int64
	// EntitiesImported is the number of entity import calls issued.
	EntitiesImported int64
	// EntitiesSkipped is the number of entity imports skipped by empty diffs.
	EntitiesSkipped int64
	// EpisodesImported is the number of episodes sent in import batches.
	EpisodesImported int64
	// MediaImported is the number of media link import calls issued.
	MediaImported int64
	// MediaSkipped is the number of media imports skipped by empty diffs.
	MediaSkipped int64
	// MediaFailed is the number of tolerated media import failures.
	MediaFailed int64
	// StartTime is when the run began.
	StartTime time.Time

	mu sync.Mutex
}

// New creates a Metrics instance for a run starting now.
func New() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// RecordEntity updates the processed or failed counter.
func (m *Metrics) RecordEntity(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.EntitiesProcessed++
	} else {
		m.EntitiesFailed++
	}
}

// RecordEntityImport counts an entity import call or its diff skip.
func (m *Metrics) RecordEntityImport(skipped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if skipped {
		m.EntitiesSkipped++
	} else {
		m.EntitiesImported++
	}
}

// RecordEpisodes counts episodes included in an import batch.
func (m *Metrics) RecordEpisodes(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EpisodesImported += int64(count)
}

// RecordMediaImport counts one media link import outcome.
func (m *Metrics) RecordMediaImport(skipped, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case skipped:
		m.MediaSkipped++
	case failed:
		m.MediaFailed++
	default:
		m.MediaImported++
	}
}

// Snapshot is a point-in-time copy of the run counters.
type Snapshot struct {
	EntitiesProcessed int64
	EntitiesFailed    int64
	EntitiesImported  int64
	EntitiesSkipped   int64
	EpisodesImported  int64
	MediaImported     int64
	MediaSkipped      int64
	MediaFailed       int64
	StartTime         time.Time
}

// Snapshot returns a copy of the counters safe to read concurrently.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		EntitiesProcessed: m.EntitiesProcessed,
		EntitiesFailed:    m.EntitiesFailed,
		EntitiesImported:  m.EntitiesImported,
		EntitiesSkipped:   m.EntitiesSkipped,
		EpisodesImported:  m.EpisodesImported,
		MediaImported:     m.MediaImported,
		MediaSkipped:      m.MediaSkipped,
		MediaFailed:       m.MediaFailed,
		StartTime:         m.StartTime,
	}
}

// Elapsed returns the run duration so far.
func (m *Metrics) Elapsed() time.Duration {
	return time.Since(m.StartTime)
}
