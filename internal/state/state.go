// Package state persists the incremental crawl state between runs. The
// snapshot is the sole durability and resume mechanism: it is loaded at
// orchestrator start and flushed after every page boundary.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonesrussell/goingest/internal/logger"
)

// Entry is the persisted record of the last successful processing of one
// entity. Payload maps hold the exact JSON bodies last written downstream,
// keyed for future diffing.
type Entry struct {
	Title           string                    `json:"title"`
	EpisodesCount   int                       `json:"episodes_count"`
	Timestamp       time.Time                 `json:"timestamp"`
	EntityPayload   map[string]any            `json:"entity_payload,omitempty"`
	EpisodePayloads map[string]map[string]any `json:"episode_payloads,omitempty"`
	MediaPayloads   map[string]map[string]any `json:"media_payloads,omitempty"`
}

// CrawlState is the process-wide persisted state document. The schema is
// backward-readable across versions: new fields are optional and existing
// ones are never renamed.
type CrawlState struct {
	LastRun   time.Time        `json:"last_run,omitzero"`
	LastPage  int              `json:"last_page"`
	Processed map[string]Entry `json:"processed_entities"`
}

// Store loads and persists the crawl state snapshot.
type Store struct {
	mu    sync.RWMutex
	path  string
	state CrawlState
	log   logger.Interface
}

// NewStore creates a store for the snapshot at path and loads it. Loss of
// state degrades to reprocess-everything, never to a failed run: a missing
// or unreadable file yields a fresh empty state.
func NewStore(path string, log logger.Interface) *Store {
	s := &Store{
		path: path,
		log:  log,
	}
	s.state = s.load()

	return s
}

// load deserializes the snapshot, falling back to an empty state.
func (s *Store) load() CrawlState {
	empty := CrawlState{Processed: make(map[string]Entry)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no previous state found, starting fresh", "path", s.path)
		} else {
			s.log.Error("failed to read state file, starting fresh",
				"path", s.path,
				"error", err.Error(),
			)
		}
		return empty
	}

	var loaded CrawlState
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Error("failed to parse state file, starting fresh",
			"path", s.path,
			"error", err.Error(),
		)
		return empty
	}

	if loaded.Processed == nil {
		loaded.Processed = make(map[string]Entry)
	}

	s.log.Info("loaded state",
		"path", s.path,
		"last_page", loaded.LastPage,
		"entities", len(loaded.Processed),
	)

	return loaded
}

// Save serializes the state atomically: the document is written to a
// temporary file and renamed over the previous snapshot, so a crash
// mid-save never corrupts the last valid state.
func (s *Store) Save() error {
	s.mu.Lock()
	s.state.LastRun = time.Now().UTC()
	data, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if mkdirErr := os.MkdirAll(dir, 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create state directory: %w", mkdirErr)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, writeErr := tmp.Write(data); writeErr != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", writeErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp state file: %w", closeErr)
	}

	if renameErr := os.Rename(tmp.Name(), s.path); renameErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", renameErr)
	}

	return nil
}

// MarkProcessed records a full-replace upsert of the entry for sourceID.
func (s *Store) MarkProcessed(sourceID string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.state.Processed[sourceID] = entry
}

// Entry returns the stored entry for sourceID, or a zero entry when the
// entity has never been processed. Payload map reads on the zero entry are
// nil-safe for callers.
func (s *Store) Entry(sourceID string) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Processed[sourceID]
}

// IsProcessed reports whether sourceID has a stored entry.
func (s *Store) IsProcessed(sourceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.state.Processed[sourceID]
	return ok
}

// LastPage returns the last fully processed page number, 0 if never run.
func (s *Store) LastPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.LastPage
}

// SetLastPage records the last fully processed page number.
func (s *Store) SetLastPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.LastPage = page
}

// Snapshot returns a copy of the current state for inspection.
func (s *Store) Snapshot() CrawlState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := CrawlState{
		LastRun:   s.state.LastRun,
		LastPage:  s.state.LastPage,
		Processed: make(map[string]Entry, len(s.state.Processed)),
	}
	for id, entry := range s.state.Processed {
		copied.Processed[id] = entry
	}

	return copied
}

// Compact removes entries whose Timestamp is older than maxAge and returns
// the number removed. Compacted entities are re-imported in full the next
// time the crawl sees them.
func (s *Store) Compact(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for id, entry := range s.state.Processed {
		if entry.Timestamp.Before(cutoff) {
			delete(s.state.Processed, id)
			removed++
		}
	}

	return removed
}
