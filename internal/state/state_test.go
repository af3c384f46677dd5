package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goingest/internal/logger"
)

func TestMissingFileStartsFresh(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"), logger.NewNoOp())

	assert.Equal(t, 0, store.LastPage())
	assert.False(t, store.IsProcessed("1"))
	assert.Empty(t, store.Entry("1").EpisodePayloads)
}

func TestCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path, logger.NewNoOp())

	assert.Equal(t, 0, store.LastPage())
	assert.Empty(t, store.Snapshot().Processed)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	store := NewStore(path, logger.NewNoOp())
	store.SetLastPage(7)
	store.MarkProcessed("123", Entry{
		Title:         "Test",
		EpisodesCount: 2,
		EntityPayload: map[string]any{"title": "Test"},
		EpisodePayloads: map[string]map[string]any{
			"123:1": {"source_episode_id": "123:1", "number": float64(1)},
		},
		MediaPayloads: map[string]map[string]any{
			"123:1|https://cdn/stream.m3u8|kodik": {"url": "https://cdn/stream.m3u8"},
		},
	})
	require.NoError(t, store.Save())

	reloaded := NewStore(path, logger.NewNoOp())
	assert.Equal(t, 7, reloaded.LastPage())
	require.True(t, reloaded.IsProcessed("123"))

	entry := reloaded.Entry("123")
	assert.Equal(t, "Test", entry.Title)
	assert.Equal(t, 2, entry.EpisodesCount)
	assert.Equal(t, "Test", entry.EntityPayload["title"])
	assert.Contains(t, entry.EpisodePayloads, "123:1")
	assert.Contains(t, entry.MediaPayloads, "123:1|https://cdn/stream.m3u8|kodik")
	assert.False(t, entry.Timestamp.IsZero())
	assert.False(t, reloaded.Snapshot().LastRun.IsZero())
}

func TestMarkProcessedReplacesEntry(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), logger.NewNoOp())

	store.MarkProcessed("9", Entry{Title: "Old", EpisodesCount: 1})
	store.MarkProcessed("9", Entry{Title: "New", EpisodesCount: 12})

	entry := store.Entry("9")
	assert.Equal(t, "New", entry.Title)
	assert.Equal(t, 12, entry.EpisodesCount)
}

func TestSaveKeepsPreviousSnapshotOnMarshalableState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store := NewStore(path, logger.NewNoOp())
	store.MarkProcessed("1", Entry{Title: "A"})
	require.NoError(t, store.Save())

	// A second save overwrites via rename; the file stays valid JSON.
	store.MarkProcessed("2", Entry{Title: "B"})
	require.NoError(t, store.Save())

	reloaded := NewStore(path, logger.NewNoOp())
	assert.True(t, reloaded.IsProcessed("1"))
	assert.True(t, reloaded.IsProcessed("2"))
}

func TestCompactRemovesOldEntries(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), logger.NewNoOp())

	store.MarkProcessed("old", Entry{
		Title:     "Old",
		Timestamp: time.Now().UTC().Add(-48 * time.Hour),
	})
	store.MarkProcessed("new", Entry{Title: "New"})

	removed := store.Compact(24 * time.Hour)

	assert.Equal(t, 1, removed)
	assert.False(t, store.IsProcessed("old"))
	assert.True(t, store.IsProcessed("new"))
}
