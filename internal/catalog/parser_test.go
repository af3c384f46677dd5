package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractExternalID(t *testing.T) {
	tests := []struct {
		name     string
		item     map[string]any
		expected int64
		found    bool
	}{
		{
			name: "nested material data preferred",
			item: map[string]any{
				"material_data": map[string]any{"metadata_id": float64(5081)},
				"metadata_id":   float64(999),
			},
			expected: 5081,
			found:    true,
		},
		{
			name:     "direct field fallback",
			item:     map[string]any{"metadata_id": "12345"},
			expected: 12345,
			found:    true,
		},
		{
			name: "string inside material data",
			item: map[string]any{
				"material_data": map[string]any{"metadata_id": "42"},
			},
			expected: 42,
			found:    true,
		},
		{
			name:  "missing everywhere",
			item:  map[string]any{"title": "Unknown"},
			found: false,
		},
		{
			name: "unparseable string",
			item: map[string]any{"metadata_id": "n/a"},
		},
		{
			name: "zero is treated as missing",
			item: map[string]any{"metadata_id": float64(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractExternalID(tt.item)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, id)
			}
		})
	}
}

func TestParseEpisodesMergesTranslations(t *testing.T) {
	results := []map[string]any{
		{
			"link": "//cdn/player-a",
			"translation": map[string]any{
				"id":    float64(1),
				"title": "Team A",
			},
			"seasons": map[string]any{
				"1": map[string]any{
					"1": map[string]any{"title": "Pilot"},
					"2": map[string]any{"title": "Second"},
				},
			},
		},
		{
			"link": "//cdn/player-b",
			"seasons": map[string]any{
				"1": map[string]any{
					"1": map[string]any{},
				},
			},
		},
	}

	episodes := ParseEpisodes(results)

	require.Len(t, episodes, 2)

	assert.Equal(t, 1, episodes[0].Number)
	assert.Equal(t, "Pilot", episodes[0].Title)
	assert.ElementsMatch(t, []string{"//cdn/player-a", "//cdn/player-b"}, episodes[0].Links)

	assert.Equal(t, 2, episodes[1].Number)
	assert.Equal(t, "Second", episodes[1].Title)
	assert.Equal(t, []string{"//cdn/player-a"}, episodes[1].Links)
}

func TestParseEpisodesSkipsMalformedEntries(t *testing.T) {
	results := []map[string]any{
		{
			// No link: the whole result is unusable.
			"seasons": map[string]any{
				"1": map[string]any{"1": map[string]any{}},
			},
		},
		{
			"link":    "//cdn/player",
			"seasons": map[string]any{},
		},
		{
			"link": "//cdn/player",
			"seasons": map[string]any{
				"1":     "not-a-map",
				"extra": map[string]any{"abc": map[string]any{}, "3": map[string]any{"title": "Third"}},
			},
		},
	}

	episodes := ParseEpisodes(results)

	require.Len(t, episodes, 1)
	assert.Equal(t, 3, episodes[0].Number)
	assert.Equal(t, "Third", episodes[0].Title)
}

func TestParseEpisodesSortsByNumber(t *testing.T) {
	results := []map[string]any{
		{
			"link": "//cdn/player",
			"seasons": map[string]any{
				"1": map[string]any{
					"10": map[string]any{},
					"2":  map[string]any{},
					"1":  map[string]any{},
				},
			},
		},
	}

	episodes := ParseEpisodes(results)

	require.Len(t, episodes, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{episodes[0].Number, episodes[1].Number, episodes[2].Number})
}
