package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEntityFullRecord(t *testing.T) {
	raw := map[string]any{
		"id":          float64(5081),
		"name":        "Stellar Drift",
		"localized":   "Звёздный дрейф",
		"native":      []any{"ステラドリフト"},
		"english":     []any{"Stellar Drift", "Star Drift"},
		"description": "A ship adrift.",
		"aired_on":    "2011-04-06",
		"status":      "released",
		"image": map[string]any{
			"original": "/system/posters/original/5081.jpg",
			"preview":  "/system/posters/preview/5081.jpg",
		},
		"genres": []any{
			map[string]any{"name": "Sci-Fi"},
			"Drama",
		},
	}

	record := ParseEntity(raw, "https://meta.example.com")

	assert.Equal(t, "5081", record.SourceID)
	assert.Equal(t, "Stellar Drift", record.Title)
	assert.Equal(t, []string{"Звёздный дрейф", "ステラドリフト", "Star Drift"}, record.AlternativeTitles)
	assert.Equal(t, "A ship adrift.", record.Description)
	assert.Equal(t, 2011, record.Year)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, "https://meta.example.com/system/posters/original/5081.jpg", record.Poster)
	assert.Equal(t, []string{"Sci-Fi", "Drama"}, record.Genres)
}

func TestParseEntityTitleFallback(t *testing.T) {
	record := ParseEntity(map[string]any{
		"id":        float64(1),
		"localized": "Локализованное",
	}, "")

	assert.Equal(t, "Локализованное", record.Title)
	// The fallback title is not duplicated into alternatives.
	assert.Empty(t, record.AlternativeTitles)
}

func TestParseEntityStatusMapping(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"ongoing", StatusOngoing},
		{"released", StatusCompleted},
		{"anons", StatusUpcoming},
		{"something-else", ""},
		{"", ""},
	}

	for _, tt := range tests {
		record := ParseEntity(map[string]any{"status": tt.source}, "")
		assert.Equal(t, tt.expected, record.Status, "status %q", tt.source)
	}
}

func TestParseEntityPosterVariants(t *testing.T) {
	// Bare string, already absolute.
	record := ParseEntity(map[string]any{"image": "https://cdn/p.jpg"}, "https://meta.example.com")
	assert.Equal(t, "https://cdn/p.jpg", record.Poster)

	// Preview fallback when original is missing.
	record = ParseEntity(map[string]any{
		"image": map[string]any{"preview": "/p/preview.jpg"},
	}, "https://meta.example.com")
	assert.Equal(t, "https://meta.example.com/p/preview.jpg", record.Poster)

	// Missing image.
	record = ParseEntity(map[string]any{}, "https://meta.example.com")
	assert.Empty(t, record.Poster)
}

func TestParseEntityMalformedFieldsDegrade(t *testing.T) {
	record := ParseEntity(map[string]any{
		"id":       "5081",
		"name":     "X",
		"aired_on": "soon",
		"genres":   []any{float64(3), map[string]any{"title": "wrong key"}},
		"native":   float64(12),
	}, "")

	assert.Equal(t, "5081", record.SourceID)
	assert.Equal(t, "X", record.Title)
	assert.Zero(t, record.Year)
	assert.Empty(t, record.Genres)
}

func TestImportPayloadNullsEmptyFields(t *testing.T) {
	payload := Record{SourceID: "1", Title: "X"}.ImportPayload("kodik")

	assert.Equal(t, "kodik", payload["source_name"])
	assert.Equal(t, "1", payload["source_id"])
	assert.Equal(t, "X", payload["title"])
	assert.Nil(t, payload["description"])
	assert.Nil(t, payload["status"])
	assert.Nil(t, payload["poster"])
	assert.Nil(t, payload["year"])
	assert.Nil(t, payload["alternative_titles"])
	assert.Nil(t, payload["genres"])
}
