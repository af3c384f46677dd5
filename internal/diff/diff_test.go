package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDetectsChangedAndAddedKeys(t *testing.T) {
	old := map[string]any{"a": 1, "b": 2}
	updated := map[string]any{"a": 1, "b": 3, "c": 4}

	changes := Compute(updated, old)

	require.Len(t, changes, 2)
	assert.Equal(t, Change{Old: 2, New: 3}, changes["b"])
	assert.Equal(t, Change{Old: nil, New: 4}, changes["c"])
	assert.NotContains(t, changes, "a")
}

func TestComputeNilOldReportsEverything(t *testing.T) {
	updated := map[string]any{"title": "x", "year": 2020}

	changes := Compute(updated, nil)

	require.Len(t, changes, 2)
	assert.Equal(t, Change{Old: nil, New: "x"}, changes["title"])
	assert.Equal(t, Change{Old: nil, New: 2020}, changes["year"])
}

func TestComputeIgnoresKeysOnlyInOld(t *testing.T) {
	old := map[string]any{"a": 1, "removed": true}
	updated := map[string]any{"a": 1}

	assert.Empty(t, Compute(updated, old))
}

func TestComputeDeepEquality(t *testing.T) {
	old := map[string]any{"genres": []any{"action", "drama"}}

	same := map[string]any{"genres": []any{"action", "drama"}}
	assert.Empty(t, Compute(same, old))

	reordered := map[string]any{"genres": []any{"drama", "action"}}
	changes := Compute(reordered, old)
	require.Len(t, changes, 1)
	assert.Contains(t, changes, "genres")
}

func TestComputeEmptyNewMeansNoWrite(t *testing.T) {
	assert.Empty(t, Compute(nil, map[string]any{"a": 1}))
	assert.Empty(t, Compute(map[string]any{}, nil))
}

func TestNormalizeMatchesJSONReload(t *testing.T) {
	built := Normalize(map[string]any{
		"number": 3,
		"genres": []string{"action"},
		"nested": map[string]any{"year": 2021},
	})

	reloaded := map[string]any{
		"number": float64(3),
		"genres": []any{"action"},
		"nested": map[string]any{"year": float64(2021)},
	}

	assert.Empty(t, Compute(built, reloaded))
	assert.Empty(t, Compute(reloaded, built))
}

func TestNormalizeNilStaysNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}
