package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIDIsDeterministic(t *testing.T) {
	assert.Equal(t, "12345", SourceID(12345))
	assert.Equal(t, "1", SourceID(1))
	assert.Equal(t, SourceID(999999), SourceID(999999))
}

func TestEpisodeIDFormat(t *testing.T) {
	assert.Equal(t, "12345:1", EpisodeID("12345", 1))
	assert.Equal(t, "12345:100", EpisodeID("12345", 100))
	assert.Equal(t, "999:5", EpisodeID("999", 5))
}

func TestSplitEpisodeIDRecoversComponents(t *testing.T) {
	sourceID, number, ok := SplitEpisodeID("12345:1")
	require.True(t, ok)
	assert.Equal(t, "12345", sourceID)
	assert.Equal(t, "1", number)

	// Split happens on the first separator only.
	sourceID, number, ok = SplitEpisodeID("a:b:c")
	require.True(t, ok)
	assert.Equal(t, "a", sourceID)
	assert.Equal(t, "b:c", number)

	_, _, ok = SplitEpisodeID("no-separator")
	assert.False(t, ok)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "empty returns empty",
			raw:      "",
			expected: "",
		},
		{
			name:     "whitespace only returns empty",
			raw:      "   ",
			expected: "",
		},
		{
			name:     "protocol-relative quality link",
			raw:      "//cdn.example.com/video/123/abc/720p",
			expected: "https://cdn.example.com/video/123/abc/720p.m3u8",
		},
		{
			name:     "existing manifest unchanged",
			raw:      "https://cdn.example.com/playlist.m3u8",
			expected: "https://cdn.example.com/playlist.m3u8",
		},
		{
			name:     "manifest with query unchanged",
			raw:      "https://cdn.example.com/playlist.m3u8?token=x",
			expected: "https://cdn.example.com/playlist.m3u8?token=x",
		},
		{
			name:     "quality link with trailing slash",
			raw:      "https://cdn.example.com/video/480/",
			expected: "https://cdn.example.com/video/480.m3u8",
		},
		{
			name:     "unrecognized format gets manifest fallback",
			raw:      "https://cdn.example.com/stream.mp4",
			expected: "https://cdn.example.com/stream.mp4:hls:manifest.m3u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURL(tt.raw))
		})
	}
}

func TestBuildLinkRejectsEmptyAndNonHLS(t *testing.T) {
	assert.Nil(t, BuildLink("", "kodik", 0))
	assert.Nil(t, BuildLink("   ", "kodik", 0))
	assert.Nil(t, BuildLink("http://x/video.mp4", "kodik", 0))
}

func TestBuildLinkAcceptsManifestURL(t *testing.T) {
	link := BuildLink("https://cdn/stream.m3u8", "kodik", 1)

	require.NotNil(t, link)
	assert.Equal(t, &MediaLink{
		Type:       "hls",
		URL:        "https://cdn/stream.m3u8",
		SourceName: "kodik",
		Priority:   1,
	}, link)
}

func TestBuildLinkPayloadShape(t *testing.T) {
	link := BuildLink("https://cdn/stream.m3u8", "kodik", 0)
	require.NotNil(t, link)

	assert.Equal(t, map[string]any{
		"type":        "hls",
		"url":         "https://cdn/stream.m3u8",
		"source_name": "kodik",
		"priority":    0,
	}, link.Payload())
}

func TestDedupeKey(t *testing.T) {
	key := DedupeKey("123:1", "https://cdn/stream.m3u8", "kodik")
	assert.Equal(t, "123:1|https://cdn/stream.m3u8|kodik", key)
}
