// Package media derives the deterministic identifiers used across runs
// and normalizes raw player links into validated HLS media links.
package media

import (
	"strconv"
	"strings"
)

// HLSSuffix is the manifest suffix a validated media link must end with.
const HLSSuffix = ".m3u8"

// manifestSuffix is appended as a best-effort fallback for link formats
// without a recognized manifest marker.
const manifestSuffix = ":hls:manifest.m3u8"

// episodeIDSeparator joins a source ID and an episode number.
const episodeIDSeparator = ":"

// resolutionTokens are trailing path segments that identify a quality
// variant whose manifest lives at "<url>.m3u8".
var resolutionTokens = []string{
	"2160p", "1440p", "1080p", "720p", "480p", "360p", "240p",
	"2160", "1440", "1080", "720", "480", "360", "240",
}

// MediaLink is a validated, import-ready media link.
type MediaLink struct {
	Type       string `json:"type"`
	URL        string `json:"url"`
	SourceName string `json:"source_name"`
	Priority   int    `json:"priority"`
}

// Payload returns the import payload for the link, also used as the
// persisted snapshot for diffing.
func (l MediaLink) Payload() map[string]any {
	return map[string]any{
		"type":        l.Type,
		"url":         l.URL,
		"source_name": l.SourceName,
		"priority":    l.Priority,
	}
}

// SourceID derives the stable source identifier from the external numeric
// catalog ID. Purely deterministic.
func SourceID(externalID int64) string {
	return strconv.FormatInt(externalID, 10)
}

// EpisodeID derives the deterministic episode identifier
// "{sourceID}:{number}".
func EpisodeID(sourceID string, number int) string {
	return sourceID + episodeIDSeparator + strconv.Itoa(number)
}

// SplitEpisodeID recovers the source ID and episode number components by
// splitting on the first separator. ok is false when the ID has no
// separator.
func SplitEpisodeID(episodeID string) (sourceID, number string, ok bool) {
	sourceID, number, ok = strings.Cut(episodeID, episodeIDSeparator)
	return sourceID, number, ok
}

// DedupeKey identifies one media link within one episode.
func DedupeKey(episodeID, url, sourceName string) string {
	return episodeID + "|" + url + "|" + sourceName
}

// NormalizeURL converts a raw player link into an HLS manifest URL on a
// best-effort basis. It never fails: unrecognized formats degrade to a
// manifest-style passthrough instead of dropping the item. Empty input
// returns "".
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Protocol-relative links are upgraded to https.
	if strings.HasPrefix(trimmed, "//") {
		trimmed = "https:" + trimmed
	}

	// Links that already carry a manifest marker pass through unchanged.
	if strings.Contains(trimmed, HLSSuffix) {
		return trimmed
	}

	// Quality-variant links get the manifest suffix appended.
	stripped := strings.TrimSuffix(trimmed, "/")
	for _, token := range resolutionTokens {
		if strings.HasSuffix(stripped, token) {
			return stripped + HLSSuffix
		}
	}

	return trimmed + manifestSuffix
}

// BuildLink validates a URL into an import-ready media link. This is the
// strict form used by the dedup path: the URL must be non-empty and end in
// the HLS suffix, otherwise the link is dropped (nil). Callers wanting
// best-effort conversion run NormalizeURL first.
func BuildLink(rawURL, sourceName string, priority int) *MediaLink {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil
	}
	if !strings.HasSuffix(strings.ToLower(trimmed), HLSSuffix) {
		return nil
	}

	return &MediaLink{
		Type:       "hls",
		URL:        trimmed,
		SourceName: sourceName,
		Priority:   priority,
	}
}
