package catalog

import (
	"sort"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// ExtractExternalID pulls the cross-reference metadata ID out of a raw
// catalog item. The nested material-data block is preferred; the direct
// field is the fallback. ok is false when neither yields a usable ID.
func ExtractExternalID(item map[string]any) (int64, bool) {
	if material, isMap := item["material_data"].(map[string]any); isMap {
		if id, idOK := toInt64(material["metadata_id"]); idOK && id != 0 {
			return id, true
		}
	}

	id, ok := toInt64(item["metadata_id"])
	return id, ok && id != 0
}

// ParseEpisodes flattens raw search results into a deduplicated,
// number-sorted episode list. Each result contributes its player link to
// every episode it covers; at most one Episode exists per number.
func ParseEpisodes(results []map[string]any) []Episode {
	byNumber := make(map[int]*Episode)

	for _, raw := range results {
		var item catalogItem
		if err := mapstructure.Decode(raw, &item); err != nil {
			continue
		}
		if item.Link == "" || len(item.Seasons) == 0 {
			continue
		}

		for _, seasonRaw := range item.Seasons {
			episodes, isMap := seasonRaw.(map[string]any)
			if !isMap {
				continue
			}

			for numberStr, episodeRaw := range episodes {
				number, err := strconv.Atoi(numberStr)
				if err != nil {
					continue
				}

				episode, exists := byNumber[number]
				if !exists {
					episode = &Episode{Number: number}
					byNumber[number] = episode
				}

				if episode.Title == "" {
					episode.Title = episodeTitle(episodeRaw)
				}
				episode.Links = append(episode.Links, item.Link)
			}
		}
	}

	parsed := make([]Episode, 0, len(byNumber))
	for _, episode := range byNumber {
		parsed = append(parsed, *episode)
	}
	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].Number < parsed[j].Number
	})

	return parsed
}

// episodeTitle extracts a title from the per-episode value, which may be
// an object or a bare string link.
func episodeTitle(raw any) string {
	data, isMap := raw.(map[string]any)
	if !isMap {
		return ""
	}

	title, _ := data["title"].(string)
	return title
}

// toInt64 coerces the loosely typed ID representations the source emits.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), v == float64(int64(v))
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
