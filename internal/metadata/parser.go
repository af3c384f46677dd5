package metadata

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Entity status values understood by the import API.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusUpcoming  = "upcoming"
)

// statusMap translates the metadata source's status vocabulary.
var statusMap = map[string]string{
	"ongoing":  StatusOngoing,
	"released": StatusCompleted,
	"anons":    StatusUpcoming,
}

// Record is the normalized metadata for one catalog item.
type Record struct {
	SourceID          string
	Title             string
	AlternativeTitles []string
	Description       string
	Year              int
	Status            string
	Poster            string
	Genres            []string
}

// ImportPayload builds the import API body for the record. The same map
// is persisted as the diffing snapshot.
func (r Record) ImportPayload(sourceName string) map[string]any {
	payload := map[string]any{
		"source_name": sourceName,
		"source_id":   r.SourceID,
		"title":       r.Title,
		"description": nilIfEmpty(r.Description),
		"status":      nilIfEmpty(r.Status),
		"poster":      nilIfEmpty(r.Poster),
	}

	if r.Year != 0 {
		payload["year"] = r.Year
	} else {
		payload["year"] = nil
	}
	if len(r.AlternativeTitles) > 0 {
		payload["alternative_titles"] = r.AlternativeTitles
	} else {
		payload["alternative_titles"] = nil
	}
	if len(r.Genres) > 0 {
		payload["genres"] = r.Genres
	} else {
		payload["genres"] = nil
	}

	return payload
}

// rawRecord is the typed slice of the metadata payload this service maps.
type rawRecord struct {
	ID          any    `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Localized   string `mapstructure:"localized"`
	Native      any    `mapstructure:"native"`
	English     any    `mapstructure:"english"`
	Description string `mapstructure:"description"`
	AiredOn     string `mapstructure:"aired_on"`
	Status      string `mapstructure:"status"`
	Image       any    `mapstructure:"image"`
	Genres      []any  `mapstructure:"genres"`
}

// ParseEntity maps a raw metadata record into a normalized Record. All
// defensive handling of the source's loosely typed payload lives here;
// missing or malformed fields degrade to zero values, never errors.
func (c *Client) ParseEntity(raw map[string]any) Record {
	return ParseEntity(raw, posterBase(c.baseURL))
}

// ParseEntity maps a raw metadata record using posterBase to absolutize
// relative poster paths.
func ParseEntity(raw map[string]any, posterBase string) Record {
	var decoded rawRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err == nil {
		_ = decoder.Decode(raw)
	}

	title := decoded.Name
	if title == "" {
		title = decoded.Localized
	}

	record := Record{
		SourceID:    sourceIDString(decoded.ID),
		Title:       title,
		Description: decoded.Description,
		Status:      statusMap[decoded.Status],
		Poster:      parsePoster(decoded.Image, posterBase),
		Genres:      parseGenres(decoded.Genres),
	}

	record.AlternativeTitles = alternativeTitles(decoded, title)

	if len(decoded.AiredOn) >= 4 {
		if year, yearErr := strconv.Atoi(decoded.AiredOn[:4]); yearErr == nil {
			record.Year = year
		}
	}

	return record
}

// alternativeTitles collects the localized, native, and english variants
// that differ from the primary title.
func alternativeTitles(decoded rawRecord, title string) []string {
	var titles []string

	if decoded.Localized != "" && decoded.Localized != title {
		titles = append(titles, decoded.Localized)
	}

	if native := joinStrings(decoded.Native); native != "" {
		titles = append(titles, native)
	}

	for _, english := range stringList(decoded.English) {
		if english != "" && english != title {
			titles = append(titles, english)
		}
	}

	return titles
}

// parsePoster resolves the poster URL from the image field, which may be
// an object of size variants or a bare string. Relative paths are made
// absolute against posterBase.
func parsePoster(image any, posterBase string) string {
	var poster string

	switch v := image.(type) {
	case map[string]any:
		for _, key := range []string{"original", "preview", "x96"} {
			if value, _ := v[key].(string); value != "" {
				poster = value
				break
			}
		}
	case string:
		poster = v
	}

	if strings.HasPrefix(poster, "/") {
		poster = posterBase + poster
	}

	return poster
}

// parseGenres accepts both object and bare-string genre entries.
func parseGenres(raw []any) []string {
	var genres []string

	for _, entry := range raw {
		switch v := entry.(type) {
		case map[string]any:
			if name, _ := v["name"].(string); name != "" {
				genres = append(genres, name)
			}
		case string:
			if v != "" {
				genres = append(genres, v)
			}
		}
	}

	return genres
}

// stringList coerces a string-or-list field into a slice.
func stringList(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var result []string
		for _, entry := range v {
			if s, _ := entry.(string); s != "" {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

// joinStrings renders a string-or-list field as a single comma-joined
// value.
func joinStrings(value any) string {
	return strings.Join(stringList(value), ", ")
}

// sourceIDString stringifies the loosely typed metadata ID.
func sourceIDString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// posterBase derives the scheme://host prefix for relative poster paths.
func posterBase(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return baseURL
	}
	return parsed.Scheme + "://" + parsed.Host
}

// nilIfEmpty maps empty strings to JSON null in import payloads.
func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
