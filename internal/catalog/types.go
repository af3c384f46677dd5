package catalog

// ListPage is one page of the catalog listing.
type ListPage struct {
	Results []map[string]any `json:"results"`
	Total   int              `json:"total"`
}

// Episode is one parsed episode with the raw player links contributed by
// every translation that covers it.
type Episode struct {
	Number int
	Title  string
	Links  []string
}

// catalogItem is the typed slice of a raw catalog result this service
// consumes; everything else in the payload stays opaque.
type catalogItem struct {
	Link    string         `mapstructure:"link"`
	Title   string         `mapstructure:"title"`
	Seasons map[string]any `mapstructure:"seasons"`
}
