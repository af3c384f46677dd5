// Package catalog provides the client and parsing boundary for the
// external catalog source. Payloads are opaque JSON; the package maps the
// handful of fields this service needs into typed values in one place.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jonesrussell/goingest/internal/httpx"
	"github.com/jonesrussell/goingest/internal/logger"
)

// maxPageSize is the largest page the catalog source serves.
const maxPageSize = 100

// Client is a typed wrapper over the retrying HTTP client for the catalog
// source API.
type Client struct {
	http    *httpx.Client
	baseURL string
	token   string
	log     logger.Interface
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL sets the catalog API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = trimTrailingSlash(baseURL)
	}
}

// WithToken sets the catalog API token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a catalog source client.
func NewClient(httpClient *httpx.Client, log logger.Interface, opts ...Option) *Client {
	client := &Client{
		http: httpClient,
		log:  log,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ListPage fetches one page of the catalog listing. The limit is clamped
// to the source's maximum page size.
func (c *Client) ListPage(ctx context.Context, limit, page int) (*ListPage, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	params := url.Values{}
	params.Set("token", c.token)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))
	params.Set("with_material_data", "true")

	resp, err := c.http.Get(ctx, c.baseURL+"/list?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog page %d: %w", page, err)
	}

	var listing ListPage
	if decodeErr := resp.DecodeJSON(&listing); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode catalog page %d: %w", page, decodeErr)
	}

	c.log.Debug("fetched catalog page",
		"page", page,
		"results", len(listing.Results),
		"total", listing.Total,
	)

	return &listing, nil
}

// FetchEpisodes fetches the raw episode-bearing results for one external
// ID. A nil result with an error signals a hard fetch failure; an empty
// slice signals confirmed zero episodes.
func (c *Client) FetchEpisodes(ctx context.Context, externalID int64) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("token", c.token)
	params.Set("metadata_id", strconv.FormatInt(externalID, 10))
	params.Set("with_episodes", "true")

	resp, err := c.http.Get(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episodes for %d: %w", externalID, err)
	}

	var search struct {
		Results []map[string]any `json:"results"`
	}
	if decodeErr := resp.DecodeJSON(&search); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode episodes for %d: %w", externalID, decodeErr)
	}

	if search.Results == nil {
		return []map[string]any{}, nil
	}

	c.log.Debug("fetched episode results",
		"external_id", externalID,
		"results", len(search.Results),
	)

	return search.Results, nil
}

// trimTrailingSlash normalizes a configured base URL.
func trimTrailingSlash(base string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}
