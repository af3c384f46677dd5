// Package importer provides the client for the downstream import API.
// All three endpoints are idempotent upserts keyed by source name plus
// source-side identifiers; a non-success response is not retried within a
// run, the next scheduled crawl picks it up.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonesrussell/goingest/internal/httpx"
	"github.com/jonesrussell/goingest/internal/logger"
)

// ErrImportRejected is returned when the import API answers without a
// success flag.
var ErrImportRejected = errors.New("import rejected")

// internalTokenHeader authenticates service-to-service import calls.
const internalTokenHeader = "X-Internal-Token"

// Client is a typed wrapper over the retrying HTTP client for the import
// API.
type Client struct {
	http          *httpx.Client
	baseURL       string
	internalToken string
	sourceName    string
	log           logger.Interface
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL sets the import API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
			baseURL = baseURL[:len(baseURL)-1]
		}
		c.baseURL = baseURL
	}
}

// WithInternalToken sets the internal service token.
func WithInternalToken(token string) Option {
	return func(c *Client) {
		c.internalToken = token
	}
}

// WithSourceName sets the source name stamped on every import.
func WithSourceName(sourceName string) Option {
	return func(c *Client) {
		c.sourceName = sourceName
	}
}

// NewClient creates an import API client.
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

// importResponse is the common success-flag envelope of the import API.
type importResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors"`
}

// ImportEntity upserts one entity record.
func (c *Client) ImportEntity(ctx context.Context, payload map[string]any) error {
	// The import API keys entities by source name; it is always stamped
	// here so a caller-built payload cannot claim another source.
	body := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		body[key] = value
	}
	body["source_name"] = c.sourceName

	result, err := c.post(ctx, "/api/v1/internal/import/entity", body)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrImportRejected, result.Message)
	}

	c.log.Debug("imported entity", "title", payload["title"])
	return nil
}

// ImportEpisodes upserts a batch of episode records for one entity. An
// empty batch is a no-op. The endpoint is additive: episodes missing from
// the batch are never deleted downstream.
func (c *Client) ImportEpisodes(ctx context.Context, entitySourceID string, episodes []map[string]any) error {
	if len(episodes) == 0 {
		return nil
	}

	body := map[string]any{
		"source_name":      c.sourceName,
		"entity_source_id": entitySourceID,
		"episodes":         episodes,
	}

	result, err := c.post(ctx, "/api/v1/internal/import/episodes", body)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %v", ErrImportRejected, result.Errors)
	}

	c.log.Debug("imported episodes",
		"entity_source_id", entitySourceID,
		"imported", result.Imported,
		"total", result.Total,
	)
	return nil
}

// ImportMediaLink upserts one media link for one episode.
func (c *Client) ImportMediaLink(ctx context.Context, sourceEpisodeID string, link map[string]any) error {
	body := map[string]any{
		"source_name":       c.sourceName,
		"source_episode_id": sourceEpisodeID,
		"player":            link,
	}

	result, err := c.post(ctx, "/api/v1/internal/import/media", body)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrImportRejected, result.Message)
	}

	return nil
}

// post sends one import call with the internal token attached.
func (c *Client) post(ctx context.Context, path string, body map[string]any) (*importResponse, error) {
	header := http.Header{}
	header.Set(internalTokenHeader, c.internalToken)

	resp, err := c.http.PostJSON(ctx, c.baseURL+path, body, header)
	if err != nil {
		return nil, fmt.Errorf("import call %s failed: %w", path, err)
	}

	var result importResponse
	if decodeErr := resp.DecodeJSON(&result); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode import response from %s: %w", path, decodeErr)
	}

	return &result, nil
}
