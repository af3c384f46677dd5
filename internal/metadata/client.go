// Package metadata provides the client and parsing boundary for the
// external metadata source that catalog entries are cross-referenced
// against.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonesrussell/goingest/internal/httpx"
	"github.com/jonesrussell/goingest/internal/logger"
)

// Client is a typed wrapper over the retrying HTTP client for the
// metadata source API.
type Client struct {
	http    *httpx.Client
	baseURL string
	log     logger.Interface
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL sets the metadata API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
			baseURL = baseURL[:len(baseURL)-1]
		}
		c.baseURL = baseURL
	}
}

// NewClient creates a metadata source client.
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

// FetchByID fetches the raw metadata record for one external ID. A nil
// record without an error means the source has no entry for the ID.
func (c *Client) FetchByID(ctx context.Context, externalID int64) (map[string]any, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("%s/titles/%d", c.baseURL, externalID))
	if err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			c.log.Debug("no metadata record", "external_id", externalID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch metadata for %d: %w", externalID, err)
	}

	var record map[string]any
	if decodeErr := resp.DecodeJSON(&record); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode metadata for %d: %w", externalID, decodeErr)
	}

	return record, nil
}
