package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goingest/internal/httpx"
	"github.com/jonesrussell/goingest/internal/logger"
	"github.com/jonesrussell/goingest/internal/ratelimit"
)

func newTestHTTPClient() *httpx.Client {
	return httpx.NewClient(
		ratelimit.New(0),
		logger.NewNoOp(),
		httpx.WithMaxRetries(0),
		httpx.WithTimeout(time.Second),
	)
}

func TestListPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "test-token", query.Get("token"))
		assert.Equal(t, "100", query.Get("limit"))
		assert.Equal(t, "2", query.Get("page"))
		assert.Equal(t, "true", query.Get("with_material_data"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"A"},{"title":"B"}],"total":250}`))
	}))
	defer srv.Close()

	client := NewClient(newTestHTTPClient(), logger.NewNoOp(),
		WithBaseURL(srv.URL),
		WithToken("test-token"),
	)

	page, err := client.ListPage(context.Background(), 100, 2)
	require.NoError(t, err)
	assert.Equal(t, 250, page.Total)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "A", page.Results[0]["title"])
}

func TestListPageClampsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"results":[],"total":0}`))
	}))
	defer srv.Close()

	client := NewClient(newTestHTTPClient(), logger.NewNoOp(), WithBaseURL(srv.URL))

	_, err := client.ListPage(context.Background(), 500, 1)
	require.NoError(t, err)
}

func TestFetchEpisodesDistinguishesEmptyFromFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		query := r.URL.Query()

		switch query.Get("metadata_id") {
		case "1":
			_, _ = w.Write([]byte(`{"results":[{"link":"//cdn/p"}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"results":[]}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := NewClient(newTestHTTPClient(), logger.NewNoOp(), WithBaseURL(srv.URL))

	results, err := client.FetchEpisodes(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Confirmed zero episodes: empty slice, no error.
	results, err = client.FetchEpisodes(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)

	// Hard failure: nil with error.
	results, err = client.FetchEpisodes(context.Background(), 3)
	require.Error(t, err)
	assert.Nil(t, results)
}
