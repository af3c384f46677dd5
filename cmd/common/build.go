package common

import (
	"fmt"

	"github.com/jonesrussell/goingest/internal/catalog"
	"github.com/jonesrussell/goingest/internal/httpx"
	"github.com/jonesrussell/goingest/internal/importer"
	"github.com/jonesrussell/goingest/internal/metadata"
	"github.com/jonesrussell/goingest/internal/orchestrator"
	"github.com/jonesrussell/goingest/internal/ratelimit"
	"github.com/jonesrussell/goingest/internal/state"
)

// BuildOrchestrator wires the HTTP client, source clients, state store,
// and orchestrator from configuration. All outbound requests share one
// rate limiter.
func BuildOrchestrator(deps CommandDeps) (*orchestrator.Orchestrator, error) {
	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	limiter := ratelimit.New(cfg.Crawl.RateLimitRPS)
	httpClient := httpx.NewClient(limiter, deps.Logger,
		httpx.WithTimeout(cfg.Crawl.RequestTimeout),
		httpx.WithMaxRetries(cfg.Crawl.MaxRetries),
		httpx.WithBackoff(cfg.Crawl.BackoffBase, cfg.Crawl.BackoffMax),
	)

	catalogClient := catalog.NewClient(httpClient, deps.Logger,
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithToken(cfg.Catalog.Token),
	)
	metadataClient := metadata.NewClient(httpClient, deps.Logger,
		metadata.WithBaseURL(cfg.Metadata.BaseURL),
	)
	importClient := importer.NewClient(httpClient, deps.Logger,
		importer.WithBaseURL(cfg.Import.BaseURL),
		importer.WithInternalToken(cfg.Import.InternalToken),
		importer.WithSourceName(cfg.Import.SourceName),
	)

	store := state.NewStore(cfg.Crawl.StatePath, deps.Logger)

	return orchestrator.New(
		catalogClient,
		metadataClient,
		importClient,
		store,
		deps.Logger,
		orchestrator.Config{
			Concurrency:      cfg.Crawl.Concurrency,
			PageSize:         cfg.Catalog.PageSize,
			FailureThreshold: cfg.Crawl.FailureThreshold,
			SourceName:       cfg.Import.SourceName,
		},
	), nil
}
