// Package orchestrator composes the source clients, diff engine, and
// state store into the crawl/reconcile/import pipeline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonesrussell/goingest/internal/catalog"
	"github.com/jonesrussell/goingest/internal/logger"
	"github.com/jonesrussell/goingest/internal/metadata"
	"github.com/jonesrussell/goingest/internal/metrics"
	"github.com/jonesrussell/goingest/internal/state"
)

// Fallback values applied when the configuration is incomplete.
const (
	defaultConcurrency      = 4
	defaultPageSize         = 100
	defaultFailureThreshold = 3
)

// ErrEntityFailed is returned by ProcessOne when the entity pipeline did
// not complete.
var ErrEntityFailed = errors.New("entity processing failed")

// CatalogSource lists catalog pages and fetches raw episode data.
type CatalogSource interface {
	ListPage(ctx context.Context, limit, page int) (*catalog.ListPage, error)
	FetchEpisodes(ctx context.Context, externalID int64) ([]map[string]any, error)
}

// MetadataSource fetches and parses entity metadata.
type MetadataSource interface {
	FetchByID(ctx context.Context, externalID int64) (map[string]any, error)
	ParseEntity(raw map[string]any) metadata.Record
}

// ImportAPI pushes normalized records downstream.
type ImportAPI interface {
	ImportEntity(ctx context.Context, payload map[string]any) error
	ImportEpisodes(ctx context.Context, entitySourceID string, episodes []map[string]any) error
	ImportMediaLink(ctx context.Context, sourceEpisodeID string, link map[string]any) error
}

// StateStore persists per-entity snapshots and the crawl cursor.
type StateStore interface {
	Entry(sourceID string) state.Entry
	MarkProcessed(sourceID string, entry state.Entry)
	LastPage() int
	SetLastPage(page int)
	Save() error
}

// Config holds the orchestrator's crawl parameters.
type Config struct {
	// Concurrency caps simultaneous entity pipelines per page.
	Concurrency int
	// PageSize is the catalog listing page size.
	PageSize int
	// FailureThreshold is the consecutive all-failed-pages count that
	// trips the circuit breaker.
	FailureThreshold int
	// SourceName identifies this source to the import API.
	SourceName string
}

// Orchestrator drives the crawl loop and the per-entity pipeline.
type Orchestrator struct {
	catalog  CatalogSource
	metadata MetadataSource
	importer ImportAPI
	store    StateStore
	log      logger.Interface
	stats    *metrics.Metrics
	cfg      Config
	sem      chan struct{}
}

// New creates an orchestrator with the given collaborators.
func New(
	catalogSource CatalogSource,
	metadataSource MetadataSource,
	importAPI ImportAPI,
	store StateStore,
	log logger.Interface,
	cfg Config,
) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}

	return &Orchestrator{
		catalog:  catalogSource,
		metadata: metadataSource,
		importer: importAPI,
		store:    store,
		log:      log,
		stats:    metrics.New(),
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// Stats returns the run counters.
func (o *Orchestrator) Stats() *metrics.Metrics {
	return o.stats
}

// Run pages through the catalog until a stop condition is reached:
// the max-pages limit, the circuit breaker, or source exhaustion. Pages
// are strictly sequential; entities within a page run concurrently under
// the semaphore. State is flushed after every page boundary. Entity-level
// failures never fail the run; only context cancellation does.
func (o *Orchestrator) Run(ctx context.Context, maxPages int) error {
	log := o.log.With("run_id", uuid.NewString())
	log.Info("starting ingestion run",
		"source_name", o.cfg.SourceName,
		"concurrency", o.cfg.Concurrency,
		"page_size", o.cfg.PageSize,
		"max_pages", maxPages,
	)

	page := 1
	consecutiveFailures := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if maxPages > 0 && page > maxPages {
			log.Info("reached max pages limit", "max_pages", maxPages)
			break
		}

		if consecutiveFailures >= o.cfg.FailureThreshold {
			log.Error("circuit breaker tripped, halting crawl",
				"consecutive_failed_pages", consecutiveFailures,
				"threshold", o.cfg.FailureThreshold,
			)
			break
		}

		listing, err := o.catalog.ListPage(ctx, o.cfg.PageSize, page)
		if err != nil {
			log.Error("failed to list catalog page", "page", page, "error", err.Error())
			break
		}
		if listing == nil || len(listing.Results) == 0 {
			log.Info("no more results from catalog", "page", page)
			break
		}

		log.Info("processing catalog page", "page", page, "entities", len(listing.Results))

		succeeded, failed := o.processPage(ctx, log, listing.Results)
		if succeeded > 0 {
			consecutiveFailures = 0
		} else {
			consecutiveFailures++
			log.Warn("all entities on page failed",
				"page", page,
				"failed", failed,
				"consecutive_failed_pages", consecutiveFailures,
			)
		}

		o.store.SetLastPage(page)
		if saveErr := o.store.Save(); saveErr != nil {
			log.Error("failed to persist state", "error", saveErr.Error())
		}

		if page*o.cfg.PageSize >= listing.Total {
			log.Info("reached last page", "page", page, "total", listing.Total)
			break
		}
		page++
	}

	snap := o.stats.Snapshot()
	log.Info("ingestion run completed",
		"processed", snap.EntitiesProcessed,
		"failed", snap.EntitiesFailed,
		"entities_imported", snap.EntitiesImported,
		"episodes_imported", snap.EpisodesImported,
		"media_imported", snap.MediaImported,
		"media_failed", snap.MediaFailed,
		"duration", o.stats.Elapsed().String(),
	)

	return nil
}

// processPage dispatches every entity on the page concurrently and waits
// for all of them to settle. Individual failures are counted, never
// propagated.
func (o *Orchestrator) processPage(
	ctx context.Context,
	log logger.Interface,
	results []map[string]any,
) (succeeded, failed int) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, item := range results {
		externalID, ok := catalog.ExtractExternalID(item)
		if !ok {
			title, _ := item["title"].(string)
			log.Warn("no metadata id found for catalog item", "title", title)
			continue
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()

			o.sem <- struct{}{}
			defer func() { <-o.sem }()

			processed := o.safeProcess(ctx, id)
			o.stats.RecordEntity(processed)

			mu.Lock()
			if processed {
				succeeded++
			} else {
				failed++
			}
			mu.Unlock()
		}(externalID)
	}

	wg.Wait()

	return succeeded, failed
}

// safeProcess runs the entity pipeline, converting a panic into a counted
// failure so one entity can never take down the page loop.
func (o *Orchestrator) safeProcess(ctx context.Context, externalID int64) (processed bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("panic while processing entity",
				"external_id", externalID,
				"panic", fmt.Sprint(r),
			)
			processed = false
		}
	}()

	return o.processEntity(ctx, externalID)
}

// ProcessOne runs the pipeline for a single entity and flushes state.
func (o *Orchestrator) ProcessOne(ctx context.Context, externalID int64) error {
	processed := o.safeProcess(ctx, externalID)

	if saveErr := o.store.Save(); saveErr != nil {
		o.log.Error("failed to persist state", "error", saveErr.Error())
	}

	if !processed {
		return fmt.Errorf("%w: external id %d", ErrEntityFailed, externalID)
	}

	return nil
}
