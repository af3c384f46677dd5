package orchestrator

import (
	"context"
	"time"

	"github.com/jonesrussell/goingest/internal/catalog"
	"github.com/jonesrussell/goingest/internal/diff"
	"github.com/jonesrussell/goingest/internal/logger"
	"github.com/jonesrussell/goingest/internal/media"
	"github.com/jonesrussell/goingest/internal/state"
)

// processEntity runs the full pipeline for one entity: metadata, entity
// import, episodes, media links, then a state snapshot. Returns false if
// the entity should be retried on a later run; media-link failures alone
// do not fail the entity.
func (o *Orchestrator) processEntity(ctx context.Context, externalID int64) bool {
	sourceID := media.SourceID(externalID)
	log := o.log.With("source_id", sourceID)

	raw, err := o.metadata.FetchByID(ctx, externalID)
	if err != nil {
		log.Error("failed to fetch metadata", "error", err.Error())
		return false
	}
	if len(raw) == 0 {
		log.Warn("no metadata found for entity")
		return false
	}

	record := o.metadata.ParseEntity(raw)
	record.SourceID = sourceID

	prev := o.store.Entry(sourceID)

	entityPayload := diff.Normalize(record.ImportPayload(o.cfg.SourceName))
	entityDiff := diff.Compute(entityPayload, prev.EntityPayload)
	if len(entityDiff) > 0 || prev.EntityPayload == nil {
		if importErr := o.importer.ImportEntity(ctx, entityPayload); importErr != nil {
			log.Error("failed to import entity", "title", record.Title, "error", importErr.Error())
			return false
		}
		o.stats.RecordEntityImport(false)
		log.Info("entity imported", "title", record.Title, "changed_fields", len(entityDiff))
	} else {
		o.stats.RecordEntityImport(true)
		log.Debug("entity unchanged, import skipped", "title", record.Title)
	}

	results, err := o.catalog.FetchEpisodes(ctx, externalID)
	if err != nil {
		log.Error("failed to fetch episodes", "error", err.Error())
		return false
	}

	episodes := catalog.ParseEpisodes(results)
	if len(episodes) == 0 {
		log.Warn("no episodes found, skipping entity", "title", record.Title)
		return false
	}

	enriched := o.refreshEntity(ctx, log, entityPayload, prev, episodes)

	episodePayloads, normalizedLinks, ok := o.importEpisodes(ctx, log, sourceID, prev, episodes)
	if !ok {
		return false
	}

	mediaPayloads := o.importMedia(ctx, log, sourceID, prev, episodes, normalizedLinks)

	o.store.MarkProcessed(sourceID, state.Entry{
		Title:           record.Title,
		EpisodesCount:   len(episodes),
		Timestamp:       time.Now().UTC(),
		EntityPayload:   enriched,
		EpisodePayloads: episodePayloads,
		MediaPayloads:   mediaPayloads,
	})

	log.Info("entity processed", "title", record.Title, "episodes", len(episodes))

	return true
}

// refreshEntity re-imports the entity with the latest episode number when
// the enriched payload drifted from the stored snapshot. Volatile
// timestamps are added at import time only, so they never participate in
// diffs. Refresh failures are tolerated; the base record already landed
// and the snapshot keeps the last imported payload for the next run.
func (o *Orchestrator) refreshEntity(
	ctx context.Context,
	log logger.Interface,
	entityPayload map[string]any,
	prev state.Entry,
	episodes []catalog.Episode,
) map[string]any {
	lastNumber := episodes[len(episodes)-1].Number

	enriched := make(map[string]any, len(entityPayload)+1)
	for key, value := range entityPayload {
		enriched[key] = value
	}
	enriched["last_episode_number"] = lastNumber
	enriched = diff.Normalize(enriched)

	if len(diff.Compute(enriched, prev.EntityPayload)) == 0 {
		return enriched
	}

	stamped := make(map[string]any, len(enriched)+2)
	for key, value := range enriched {
		stamped[key] = value
	}
	now := time.Now().UTC().Format(time.RFC3339)
	stamped["updated_at"] = now
	stamped["last_episode_at"] = now

	if err := o.importer.ImportEntity(ctx, stamped); err != nil {
		log.Warn("failed to refresh entity metadata", "error", err.Error())
		// Persist only what actually landed downstream so the refresh
		// diff fires again next run.
		if prev.EntityPayload != nil {
			return prev.EntityPayload
		}
		return entityPayload
	}

	log.Debug("entity metadata refreshed", "last_episode_number", lastNumber)

	return enriched
}

// importEpisodes normalizes media links per episode, builds episode
// payloads, and imports only those that differ from the stored snapshot.
// Episodes without playable links are still imported as unavailable.
func (o *Orchestrator) importEpisodes(
	ctx context.Context,
	log logger.Interface,
	sourceID string,
	prev state.Entry,
	episodes []catalog.Episode,
) (payloads map[string]map[string]any, normalizedLinks map[string][]string, ok bool) {
	payloads = make(map[string]map[string]any, len(episodes))
	normalizedLinks = make(map[string][]string, len(episodes))

	var changed []map[string]any

	for _, episode := range episodes {
		episodeID := media.EpisodeID(sourceID, episode.Number)

		var links []string
		for _, rawLink := range episode.Links {
			if normalized := media.NormalizeURL(rawLink); normalized != "" {
				links = append(links, normalized)
			}
		}
		normalizedLinks[episodeID] = links

		var title any
		if episode.Title != "" {
			title = episode.Title
		}

		payload := diff.Normalize(map[string]any{
			"source_episode_id": episodeID,
			"number":            episode.Number,
			"title":             title,
			"is_available":      len(links) > 0,
		})
		payloads[episodeID] = payload

		if len(diff.Compute(payload, prev.EpisodePayloads[episodeID])) > 0 {
			changed = append(changed, payload)
		}
	}

	if len(changed) == 0 {
		log.Debug("episodes unchanged, import skipped", "episodes", len(episodes))
		return payloads, normalizedLinks, true
	}

	if err := o.importer.ImportEpisodes(ctx, sourceID, changed); err != nil {
		log.Error("failed to import episodes", "changed", len(changed), "error", err.Error())
		return nil, nil, false
	}

	o.stats.RecordEpisodes(len(changed))
	log.Info("episodes imported", "changed", len(changed), "total", len(episodes))

	return payloads, normalizedLinks, true
}

// importMedia builds playable manifest links per episode, deduplicates by
// (url, source_name), and imports links whose payload drifted from the
// snapshot. Failures are logged and counted but never abort the entity.
func (o *Orchestrator) importMedia(
	ctx context.Context,
	log logger.Interface,
	sourceID string,
	prev state.Entry,
	episodes []catalog.Episode,
	normalizedLinks map[string][]string,
) map[string]map[string]any {
	payloads := make(map[string]map[string]any)
	failures := 0

	for _, episode := range episodes {
		episodeID := media.EpisodeID(sourceID, episode.Number)

		links := normalizedLinks[episodeID]
		if len(links) == 0 {
			log.Debug("no media links for episode", "number", episode.Number)
			continue
		}

		seen := make(map[string]struct{}, len(links))

		for priority, url := range links {
			link := media.BuildLink(url, o.cfg.SourceName, priority)
			if link == nil {
				continue
			}

			pairKey := link.URL + "|" + link.SourceName
			if _, dup := seen[pairKey]; dup {
				continue
			}
			seen[pairKey] = struct{}{}

			key := media.DedupeKey(episodeID, link.URL, link.SourceName)
			payload := diff.Normalize(link.Payload())

			if len(diff.Compute(payload, prev.MediaPayloads[key])) == 0 {
				payloads[key] = payload
				o.stats.RecordMediaImport(true, false)
				continue
			}

			if err := o.importer.ImportMediaLink(ctx, episodeID, payload); err != nil {
				log.Error("failed to import media link",
					"number", episode.Number,
					"url", link.URL,
					"error", err.Error(),
				)
				// Snapshot only what actually landed downstream: the
				// previous payload, if any, stays so the diff fires
				// again next run.
				if prevPayload, wasImported := prev.MediaPayloads[key]; wasImported {
					payloads[key] = prevPayload
				}
				o.stats.RecordMediaImport(false, true)
				failures++
				continue
			}

			payloads[key] = payload
			o.stats.RecordMediaImport(false, false)
		}
	}

	if failures > 0 {
		log.Warn("some media links failed to import", "failed", failures)
	}

	return payloads
}
