// Package ingest turns source-specific raw inputs into canonical raw
// events: text sanitized, timestamps parsed leniently, duplicates dropped
// at the storage boundary.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/platform/observability"
	db "github.com/lueurxax/trend-radar/internal/storage"
)

// ErrMissingIdentity marks an item that cannot be deduplicated and is
// therefore rejected.
var ErrMissingIdentity = errors.New("raw item has no source or external id")

// RawItem is one source-specific record before normalization. PublishedAt
// is whatever timestamp text the source produced; unparsable values leave
// the event without a published time rather than failing the item.
type RawItem struct {
	Source      string
	ExternalID  string
	URL         string
	Title       string
	Body        string
	Metrics     map[string]any
	PublishedAt string
}

// EventWriter stores canonical events. Insert reports false for
// duplicates.
type EventWriter interface {
	InsertEvent(ctx context.Context, e *domain.RawEvent) (bool, error)
}

// Normalizer converts raw items into stored canonical events.
type Normalizer struct {
	events EventWriter
	logger *zerolog.Logger
}

func NewNormalizer(events EventWriter, logger *zerolog.Logger) *Normalizer {
	return &Normalizer{events: events, logger: logger}
}

// Ingest normalizes and stores one item. Returns false when the event was
// already known.
func (n *Normalizer) Ingest(ctx context.Context, item RawItem) (bool, error) {
	if item.Source == "" || item.ExternalID == "" {
		return false, ErrMissingIdentity
	}

	event := &domain.RawEvent{
		Source:     item.Source,
		ExternalID: item.ExternalID,
		URL:        item.URL,
		Title:      db.SanitizeUTF8(collapseWhitespace(item.Title)),
		Body:       db.SanitizeUTF8(StripHTML(item.Body)),
		Metrics:    item.Metrics,
		CapturedAt: time.Now().UTC(),
	}

	if item.PublishedAt != "" {
		if published, err := dateparse.ParseAny(item.PublishedAt); err == nil {
			utc := published.UTC()
			event.PublishedAt = &utc
		} else {
			n.logger.Debug().
				Str("source", item.Source).
				Str("published_at", item.PublishedAt).
				Msg("unparsable published timestamp")
		}
	}

	inserted, err := n.events.InsertEvent(ctx, event)
	if err != nil {
		return false, fmt.Errorf("store event: %w", err)
	}

	if inserted {
		observability.EventsIngested.WithLabelValues(item.Source).Inc()
	} else {
		observability.EventsDeduplicated.WithLabelValues(item.Source).Inc()
	}

	return inserted, nil
}

// IngestBatch stores a batch of items, skipping the ones that fail.
// Returns how many new events were stored.
func (n *Normalizer) IngestBatch(ctx context.Context, items []RawItem) (int, error) {
	var inserted int

	for _, item := range items {
		ok, err := n.Ingest(ctx, item)
		if err != nil {
			n.logger.Warn().Err(err).
				Str("source", item.Source).
				Str("external_id", item.ExternalID).
				Msg("item rejected")

			continue
		}

		if ok {
			inserted++
		}

		if ctx.Err() != nil {
			return inserted, ctx.Err()
		}
	}

	return inserted, nil
}
