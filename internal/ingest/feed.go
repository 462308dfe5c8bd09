package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// Getter fetches one URL. Satisfied by the rate-limited jobs fetcher.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FeedIngestor pulls announcement feeds and stores their items as
// catalyst raw events. Feed items carry no entity reference; the alias
// matcher links them afterwards.
type FeedIngestor struct {
	fetcher    Getter
	normalizer *Normalizer
	parser     *gofeed.Parser
	logger     *zerolog.Logger
}

func NewFeedIngestor(fetcher Getter, normalizer *Normalizer, logger *zerolog.Logger) *FeedIngestor {
	return &FeedIngestor{
		fetcher:    fetcher,
		normalizer: normalizer,
		parser:     gofeed.NewParser(),
		logger:     logger,
	}
}

// PullFeed fetches and ingests one feed. Returns how many new events were
// stored.
func (f *FeedIngestor) PullFeed(ctx context.Context, feedURL string) (int, error) {
	body, err := f.fetcher.Get(ctx, feedURL)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		return 0, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Items))

	for _, item := range feed.Items {
		externalID := item.GUID
		if externalID == "" {
			externalID = item.Link
		}

		if externalID == "" {
			continue
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		raw := RawItem{
			Source:      domain.SourceAnnouncements,
			ExternalID:  externalID,
			URL:         item.Link,
			Title:       item.Title,
			Body:        body,
			PublishedAt: item.Published,
		}

		if item.PublishedParsed != nil {
			raw.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else if item.UpdatedParsed != nil {
			raw.PublishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		items = append(items, raw)
	}

	inserted, err := f.normalizer.IngestBatch(ctx, items)
	if err != nil {
		return inserted, err
	}

	f.logger.Info().
		Str("feed", feedURL).
		Int("items", len(feed.Items)).
		Int("new_events", inserted).
		Msg("feed pulled")

	return inserted, nil
}
