package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// Job types drained from the ingest queue.
const (
	JobRefreshReviews = "refresh_reviews"
	JobRefreshEntity  = "refresh_entity"
	JobFetchFeed      = "fetch_feed"
)

// RefreshReviewsPayload asks for a fresh store review snapshot.
type RefreshReviewsPayload struct {
	EntityID int64  `json:"entity_id"`
	URL      string `json:"url"`
}

// RefreshEntityPayload asks for fresh catalog facts about an entity.
type RefreshEntityPayload struct {
	ExternalRef string `json:"external_ref"`
	URL         string `json:"url"`
}

// FetchFeedPayload asks for one announcement feed pull.
type FetchFeedPayload struct {
	FeedURL string `json:"feed_url"`
}

// SignalWriter stores the review signals a refresh produces.
type SignalWriter interface {
	InsertSignal(ctx context.Context, s *domain.Signal) error
}

// EntityWriter stores refreshed catalog facts.
type EntityWriter interface {
	UpsertEntity(ctx context.Context, e *domain.Entity) (int64, error)
	UpsertAlias(ctx context.Context, a *domain.AliasEntry) error
}

// FeedPuller ingests one announcement feed. Implemented by the ingest
// package.
type FeedPuller interface {
	PullFeed(ctx context.Context, feedURL string) (int, error)
}

// reviewSnapshot is the wire shape the store review boundary returns.
type reviewSnapshot struct {
	Total         *float64 `json:"total"`
	PositiveRatio *float64 `json:"positive_ratio"`
}

// entitySnapshot is the wire shape the entity facts boundary returns.
type entitySnapshot struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// RefreshReviewsHandler fetches the current review totals for an entity
// and records them as signals for today's aggregation.
func RefreshReviewsHandler(fetcher *Fetcher, signals SignalWriter) HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var p RefreshReviewsPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.EntityID == 0 || p.URL == "" {
			return fmt.Errorf("%w: refresh_reviews", ErrMalformedPayload)
		}

		body, err := fetcher.Get(ctx, p.URL)
		if err != nil {
			return fmt.Errorf("fetch review snapshot: %w", err)
		}

		var snap reviewSnapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			return fmt.Errorf("decode review snapshot: %w", err)
		}

		now := time.Now().UTC()

		if snap.Total != nil {
			if err := signals.InsertSignal(ctx, &domain.Signal{
				EntityID:     p.EntityID,
				Source:       domain.SourceReviews,
				SignalType:   domain.SignalReviewsTotal,
				ValueNumeric: snap.Total,
				CapturedAt:   now,
			}); err != nil {
				return fmt.Errorf("store reviews_total: %w", err)
			}
		}

		if snap.PositiveRatio != nil {
			if err := signals.InsertSignal(ctx, &domain.Signal{
				EntityID:     p.EntityID,
				Source:       domain.SourceReviews,
				SignalType:   domain.SignalPositiveRatio,
				ValueNumeric: snap.PositiveRatio,
				CapturedAt:   now,
			}); err != nil {
				return fmt.Errorf("store positive_ratio: %w", err)
			}
		}

		return nil
	}
}

// RefreshEntityHandler fetches catalog facts and upserts the entity row.
func RefreshEntityHandler(fetcher *Fetcher, entities EntityWriter) HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var p RefreshEntityPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.ExternalRef == "" || p.URL == "" {
			return fmt.Errorf("%w: refresh_entity", ErrMalformedPayload)
		}

		body, err := fetcher.Get(ctx, p.URL)
		if err != nil {
			return fmt.Errorf("fetch entity facts: %w", err)
		}

		var snap entitySnapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			return fmt.Errorf("decode entity facts: %w", err)
		}

		if snap.Name == "" {
			return fmt.Errorf("entity facts for %s have no name", p.ExternalRef)
		}

		entity := &domain.Entity{
			Name:        snap.Name,
			ExternalRef: p.ExternalRef,
			IsActive:    true,
		}

		if snap.ReleaseDate != "" {
			if released, err := dateparse.ParseAny(snap.ReleaseDate); err == nil {
				utc := released.UTC()
				entity.ReleaseDate = &utc
			}
		}

		entityID, err := entities.UpsertEntity(ctx, entity)
		if err != nil {
			return fmt.Errorf("upsert entity: %w", err)
		}

		// The refreshed name doubles as the official alias so newly
		// registered entities are matchable immediately.
		alias := &domain.AliasEntry{
			EntityID:  entityID,
			Alias:     snap.Name,
			AliasType: domain.AliasOfficial,
			Weight:    1,
		}
		if err := entities.UpsertAlias(ctx, alias); err != nil {
			return fmt.Errorf("upsert alias: %w", err)
		}

		return nil
	}
}

// FetchFeedHandler pulls one announcement feed through the ingest layer.
func FetchFeedHandler(puller FeedPuller) HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var p FetchFeedPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.FeedURL == "" {
			return fmt.Errorf("%w: fetch_feed", ErrMalformedPayload)
		}

		if _, err := puller.PullFeed(ctx, p.FeedURL); err != nil {
			return fmt.Errorf("pull feed: %w", err)
		}

		return nil
	}
}
