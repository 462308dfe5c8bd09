package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// UpsertDailyAggregate writes one per-entity per-day rollup. Re-running a
// day replaces the previous computation.
func (db *DB) UpsertDailyAggregate(ctx context.Context, a *domain.DailyAggregate) error {
	const query = `
		INSERT INTO entity_daily (
			entity_id, day, reviews_total, reviews_delta_1d, reviews_delta_7d,
			discussions_delta_1d, discussions_delta_7d, positive_ratio,
			tags, why_flagged, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (entity_id, day) DO UPDATE
		SET reviews_total = EXCLUDED.reviews_total,
		    reviews_delta_1d = EXCLUDED.reviews_delta_1d,
		    reviews_delta_7d = EXCLUDED.reviews_delta_7d,
		    discussions_delta_1d = EXCLUDED.discussions_delta_1d,
		    discussions_delta_7d = EXCLUDED.discussions_delta_7d,
		    positive_ratio = EXCLUDED.positive_ratio,
		    tags = EXCLUDED.tags,
		    why_flagged = EXCLUDED.why_flagged,
		    computed_at = now()`

	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	whyFlagged := a.WhyFlagged
	if whyFlagged == nil {
		whyFlagged = []string{}
	}

	if _, err := db.Pool.Exec(ctx, query,
		a.EntityID, timeToDate(a.Day),
		a.ReviewsTotal, a.ReviewsDelta1d, a.ReviewsDelta7d,
		a.DiscussionsDelta1d, a.DiscussionsDelta7d, a.PositiveRatio,
		tags, whyFlagged,
	); err != nil {
		return fmt.Errorf("upsert daily aggregate: %w", err)
	}

	return nil
}

// GetDailyAggregate returns the rollup for one entity on one exact day.
func (db *DB) GetDailyAggregate(ctx context.Context, entityID int64, day time.Time) (*domain.DailyAggregate, error) {
	const query = aggregateColumns + `
		WHERE entity_id = $1 AND day = $2`

	a, err := scanAggregate(db.Pool.QueryRow(ctx, query, entityID, timeToDate(day)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get daily aggregate: %w", err)
	}

	return a, nil
}

// ListAggregatesSince returns every entity's rollups with day on or after
// the cutoff. Feeds the per-run distribution cache.
func (db *DB) ListAggregatesSince(ctx context.Context, since time.Time) ([]domain.DailyAggregate, error) {
	const query = aggregateColumns + `
		WHERE day >= $1
		ORDER BY entity_id, day`

	rows, err := db.Pool.Query(ctx, query, timeToDate(since))
	if err != nil {
		return nil, fmt.Errorf("list aggregates since: %w", err)
	}
	defer rows.Close()

	var res []domain.DailyAggregate

	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}

		res = append(res, *a)
	}

	return res, rows.Err()
}

// CountAggregateDays returns how many distinct days have any rollup on or
// after the cutoff. Callers use this to distinguish "quiet" from "not
// enough history to judge".
func (db *DB) CountAggregateDays(ctx context.Context, since time.Time) (int, error) {
	const query = `
		SELECT count(DISTINCT day)
		FROM entity_daily
		WHERE day >= $1`

	var n int
	if err := db.Pool.QueryRow(ctx, query, timeToDate(since)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count aggregate days: %w", err)
	}

	return n, nil
}

const aggregateColumns = `
		SELECT entity_id, day, reviews_total, reviews_delta_1d, reviews_delta_7d,
		       discussions_delta_1d, discussions_delta_7d, positive_ratio,
		       tags, why_flagged, computed_at
		FROM entity_daily`

func scanAggregate(row pgx.Row) (*domain.DailyAggregate, error) {
	var (
		a   domain.DailyAggregate
		day pgtype.Date
	)

	if err := row.Scan(
		&a.EntityID, &day, &a.ReviewsTotal, &a.ReviewsDelta1d, &a.ReviewsDelta7d,
		&a.DiscussionsDelta1d, &a.DiscussionsDelta7d, &a.PositiveRatio,
		&a.Tags, &a.WhyFlagged, &a.ComputedAt,
	); err != nil {
		return nil, err
	}

	a.Day = dateToTime(day)

	return &a, nil
}
