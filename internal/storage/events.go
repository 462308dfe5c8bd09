package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// InsertEvent stores a raw event. Duplicate (source, external_id) pairs are
// silently dropped. Returns true when the event was newly inserted.
func (db *DB) InsertEvent(ctx context.Context, e *domain.RawEvent) (bool, error) {
	metricsJSON, err := json.Marshal(e.Metrics)
	if err != nil {
		return false, fmt.Errorf("marshal event metrics: %w", err)
	}

	const query = `
		INSERT INTO raw_events (source, external_id, url, title, body, metrics, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source, external_id) DO NOTHING`

	tag, err := db.Pool.Exec(ctx, query,
		e.Source, e.ExternalID, e.URL,
		SanitizeUTF8(e.Title), SanitizeUTF8(e.Body),
		metricsJSON, toTimestamptzPtr(e.PublishedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListUnmatchedEvents returns the oldest events that have no match verdict yet.
func (db *DB) ListUnmatchedEvents(ctx context.Context, limit int) ([]domain.RawEvent, error) {
	const query = `
		SELECT id, source, external_id, url, title, body, metrics,
		       published_at, captured_at, matched_entity_id, match_confidence, match_reason
		FROM raw_events
		WHERE matched_entity_id IS NULL AND match_reason = ''
		ORDER BY captured_at
		LIMIT $1`

	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unmatched events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// SetEventMatch records the matcher verdict for one event. The match fields
// are written once; a later pass may only overwrite a NULL verdict.
func (db *DB) SetEventMatch(ctx context.Context, eventID int64, entityID *int64, confidence *float64, reason string) error {
	const query = `
		UPDATE raw_events
		SET matched_entity_id = $2, match_confidence = $3, match_reason = $4
		WHERE id = $1 AND matched_entity_id IS NULL`

	if _, err := db.Pool.Exec(ctx, query, eventID, entityID, confidence, reason); err != nil {
		return fmt.Errorf("set event match: %w", err)
	}

	return nil
}

// ResetNoMatchVerdicts clears recorded no-match verdicts so the matcher
// re-examines them, used after the alias catalog changes. Returns the
// number of events reopened.
func (db *DB) ResetNoMatchVerdicts(ctx context.Context) (int64, error) {
	const query = `
		UPDATE raw_events
		SET match_reason = '', match_confidence = NULL
		WHERE matched_entity_id IS NULL AND match_reason <> ''`

	tag, err := db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reset no-match verdicts: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListEventsForEntitySince returns matched events for one entity published
// on or after the given time, newest first.
func (db *DB) ListEventsForEntitySince(ctx context.Context, entityID int64, since time.Time) ([]domain.RawEvent, error) {
	const query = `
		SELECT id, source, external_id, url, title, body, metrics,
		       published_at, captured_at, matched_entity_id, match_confidence, match_reason
		FROM raw_events
		WHERE matched_entity_id = $1 AND published_at >= $2
		ORDER BY published_at DESC`

	rows, err := db.Pool.Query(ctx, query, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("list events for entity: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]domain.RawEvent, error) {
	var res []domain.RawEvent

	for rows.Next() {
		var (
			e           domain.RawEvent
			metricsJSON []byte
			publishedAt pgtype.Timestamptz
		)

		if err := rows.Scan(
			&e.ID, &e.Source, &e.ExternalID, &e.URL, &e.Title, &e.Body, &metricsJSON,
			&publishedAt, &e.CapturedAt, &e.MatchedEntityID, &e.MatchConfidence, &e.MatchReason,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &e.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal event metrics: %w", err)
			}
		}

		e.PublishedAt = fromTimestamptzPtr(publishedAt)

		res = append(res, e)
	}

	return res, rows.Err()
}
