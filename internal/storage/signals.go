package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// InsertSignal appends one signal reading. Signals are append-only;
// the latest reading per day wins at aggregation time.
func (db *DB) InsertSignal(ctx context.Context, s *domain.Signal) error {
	const query = `
		INSERT INTO raw_signals (entity_id, source, signal_type, value_numeric, value_text, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	capturedAt := s.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	if _, err := db.Pool.Exec(ctx, query,
		s.EntityID, s.Source, s.SignalType, s.ValueNumeric, SanitizeUTF8(s.ValueText), capturedAt,
	); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}

	return nil
}

// DailySignal is the latest reading of one signal type on one day.
type DailySignal struct {
	Day          time.Time
	Source       string
	SignalType   string
	ValueNumeric *float64
	ValueText    string
}

// ListDailySignals returns, for one entity, the last reading per
// (day, source, signal_type) in the half-open window [from, to).
func (db *DB) ListDailySignals(ctx context.Context, entityID int64, from, to time.Time) ([]DailySignal, error) {
	const query = `
		SELECT DISTINCT ON (captured_at::date, source, signal_type)
		       captured_at::date AS day, source, signal_type, value_numeric, value_text
		FROM raw_signals
		WHERE entity_id = $1 AND captured_at >= $2 AND captured_at < $3
		ORDER BY captured_at::date, source, signal_type, captured_at DESC`

	rows, err := db.Pool.Query(ctx, query, entityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily signals: %w", err)
	}
	defer rows.Close()

	var res []DailySignal

	for rows.Next() {
		var s DailySignal
		if err := rows.Scan(&s.Day, &s.Source, &s.SignalType, &s.ValueNumeric, &s.ValueText); err != nil {
			return nil, fmt.Errorf("scan daily signal: %w", err)
		}

		res = append(res, s)
	}

	return res, rows.Err()
}
