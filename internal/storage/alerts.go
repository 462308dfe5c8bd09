package db

import (
	"context"
	"fmt"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// InsertAlert stores one alert. The (entity, kind, day) key deduplicates
// repeat detections within a day; returns true when newly inserted.
func (db *DB) InsertAlert(ctx context.Context, a *domain.Alert) (bool, error) {
	const query = `
		INSERT INTO alerts (entity_id, kind, message, day)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id, kind, day) DO NOTHING`

	tag, err := db.Pool.Exec(ctx, query, a.EntityID, a.Kind, SanitizeUTF8(a.Message), timeToDate(a.Day))
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
