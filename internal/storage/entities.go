package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UpsertEntity inserts a catalog entity or updates it by external ref.
// Returns the entity ID.
func (db *DB) UpsertEntity(ctx context.Context, e *domain.Entity) (int64, error) {
	const query = `
		INSERT INTO catalog_entities (name, external_ref, release_date, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_ref) DO UPDATE
		SET name = EXCLUDED.name,
		    release_date = EXCLUDED.release_date,
		    is_active = EXCLUDED.is_active
		RETURNING id`

	var id int64
	if err := db.Pool.QueryRow(ctx, query,
		SanitizeUTF8(e.Name), e.ExternalRef, toDatePtr(e.ReleaseDate), e.IsActive,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert entity: %w", err)
	}

	return id, nil
}

// ListActiveEntities returns all active catalog entities.
func (db *DB) ListActiveEntities(ctx context.Context) ([]domain.Entity, error) {
	const query = `
		SELECT id, name, external_ref, release_date, is_active, created_at
		FROM catalog_entities
		WHERE is_active
		ORDER BY id`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active entities: %w", err)
	}
	defer rows.Close()

	var res []domain.Entity

	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}

		res = append(res, *e)
	}

	return res, rows.Err()
}

func scanEntity(row pgx.Row) (*domain.Entity, error) {
	var (
		e           domain.Entity
		releaseDate pgtype.Date
	)

	if err := row.Scan(&e.ID, &e.Name, &e.ExternalRef, &releaseDate, &e.IsActive, &e.CreatedAt); err != nil {
		return nil, err
	}

	e.ReleaseDate = fromDatePtr(releaseDate)

	return &e, nil
}

// UpsertAlias inserts or updates one alias for an entity.
func (db *DB) UpsertAlias(ctx context.Context, a *domain.AliasEntry) error {
	const query = `
		INSERT INTO entity_aliases (entity_id, alias, alias_type, weight)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id, alias) DO UPDATE
		SET alias_type = EXCLUDED.alias_type,
		    weight = EXCLUDED.weight`

	if _, err := db.Pool.Exec(ctx, query, a.EntityID, SanitizeUTF8(a.Alias), a.AliasType, a.Weight); err != nil {
		return fmt.Errorf("upsert alias: %w", err)
	}

	return nil
}

// ListAliases returns all aliases for active entities. The matcher loads
// these once per batch and indexes them in memory.
func (db *DB) ListAliases(ctx context.Context) ([]domain.AliasEntry, error) {
	const query = `
		SELECT a.entity_id, a.alias, a.alias_type, a.weight
		FROM entity_aliases a
		JOIN catalog_entities e ON e.id = a.entity_id
		WHERE e.is_active
		ORDER BY a.entity_id, a.alias`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var res []domain.AliasEntry

	for rows.Next() {
		var a domain.AliasEntry
		if err := rows.Scan(&a.EntityID, &a.Alias, &a.AliasType, &a.Weight); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}

		res = append(res, a)
	}

	return res, rows.Err()
}
