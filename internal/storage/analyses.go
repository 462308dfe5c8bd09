package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// UpsertAnalysis writes one emerging analysis. Re-running a day replaces
// the previous run's output for that entity.
func (db *DB) UpsertAnalysis(ctx context.Context, a *domain.EmergingAnalysis) error {
	evidenceJSON, err := json.Marshal(a.Evidence)
	if err != nil {
		return fmt.Errorf("marshal analysis evidence: %w", err)
	}

	componentsJSON, err := json.Marshal(a.Components)
	if err != nil {
		return fmt.Errorf("marshal analysis components: %w", err)
	}

	const query = `
		INSERT INTO emerging_analyses (
			entity_id, day, score, verdict, explanation,
			confidence_score, confidence_level, stage, lifecycle_stage, growth_type,
			why_now, evidence, signals_used, components
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (entity_id, day) DO UPDATE
		SET score = EXCLUDED.score,
		    verdict = EXCLUDED.verdict,
		    explanation = EXCLUDED.explanation,
		    confidence_score = EXCLUDED.confidence_score,
		    confidence_level = EXCLUDED.confidence_level,
		    stage = EXCLUDED.stage,
		    lifecycle_stage = EXCLUDED.lifecycle_stage,
		    growth_type = EXCLUDED.growth_type,
		    why_now = EXCLUDED.why_now,
		    evidence = EXCLUDED.evidence,
		    signals_used = EXCLUDED.signals_used,
		    components = EXCLUDED.components,
		    created_at = now()`

	explanation := a.Explanation
	if explanation == nil {
		explanation = []string{}
	}

	signalsUsed := a.SignalsUsed
	if signalsUsed == nil {
		signalsUsed = []string{}
	}

	if _, err := db.Pool.Exec(ctx, query,
		a.EntityID, timeToDate(a.Day), a.Score, a.Verdict, explanation,
		a.ConfidenceScore, a.ConfidenceLevel, a.Stage, a.LifecycleStage, a.GrowthType,
		SanitizeUTF8(a.WhyNow), evidenceJSON, signalsUsed, componentsJSON,
	); err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}

	return nil
}

// ListAnalysesForDay returns every analysis for one day, highest score first.
func (db *DB) ListAnalysesForDay(ctx context.Context, day time.Time) ([]domain.EmergingAnalysis, error) {
	const query = analysisColumns + `
		WHERE a.day = $1
		ORDER BY a.score DESC, a.entity_id`

	rows, err := db.Pool.Query(ctx, query, timeToDate(day))
	if err != nil {
		return nil, fmt.Errorf("list analyses for day: %w", err)
	}
	defer rows.Close()

	var res []domain.EmergingAnalysis

	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}

		res = append(res, *a)
	}

	return res, rows.Err()
}

const analysisColumns = `
		SELECT a.entity_id, e.name, a.day, a.score, a.verdict, a.explanation,
		       a.confidence_score, a.confidence_level, a.stage, a.lifecycle_stage, a.growth_type,
		       a.why_now, a.evidence, a.signals_used, a.components, a.created_at
		FROM emerging_analyses a
		JOIN catalog_entities e ON e.id = a.entity_id`

func scanAnalysis(row pgx.Row) (*domain.EmergingAnalysis, error) {
	var (
		a              domain.EmergingAnalysis
		day            pgtype.Date
		evidenceJSON   []byte
		componentsJSON []byte
	)

	if err := row.Scan(
		&a.EntityID, &a.Name, &day, &a.Score, &a.Verdict, &a.Explanation,
		&a.ConfidenceScore, &a.ConfidenceLevel, &a.Stage, &a.LifecycleStage, &a.GrowthType,
		&a.WhyNow, &evidenceJSON, &a.SignalsUsed, &componentsJSON, &a.CreatedAt,
	); err != nil {
		return nil, err
	}

	a.Day = dateToTime(day)

	if len(evidenceJSON) > 0 {
		if err := json.Unmarshal(evidenceJSON, &a.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal analysis evidence: %w", err)
		}
	}

	if len(componentsJSON) > 0 {
		if err := json.Unmarshal(componentsJSON, &a.Components); err != nil {
			return nil, fmt.Errorf("unmarshal analysis components: %w", err)
		}
	}

	return &a, nil
}
