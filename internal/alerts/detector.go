// Package alerts turns fresh analyses into stored, deduplicated alert
// rows and hands the new ones to a notifier.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/platform/observability"
)

// Repository is the persistence surface the detector needs.
type Repository interface {
	ListAnalysesForDay(ctx context.Context, day time.Time) ([]domain.EmergingAnalysis, error)
	InsertAlert(ctx context.Context, a *domain.Alert) (bool, error)
}

// Notifier delivers one alert to the outside world.
type Notifier interface {
	Notify(ctx context.Context, alert *domain.Alert, analysis *domain.EmergingAnalysis) error
}

// Detector scans a day's analyses for alert conditions. The unique
// (entity, kind, day) key in storage makes re-running a day a no-op.
type Detector struct {
	repo     Repository
	notifier Notifier
	logger   *zerolog.Logger
}

func New(repo Repository, notifier Notifier, logger *zerolog.Logger) *Detector {
	return &Detector{repo: repo, notifier: notifier, logger: logger}
}

// RunDay evaluates every analysis of the day. Returns how many new alerts
// were raised.
func (d *Detector) RunDay(ctx context.Context, day time.Time) (int, error) {
	analyses, err := d.repo.ListAnalysesForDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("list analyses: %w", err)
	}

	var raised int

	for i := range analyses {
		analysis := &analyses[i]

		for _, alert := range d.detect(analysis) {
			inserted, err := d.repo.InsertAlert(ctx, alert)
			if err != nil {
				return raised, fmt.Errorf("store alert: %w", err)
			}

			if !inserted {
				continue
			}

			raised++

			observability.AlertsEmitted.WithLabelValues(alert.Kind).Inc()

			if err := d.notifier.Notify(ctx, alert, analysis); err != nil {
				d.logger.Error().Err(err).
					Int64("entity_id", alert.EntityID).
					Str("kind", alert.Kind).
					Msg("alert notification failed")
			}
		}

		if ctx.Err() != nil {
			return raised, ctx.Err()
		}
	}

	return raised, nil
}

// detect derives the alert conditions from one analysis: a breakout-stage
// classification, and a catalyst appearing on a confirmed entity.
func (d *Detector) detect(analysis *domain.EmergingAnalysis) []*domain.Alert {
	var alerts []*domain.Alert

	if analysis.Stage == domain.StageBreakout {
		alerts = append(alerts, &domain.Alert{
			EntityID: analysis.EntityID,
			Kind:     domain.AlertBreakout,
			Day:      analysis.Day,
			Message: fmt.Sprintf("%s entered breakout: score %.0f, confidence %d (%s)",
				analysis.Name, analysis.Score, analysis.ConfidenceScore, analysis.ConfidenceLevel),
		})
	}

	if containsSource(analysis.SignalsUsed, domain.SourceAnnouncements) &&
		containsSource(analysis.SignalsUsed, domain.SourceReviews) {
		alerts = append(alerts, &domain.Alert{
			EntityID: analysis.EntityID,
			Kind:     domain.AlertCatalyst,
			Day:      analysis.Day,
			Message: fmt.Sprintf("%s has a fresh catalyst on top of confirmed growth: %s",
				analysis.Name, analysis.WhyNow),
		})
	}

	return alerts
}

func containsSource(sources []string, want string) bool {
	for _, s := range sources {
		if s == want {
			return true
		}
	}

	return false
}
