package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	db "github.com/lueurxax/trend-radar/internal/storage"
)

// ErrInsufficientHistory distinguishes "we cannot judge yet" from "nothing
// interesting happened".
var ErrInsufficientHistory = errors.New("insufficient history")

const (
	// minHistoryDays is the minimum number of rollup days required before
	// emerging detection is meaningful.
	minHistoryDays = 2

	baselineDays         = 7
	baselineFallbackDays = 6

	reviewVelocityFlagThreshold = 100
	discussionsFlagThreshold    = 10
	positiveRatioFlagThreshold  = 0.85
)

// Repository is the storage surface the temporal aggregator needs.
type Repository interface {
	ListDailySignals(ctx context.Context, entityID int64, from, to time.Time) ([]db.DailySignal, error)
	UpsertDailyAggregate(ctx context.Context, a *domain.DailyAggregate) error
	CountAggregateDays(ctx context.Context, since time.Time) (int, error)
}

// Aggregator folds per-day signal readings into entity_daily rollups.
type Aggregator struct {
	repo   Repository
	logger *zerolog.Logger
}

func New(repo Repository, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{repo: repo, logger: logger}
}

// signalKey addresses the latest reading of one signal on one day.
type signalKey struct {
	day        string
	source     string
	signalType string
}

type signalTable map[signalKey]*float64

func (t signalTable) at(day time.Time, source, signalType string) *float64 {
	return t[signalKey{day: day.Format(time.DateOnly), source: source, signalType: signalType}]
}

// ComputeDay builds and stores the rollup for one entity and day. Every
// delta is either computed from two real readings or left nil; a missing
// reading is never coerced to zero.
func (a *Aggregator) ComputeDay(ctx context.Context, entityID int64, day time.Time) (*domain.DailyAggregate, error) {
	day = day.Truncate(24 * time.Hour)

	from := day.AddDate(0, 0, -baselineDays)
	to := day.AddDate(0, 0, 1)

	signals, err := a.repo.ListDailySignals(ctx, entityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}

	table := make(signalTable, len(signals))
	for _, s := range signals {
		table[signalKey{day: s.Day.Format(time.DateOnly), source: s.Source, signalType: s.SignalType}] = s.ValueNumeric
	}

	agg := &domain.DailyAggregate{EntityID: entityID, Day: day}

	prevDay := day.AddDate(0, 0, -1)

	// Current readings fall back to the previous day before giving up.
	reviewsTotal := firstReading(
		table.at(day, domain.SourceReviews, domain.SignalReviewsTotal),
		table.at(prevDay, domain.SourceReviews, domain.SignalReviewsTotal),
	)
	agg.ReviewsTotal = toIntPtr(reviewsTotal)

	agg.PositiveRatio = firstReading(
		table.at(day, domain.SourceReviews, domain.SignalPositiveRatio),
		table.at(prevDay, domain.SourceReviews, domain.SignalPositiveRatio),
	)

	prevTotal := table.at(prevDay, domain.SourceReviews, domain.SignalReviewsTotal)
	agg.ReviewsDelta1d = deltaInt(reviewsTotal, prevTotal)

	baseline := firstReading(
		table.at(day.AddDate(0, 0, -baselineDays), domain.SourceReviews, domain.SignalReviewsTotal),
		table.at(day.AddDate(0, 0, -baselineFallbackDays), domain.SourceReviews, domain.SignalReviewsTotal),
	)
	agg.ReviewsDelta7d = deltaInt(reviewsTotal, baseline)

	// posts_7d is itself a trailing-window count, so today's reading is the
	// 7-day discussion delta; the 1-day delta compares consecutive windows.
	discussionsNow := table.at(day, domain.SourceDiscussions, domain.SignalPosts7d)
	agg.DiscussionsDelta7d = toIntPtr(discussionsNow)
	agg.DiscussionsDelta1d = deltaInt(discussionsNow, table.at(prevDay, domain.SourceDiscussions, domain.SignalPosts7d))

	agg.WhyFlagged = whyFlagged(agg)

	if err := a.repo.UpsertDailyAggregate(ctx, agg); err != nil {
		return nil, fmt.Errorf("store aggregate: %w", err)
	}

	return agg, nil
}

// Backfill recomputes a closed range of past days, oldest first. The
// upsert key makes any repetition idempotent.
func (a *Aggregator) Backfill(ctx context.Context, entityID int64, from, to time.Time) error {
	from = from.Truncate(24 * time.Hour)
	to = to.Truncate(24 * time.Hour)

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if _, err := a.ComputeDay(ctx, entityID, day); err != nil {
			return fmt.Errorf("backfill %s: %w", day.Format(time.DateOnly), err)
		}
	}

	return nil
}

// EnsureHistory returns ErrInsufficientHistory when fewer than two rollup
// days exist in the window ending today.
func (a *Aggregator) EnsureHistory(ctx context.Context, windowDays int, now time.Time) error {
	since := now.AddDate(0, 0, -windowDays)

	days, err := a.repo.CountAggregateDays(ctx, since)
	if err != nil {
		return fmt.Errorf("check history depth: %w", err)
	}

	if days < minHistoryDays {
		return fmt.Errorf("%w: have %d days, need %d", ErrInsufficientHistory, days, minHistoryDays)
	}

	return nil
}

// whyFlagged produces human-readable breadcrumbs. They never feed scoring.
func whyFlagged(agg *domain.DailyAggregate) []string {
	var flags []string

	if agg.ReviewsDelta7d != nil && *agg.ReviewsDelta7d > reviewVelocityFlagThreshold {
		flags = append(flags, fmt.Sprintf("High review velocity: +%d reviews in 7d", *agg.ReviewsDelta7d))
	}

	if agg.DiscussionsDelta7d != nil && *agg.DiscussionsDelta7d > discussionsFlagThreshold {
		flags = append(flags, fmt.Sprintf("Active discussions: +%d threads in 7d", *agg.DiscussionsDelta7d))
	}

	if agg.PositiveRatio != nil && *agg.PositiveRatio >= positiveRatioFlagThreshold {
		flags = append(flags, fmt.Sprintf("High positive ratio: %d%%", int(*agg.PositiveRatio*100)))
	}

	return flags
}

func firstReading(readings ...*float64) *float64 {
	for _, r := range readings {
		if r != nil {
			return r
		}
	}

	return nil
}

func deltaInt(current, baseline *float64) *int {
	if current == nil || baseline == nil {
		return nil
	}

	d := int(*current - *baseline)

	return &d
}

func toIntPtr(v *float64) *int {
	if v == nil {
		return nil
	}

	i := int(*v)

	return &i
}
