// Package analyze runs the top of the pipeline: per-family interpretation,
// score combination with anti-hype guards, and the verdict, confidence,
// stage and lifecycle classification persisted as an emerging analysis.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/interpret"
	"github.com/lueurxax/trend-radar/internal/platform/observability"
	db "github.com/lueurxax/trend-radar/internal/storage"
)

const (
	distributionWindowDays = 30
	evidenceWindowDays     = 7
)

// Repository is the persistence surface the analyzer needs.
type Repository interface {
	ListActiveEntities(ctx context.Context) ([]domain.Entity, error)
	GetDailyAggregate(ctx context.Context, entityID int64, day time.Time) (*domain.DailyAggregate, error)
	ListAggregatesSince(ctx context.Context, since time.Time) ([]domain.DailyAggregate, error)
	ListDailySignals(ctx context.Context, entityID int64, from, to time.Time) ([]db.DailySignal, error)
	ListEventsForEntitySince(ctx context.Context, entityID int64, since time.Time) ([]domain.RawEvent, error)
	UpsertAnalysis(ctx context.Context, a *domain.EmergingAnalysis) error
}

// Analyzer produces one emerging analysis per entity per day.
type Analyzer struct {
	repo   Repository
	logger *zerolog.Logger
}

func New(repo Repository, logger *zerolog.Logger) *Analyzer {
	return &Analyzer{repo: repo, logger: logger}
}

// RunDay analyzes every active entity for one day. A failing entity is
// logged and skipped; the run continues. Entities without an aggregate
// for the day are not analyzed.
func (a *Analyzer) RunDay(ctx context.Context, day time.Time) error {
	start := time.Now()
	runID := uuid.NewString()
	logger := a.logger.With().Str("run_id", runID).Time("day", day).Logger()

	dist, err := a.buildDistributions(ctx, day)
	if err != nil {
		return err
	}

	entities, err := a.repo.ListActiveEntities(ctx)
	if err != nil {
		return fmt.Errorf("list active entities: %w", err)
	}

	var analyzed, skipped, failed int

	for i := range entities {
		entity := &entities[i]

		analysis, err := a.AnalyzeEntity(ctx, entity, day, dist)

		switch {
		case errors.Is(err, db.ErrNotFound):
			skipped++
		case err != nil:
			failed++

			logger.Error().Err(err).
				Int64("entity_id", entity.ID).
				Str("entity", entity.Name).
				Msg("entity analysis failed")
		default:
			analyzed++

			observability.AnalysesProduced.WithLabelValues(analysis.Stage).Inc()
			observability.AnalysisScore.Observe(analysis.Score)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	observability.AnalysisBatchDurationSeconds.Observe(time.Since(start).Seconds())

	logger.Info().
		Int("analyzed", analyzed).
		Int("skipped", skipped).
		Int("failed", failed).
		Dur("took", time.Since(start)).
		Msg("analysis run finished")

	return nil
}

// AnalyzeEntity computes and persists the analysis for one entity on one
// day. Returns db.ErrNotFound when the day has no aggregate.
func (a *Analyzer) AnalyzeEntity(
	ctx context.Context, entity *domain.Entity, day time.Time, dist *Distributions,
) (*domain.EmergingAnalysis, error) {
	agg, err := a.repo.GetDailyAggregate(ctx, entity.ID, day)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("load aggregate: %w", err)
	}

	ageDays := AgeDays(entity, day)
	flags := ComputeFlags(ageDays, agg)
	lifecycle := DeriveLifecycle(ageDays, agg)

	inputs, err := a.loadInputs(ctx, entity.ID, agg, day)
	if err != nil {
		return nil, err
	}

	results := interpretAll(inputs, lifecycle)

	components, final := combine(results)

	if flags.Evergreen {
		components = domain.ScoreComponents{}
		final = 0
	}

	confidence := computeConfidence(confidenceInputs{
		confirmingValid:  results.reviews.Valid,
		confirmingStrong: results.reviews.Strength == interpret.StrengthStrong,
		validSecondaries: results.validSecondaries(),
		earlyMomentum:    earlyLifecycle(lifecycle) && results.validSecondaries() > 0,
		penalizedVolume:  penalizedVolume(inputs, results),
		lowQuality:       agg.PositiveRatio != nil && *agg.PositiveRatio < 0.7,
	})

	stage := determineStage(flags.Evergreen, results, confidence)
	verdict := determineVerdict(flags, final, results, lifecycle)

	events, err := a.repo.ListEventsForEntitySince(ctx, entity.ID, day.AddDate(0, 0, -evidenceWindowDays))
	if err != nil {
		return nil, fmt.Errorf("load evidence events: %w", err)
	}

	evidence := buildEvidence(events)

	analysis := &domain.EmergingAnalysis{
		EntityID:        entity.ID,
		Name:            entity.Name,
		Day:             day,
		Score:           final,
		Verdict:         verdict,
		Explanation:     buildExplanation(agg, dist, results),
		ConfidenceScore: confidence,
		ConfidenceLevel: confidenceLevel(confidence),
		Stage:           stage,
		LifecycleStage:  lifecycle,
		GrowthType:      classifyGrowth(results),
		WhyNow:          buildWhyNow(evidence, results),
		Evidence:        evidence,
		SignalsUsed:     signalsUsed(results),
		Components:      components,
	}

	if err := a.repo.UpsertAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	return analysis, nil
}

func (a *Analyzer) buildDistributions(ctx context.Context, day time.Time) (*Distributions, error) {
	aggs, err := a.repo.ListAggregatesSince(ctx, day.AddDate(0, 0, -distributionWindowDays))
	if err != nil {
		return nil, fmt.Errorf("load distribution window: %w", err)
	}

	return BuildDistributions(aggs), nil
}

// loadInputs assembles the interpreter inputs for one entity: review facts
// from the aggregate, social facts from the latest raw signal reading of
// the day.
func (a *Analyzer) loadInputs(
	ctx context.Context, entityID int64, agg *domain.DailyAggregate, day time.Time,
) (interpret.Inputs, error) {
	in := interpret.Inputs{
		ReviewsDelta7d: agg.ReviewsDelta7d,
		ReviewsDelta1d: agg.ReviewsDelta1d,
		PositiveRatio:  agg.PositiveRatio,
		ReviewsTotal:   agg.ReviewsTotal,
	}

	signals, err := a.repo.ListDailySignals(ctx, entityID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return in, fmt.Errorf("load day signals: %w", err)
	}

	for _, s := range signals {
		v := s.ValueNumeric
		if v == nil {
			continue
		}

		switch s.Source {
		case domain.SourceDiscussions:
			switch s.SignalType {
			case domain.SignalPosts7d:
				in.DiscussionPosts = v
			case domain.SignalVelocity:
				in.DiscussionVelocity = v
			case domain.SignalComments7d:
				in.DiscussionComments = v
			case domain.SignalCommunities:
				in.DiscussionCommunities = v
			}
		case domain.SourceVideos:
			switch s.SignalType {
			case domain.SignalPosts7d:
				in.Videos = v
			case domain.SignalVelocity:
				in.VideoVelocity = v
			case domain.SignalViews7d:
				in.VideoViews = v
			case domain.SignalChannelQuality:
				in.ChannelQuality = v
			}
		case domain.SourceAnnouncements:
			switch s.SignalType {
			case domain.SignalPosts7d:
				in.AnnouncementPosts = v
			case domain.SignalVelocity:
				in.AnnouncementVelocity = v
			}
		}
	}

	return in, nil
}

// interpretAll runs the interpreters in dependency order: the confirming
// source first, then discussions, then videos (which may confirm against
// discussions), then the catalyst.
func interpretAll(in interpret.Inputs, lifecycle string) interpretation {
	ctx := interpret.Context{
		LifecycleStage: lifecycle,
		EarlyLifecycle: earlyLifecycle(lifecycle),
	}

	var s interpretation

	reviewsInterp, _ := interpret.ForSource(domain.SourceReviews)
	s.reviews = reviewsInterp.Interpret(in, ctx)

	ctx.ConfirmingValid = s.reviews.Valid
	ctx.ConfirmingDeclining = in.ReviewsDelta7d != nil && *in.ReviewsDelta7d < 0

	discInterp, _ := interpret.ForSource(domain.SourceDiscussions)
	s.discussions = discInterp.Interpret(in, ctx)

	ctx.DiscussionsValid = s.discussions.Valid

	videoInterp, _ := interpret.ForSource(domain.SourceVideos)
	s.videos = videoInterp.Interpret(in, ctx)

	annInterp, _ := interpret.ForSource(domain.SourceAnnouncements)
	s.announcements = annInterp.Interpret(in, ctx)

	return s
}

// penalizedVolume totals the raw social volume behind negative-scored
// secondary results. It drives the confidence reduction for unconfirmed
// or hype-suspect activity.
func penalizedVolume(in interpret.Inputs, s interpretation) float64 {
	var volume float64

	if s.discussions.Score < 0 && in.DiscussionPosts != nil {
		volume += *in.DiscussionPosts
	}

	if s.videos.Score < 0 && in.Videos != nil {
		volume += *in.Videos
	}

	return volume
}

func signalsUsed(s interpretation) []string {
	used := make([]string, 0, 4)

	for _, f := range []struct {
		source string
		res    interpret.Result
	}{
		{domain.SourceReviews, s.reviews},
		{domain.SourceDiscussions, s.discussions},
		{domain.SourceVideos, s.videos},
		{domain.SourceAnnouncements, s.announcements},
	} {
		if f.res.Valid {
			used = append(used, f.source)
		}
	}

	return used
}
