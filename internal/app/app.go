// Package app wires the service dependencies together and exposes the
// operational modes:
//
//   - Ingest mode: pulls announcement feeds into raw events
//   - Match mode: resolves pending events against the alias index
//   - Aggregate mode: rolls events into signals and daily aggregates
//   - Analyze mode: interprets aggregates and writes analyses and alerts
//   - Jobs mode: drains the background job queue
//   - All mode: the full daily pipeline in one process
//
// Each mode can be run independently or combined based on deployment needs.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/aggregate"
	"github.com/lueurxax/trend-radar/internal/alerts"
	"github.com/lueurxax/trend-radar/internal/analyze"
	"github.com/lueurxax/trend-radar/internal/ingest"
	"github.com/lueurxax/trend-radar/internal/jobs"
	"github.com/lueurxax/trend-radar/internal/match"
	"github.com/lueurxax/trend-radar/internal/platform/config"
	"github.com/lueurxax/trend-radar/internal/platform/observability"
	"github.com/lueurxax/trend-radar/internal/platform/worker"
	db "github.com/lueurxax/trend-radar/internal/storage"
)

const dailyInterval = 24 * time.Hour

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunIngest runs the feed ingest mode: every poll interval, each
// configured announcement feed is pulled and normalized into raw events.
func (a *App) RunIngest(ctx context.Context, once bool) error {
	a.logger.Info().Int("feeds", len(a.cfg.AnnouncementFeeds)).Msg("Starting ingest mode")

	if len(a.cfg.AnnouncementFeeds) == 0 {
		return errors.New("ingest mode requires ANNOUNCEMENT_FEEDS")
	}

	ingestor := a.newFeedIngestor()

	pull := func(ctx context.Context) error {
		a.pullFeeds(ctx, ingestor)
		return nil
	}

	if once {
		return pull(ctx)
	}

	return worker.Loop(ctx, worker.Config{
		Name:         "feed-ingest",
		PollInterval: a.cfg.WorkerPollInterval,
		Process:      pull,
		Logger:       a.logger,
	})
}

// RunMatch runs the matcher mode: drain pending events in batches. With
// rematch set, previously rejected events are reopened first so the
// current alias catalog gets another look at them.
func (a *App) RunMatch(ctx context.Context, once, rematch bool) error {
	a.logger.Info().Bool("rematch", rematch).Msg("Starting match mode")

	matcher := a.newMatcher()

	if rematch {
		if _, err := matcher.Rematch(ctx); err != nil {
			return err
		}
	}

	if once {
		return a.drainMatcher(ctx, matcher)
	}

	return worker.Loop(ctx, worker.Config{
		Name:         "matcher",
		PollInterval: a.cfg.WorkerPollInterval,
		Process: func(ctx context.Context) error {
			return a.drainMatcher(ctx, matcher)
		},
		Logger: a.logger,
	})
}

// RunAggregate runs the aggregation mode: roll events into signals and
// fold signals into daily aggregates for each active entity.
func (a *App) RunAggregate(ctx context.Context, once bool, backfillDays int) error {
	a.logger.Info().Msg("Starting aggregate mode")

	rollup := aggregate.NewRollup(a.database, a.logger)
	aggregator := aggregate.New(a.database, a.logger)

	run := func(ctx context.Context) error {
		return a.forEachClosedDay(ctx, backfillDays, func(ctx context.Context, day time.Time) error {
			return a.aggregateDay(ctx, rollup, aggregator, day)
		})
	}

	if once {
		return run(ctx)
	}

	return worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:     "aggregator",
		Interval: dailyInterval,
		OnTick: func(ctx context.Context) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Msg("aggregation run failed")
			}
		},
		RunOnStart: true,
		Logger:     a.logger,
	})
}

// RunAnalyze runs the analysis mode: interpret the closed day's
// aggregates, persist analyses, and raise alerts.
func (a *App) RunAnalyze(ctx context.Context, once bool, backfillDays int) error {
	a.logger.Info().Msg("Starting analyze mode")

	analyzer := analyze.New(a.database, a.logger)
	detector := alerts.New(a.database, a.newNotifier(), a.logger)

	run := func(ctx context.Context) error {
		return a.forEachClosedDay(ctx, backfillDays, func(ctx context.Context, day time.Time) error {
			return a.analyzeDay(ctx, analyzer, detector, day)
		})
	}

	if once {
		return run(ctx)
	}

	return worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:     "analyzer",
		Interval: dailyInterval,
		OnTick: func(ctx context.Context) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Msg("analysis run failed")
			}
		},
		RunOnStart: true,
		Logger:     a.logger,
	})
}

// RunJobs runs the background job queue mode.
func (a *App) RunJobs(ctx context.Context, once bool) error {
	a.logger.Info().Msg("Starting jobs mode")

	processor := a.newProcessor()

	if once {
		_, err := processor.ProcessBatch(ctx)
		return err
	}

	return worker.Loop(ctx, worker.Config{
		Name:         "jobs",
		PollInterval: a.cfg.JobPollInterval,
		Process: func(ctx context.Context) error {
			_, err := processor.ProcessBatch(ctx)
			return err
		},
		Logger: a.logger,
	})
}

// RunAll runs the full daily pipeline in one process: feed ingest, job
// queue, and the match-aggregate-analyze sequence on a daily tick.
func (a *App) RunAll(ctx context.Context, once bool, backfillDays int) error {
	a.logger.Info().Msg("Starting combined mode")

	matcher := a.newMatcher()
	rollup := aggregate.NewRollup(a.database, a.logger)
	aggregator := aggregate.New(a.database, a.logger)
	analyzer := analyze.New(a.database, a.logger)
	detector := alerts.New(a.database, a.newNotifier(), a.logger)
	processor := a.newProcessor()

	runDay := func(ctx context.Context, day time.Time) error {
		a.enqueueFeedPulls(ctx)

		if err := a.drainJobs(ctx, processor); err != nil {
			return err
		}

		if err := a.drainMatcher(ctx, matcher); err != nil {
			return err
		}

		if err := a.aggregateDay(ctx, rollup, aggregator, day); err != nil {
			return err
		}

		return a.analyzeDay(ctx, analyzer, detector, day)
	}

	run := func(ctx context.Context) error {
		return a.forEachClosedDay(ctx, backfillDays, runDay)
	}

	if once {
		return run(ctx)
	}

	return worker.Loop(ctx, worker.Config{
		Name:         "pipeline",
		PollInterval: a.cfg.JobPollInterval,
		Process: func(ctx context.Context) error {
			_, err := processor.ProcessBatch(ctx)
			return err
		},
		PeriodicTasks: []worker.PeriodicTask{
			{
				Name:     "daily-pipeline",
				Interval: dailyInterval,
				Run: func(ctx context.Context) {
					if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						a.logger.Error().Err(err).Msg("daily pipeline run failed")
					}
				},
			},
		},
		OnStart: func(ctx context.Context) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Msg("daily pipeline run failed")
			}
		},
		Logger: a.logger,
	})
}

// forEachClosedDay runs fn for the most recent closed UTC day, or for
// the closed range ending there when backfillDays > 1. The pipeline is
// idempotent per day, so overlapping backfills are safe.
func (a *App) forEachClosedDay(ctx context.Context, backfillDays int, fn func(ctx context.Context, day time.Time) error) error {
	last := closedDay(time.Now())

	if backfillDays < 1 {
		backfillDays = 1
	}

	for offset := backfillDays - 1; offset >= 0; offset-- {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		day := last.AddDate(0, 0, -offset)
		if err := fn(ctx, day); err != nil {
			return fmt.Errorf("pipeline day %s: %w", day.Format("2006-01-02"), err)
		}
	}

	return nil
}

// closedDay returns the most recent fully elapsed UTC day.
func closedDay(now time.Time) time.Time {
	return now.UTC().Truncate(dailyInterval).AddDate(0, 0, -1)
}

// enqueueFeedPulls queues one fetch_feed job per configured feed. Going
// through the queue gives feed pulls the same retry and attempt-ceiling
// semantics as every other background fetch.
func (a *App) enqueueFeedPulls(ctx context.Context) {
	for _, feedURL := range a.cfg.AnnouncementFeeds {
		payload := jobs.FetchFeedPayload{FeedURL: feedURL}
		if err := a.database.EnqueueJob(ctx, jobs.JobFetchFeed, payload); err != nil {
			a.logger.Warn().Err(err).Str("feed", feedURL).Msg("enqueue feed pull failed")
		}
	}
}

// drainJobs processes queue batches until the queue is empty.
func (a *App) drainJobs(ctx context.Context, processor *jobs.Processor) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := processor.ProcessBatch(ctx)
		if err != nil {
			return fmt.Errorf("job batch: %w", err)
		}

		if n == 0 {
			return nil
		}
	}
}

func (a *App) pullFeeds(ctx context.Context, ingestor *ingest.FeedIngestor) {
	for _, feedURL := range a.cfg.AnnouncementFeeds {
		if ctx.Err() != nil {
			return
		}

		if _, err := ingestor.PullFeed(ctx, feedURL); err != nil {
			a.logger.Warn().Err(err).Str("feed", feedURL).Msg("feed pull failed")
		}
	}
}

// drainMatcher processes matcher batches until no pending events remain.
func (a *App) drainMatcher(ctx context.Context, matcher *match.Matcher) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		stats, err := matcher.ProcessBatch(ctx)
		if err != nil {
			return fmt.Errorf("match batch: %w", err)
		}

		if stats.Matched+stats.Unmatched+stats.Errors == 0 {
			return nil
		}
	}
}

// aggregateDay rolls up and aggregates one day for every active entity.
// Per-entity failures are logged and counted, never abort the run.
func (a *App) aggregateDay(ctx context.Context, rollup *aggregate.Rollup, aggregator *aggregate.Aggregator, day time.Time) error {
	entities, err := a.database.ListActiveEntities(ctx)
	if err != nil {
		return fmt.Errorf("list active entities: %w", err)
	}

	var failed int

	for i := range entities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		entityID := entities[i].ID

		if err := rollup.ComputeDay(ctx, entityID, day); err != nil {
			a.logger.Error().Err(err).Int64("entity_id", entityID).Msg("signal rollup failed")

			failed++

			continue
		}

		if _, err := aggregator.ComputeDay(ctx, entityID, day); err != nil {
			a.logger.Error().Err(err).Int64("entity_id", entityID).Msg("aggregation failed")

			failed++
		}
	}

	a.logger.Info().
		Time("day", day).
		Int("entities", len(entities)).
		Int("failed", failed).
		Msg("aggregation day complete")

	return nil
}

// analyzeDay interprets one day's aggregates and raises alerts. When the
// rollup history is still too short to build distributions, the day is
// skipped rather than analyzed against noise.
func (a *App) analyzeDay(ctx context.Context, analyzer *analyze.Analyzer, detector *alerts.Detector, day time.Time) error {
	aggregator := aggregate.New(a.database, a.logger)

	if err := aggregator.EnsureHistory(ctx, a.cfg.DistributionWindowDays, day); err != nil {
		if errors.Is(err, aggregate.ErrInsufficientHistory) {
			a.logger.Warn().Err(err).Time("day", day).Msg("skipping analysis")
			return nil
		}

		return fmt.Errorf("history check: %w", err)
	}

	if err := analyzer.RunDay(ctx, day); err != nil {
		return fmt.Errorf("analysis run: %w", err)
	}

	raised, err := detector.RunDay(ctx, day)
	if err != nil {
		return fmt.Errorf("alert detection: %w", err)
	}

	if raised > 0 {
		a.logger.Info().Time("day", day).Int("alerts", raised).Msg("alerts raised")
	}

	return nil
}

func (a *App) newMatcher() *match.Matcher {
	return match.New(a.database, a.cfg.MatchBatchSize, a.cfg.FuzzyCandidateLimit, a.logger)
}

func (a *App) newFetcher() *jobs.Fetcher {
	fetchCfg := a.cfg.FetchCfg()

	return jobs.NewFetcher(jobs.FetcherConfig{
		RPS:        fetchCfg.RPS,
		Burst:      fetchCfg.Burst,
		Timeout:    fetchCfg.Timeout,
		MaxRetries: fetchCfg.MaxRetries,
	}, a.logger)
}

func (a *App) newFeedIngestor() *ingest.FeedIngestor {
	normalizer := ingest.NewNormalizer(a.database, a.logger)

	return ingest.NewFeedIngestor(a.newFetcher(), normalizer, a.logger)
}

// newProcessor builds the job processor with all known handlers
// registered.
func (a *App) newProcessor() *jobs.Processor {
	fetcher := a.newFetcher()

	p := jobs.NewProcessor(a.database, a.cfg.JobBatchSize, a.cfg.JobMaxAttempts, a.logger)
	p.Register(jobs.JobRefreshReviews, jobs.RefreshReviewsHandler(fetcher, a.database))
	p.Register(jobs.JobRefreshEntity, jobs.RefreshEntityHandler(fetcher, a.database))
	p.Register(jobs.JobFetchFeed, jobs.FetchFeedHandler(a.newFeedIngestor()))

	return p
}

// newNotifier returns the Telegram notifier when a bot token and chat
// are configured, otherwise a noop. Alerts are stored either way.
func (a *App) newNotifier() alerts.Notifier {
	if !a.cfg.NotifierEnabled() {
		return alerts.NoopNotifier{}
	}

	notifier, err := alerts.NewTelegramNotifier(a.cfg.TelegramBotToken, a.cfg.TelegramChatID, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("telegram notifier unavailable, alerts will only be stored")

		return alerts.NoopNotifier{}
	}

	return notifier
}
