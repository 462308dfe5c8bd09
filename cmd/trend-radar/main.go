package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/app"
	"github.com/lueurxax/trend-radar/internal/platform/config"
	db "github.com/lueurxax/trend-radar/internal/storage"
)

func main() {
	mode := flag.String("mode", "all", "Service mode (ingest, match, aggregate, analyze, jobs, all)")
	once := flag.Bool("once", false, "Run one pass and exit")
	backfillDays := flag.Int("backfill-days", 0, "Re-run the pipeline for the last N closed days")
	rematch := flag.Bool("rematch", false, "Reopen no-match events before matching (match mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := cfg.DatabaseCfg()
	poolOpts := db.PoolOptions{
		MaxConns:          dbCfg.MaxConnections,
		MinConns:          dbCfg.MinConnections,
		MaxConnIdleTime:   dbCfg.MaxConnIdleTime,
		MaxConnLifetime:   dbCfg.MaxConnLifetime,
		HealthCheckPeriod: dbCfg.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, dbCfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	// Start health server in background
	go func() {
		if err := application.StartHealthServer(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	days := *backfillDays
	if days == 0 {
		days = cfg.BackfillDays
	}

	if err := runMode(ctx, application, *mode, *once, days, *rematch); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, once bool, backfillDays int, rematch bool) error {
	switch mode {
	case "ingest":
		return application.RunIngest(ctx, once)
	case "match":
		return application.RunMatch(ctx, once, rematch)
	case "aggregate":
		return application.RunAggregate(ctx, once, backfillDays)
	case "analyze":
		return application.RunAnalyze(ctx, once, backfillDays)
	case "jobs":
		return application.RunJobs(ctx, once)
	case "all":
		return application.RunAll(ctx, once, backfillDays)
	default:
		log.Fatalf("Usage: %s --mode=[ingest|match|aggregate|analyze|jobs|all]", os.Args[0])

		return nil
	}
}
