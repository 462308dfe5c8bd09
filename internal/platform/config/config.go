// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"30s"`

	// Matching
	MatchBatchSize      int `env:"MATCH_BATCH_SIZE" envDefault:"100"`
	FuzzyCandidateLimit int `env:"FUZZY_CANDIDATE_LIMIT" envDefault:"500"`

	// Aggregation and analysis
	BackfillDays           int `env:"BACKFILL_DAYS" envDefault:"0"`
	DistributionWindowDays int `env:"DISTRIBUTION_WINDOW_DAYS" envDefault:"30"`

	// Job queue
	JobBatchSize    int           `env:"JOB_BATCH_SIZE" envDefault:"10"`
	JobMaxAttempts  int           `env:"JOB_MAX_ATTEMPTS" envDefault:"3"`
	JobPollInterval time.Duration `env:"JOB_POLL_INTERVAL" envDefault:"10s"`

	// External fetches
	FetchRPS          float64       `env:"FETCH_RPS" envDefault:"1"`
	FetchBurst        int           `env:"FETCH_BURST" envDefault:"3"`
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	FetchMaxRetries   int           `env:"FETCH_MAX_RETRIES" envDefault:"3"`
	AnnouncementFeeds []string      `env:"ANNOUNCEMENT_FEEDS" envSeparator:","`

	// Worker loops
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"1m"`

	// Alert notifications (optional; alerts are stored regardless)
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}

// NotifierEnabled reports whether the Telegram alert notifier is configured.
func (c *Config) NotifierEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}
