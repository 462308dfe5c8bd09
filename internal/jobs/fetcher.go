// Package jobs drains the ingest job queue: claiming batches with
// SKIP LOCKED, dispatching to per-type handlers, and fetching external
// resources through a rate-limited HTTP client.
package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/trend-radar/internal/platform/observability"
)

const maxResponseBytes = 4 << 20

// FetcherConfig tunes the shared external HTTP client.
type FetcherConfig struct {
	RPS        float64
	Burst      int
	Timeout    time.Duration
	MaxRetries int
}

// Fetcher is the single boundary through which job handlers reach
// external sources. All requests share one token bucket so the service
// stays polite regardless of how many handlers run.
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *zerolog.Logger
}

func NewFetcher(cfg FetcherConfig, logger *zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		backoff:    defaultBackoff,
		logger:     logger,
	}
}

// defaultBackoff doubles per attempt: 2s, 3s, 5s, 9s.
func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt+1) * time.Second
}

// Get fetches a URL, retrying rate-limit and server-side failures with
// exponential backoff. The token bucket is consulted before every
// attempt, retries included.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	host := hostLabel(rawURL)

	var lastErr error

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			observability.FetchRetries.WithLabelValues(host).Inc()

			select {
			case <-time.After(f.backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, retryable, err := f.doRequest(ctx, rawURL, host)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}

		f.logger.Warn().Err(err).Str("url", rawURL).Int("attempt", attempt+1).Msg("fetch attempt failed")
	}

	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (f *Fetcher) doRequest(ctx context.Context, rawURL, host string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()

	resp, err := f.client.Do(req)

	observability.FetchRequestDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}

		return nil, true, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	return body, false, nil
}

func hostLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	return u.Host
}
