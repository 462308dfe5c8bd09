// Package aggregate turns matched raw events into per-day signals and
// folds signals into the entity_daily rollup the analyzer reads.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const (
	windowDays = 7

	maxChannelQuality = 10.0
)

// RollupRepository is the storage surface the events-to-signals rollup
// needs.
type RollupRepository interface {
	ListEventsForEntitySince(ctx context.Context, entityID int64, since time.Time) ([]domain.RawEvent, error)
	InsertSignal(ctx context.Context, s *domain.Signal) error
}

// Rollup derives windowed signals (post counts, velocity, richness
// metrics) from matched events.
type Rollup struct {
	repo   RollupRepository
	logger *zerolog.Logger
}

func NewRollup(repo RollupRepository, logger *zerolog.Logger) *Rollup {
	return &Rollup{repo: repo, logger: logger}
}

// ComputeDay derives signals for one entity and target day from the
// events of the trailing two windows. Re-running a day appends fresh
// readings; aggregation reads the latest per day, so the derived state is
// unchanged.
func (r *Rollup) ComputeDay(ctx context.Context, entityID int64, day time.Time) error {
	day = day.Truncate(24 * time.Hour)

	since := day.AddDate(0, 0, -2*windowDays)

	events, err := r.repo.ListEventsForEntitySince(ctx, entityID, since)
	if err != nil {
		return fmt.Errorf("load events for rollup: %w", err)
	}

	windows := bucketEvents(events, day)

	for _, source := range []string{domain.SourceDiscussions, domain.SourceVideos, domain.SourceAnnouncements} {
		w := windows[source]
		if w.current.count == 0 && w.previous.count == 0 {
			continue
		}

		if err := r.writeSourceSignals(ctx, entityID, source, day, w); err != nil {
			return err
		}
	}

	return nil
}

type windowStats struct {
	count       int
	comments    float64
	views       float64
	likes       float64
	communities map[string]struct{}
	channels    map[string]struct{}
}

type sourceWindows struct {
	current  windowStats
	previous windowStats
}

func newWindowStats() windowStats {
	return windowStats{
		communities: make(map[string]struct{}),
		channels:    make(map[string]struct{}),
	}
}

// bucketEvents splits events per source into the current window
// (day-7, day] and the previous window (day-14, day-7].
func bucketEvents(events []domain.RawEvent, day time.Time) map[string]sourceWindows {
	windowStart := day.AddDate(0, 0, -windowDays)
	previousStart := day.AddDate(0, 0, -2*windowDays)
	dayEnd := day.AddDate(0, 0, 1)

	res := make(map[string]sourceWindows)

	for _, e := range events {
		if e.PublishedAt == nil {
			continue
		}

		at := *e.PublishedAt

		w, ok := res[e.Source]
		if !ok {
			w = sourceWindows{current: newWindowStats(), previous: newWindowStats()}
		}

		switch {
		case at.After(windowStart) && at.Before(dayEnd):
			w.current.add(e)
		case at.After(previousStart) && !at.After(windowStart):
			w.previous.add(e)
		}

		res[e.Source] = w
	}

	return res
}

func (w *windowStats) add(e domain.RawEvent) {
	w.count++
	w.comments += metricNumber(e.Metrics, "comments")
	w.views += metricNumber(e.Metrics, "views")
	w.likes += metricNumber(e.Metrics, "likes")

	if c := metricString(e.Metrics, "community"); c != "" {
		w.communities[c] = struct{}{}
	}

	if c := metricString(e.Metrics, "channel"); c != "" {
		w.channels[c] = struct{}{}
	}
}

func (r *Rollup) writeSourceSignals(ctx context.Context, entityID int64, source string, day time.Time, w sourceWindows) error {
	capturedAt := day.Add(12 * time.Hour)

	// Raw volume without a rate of change is noise; velocity compares the
	// current window against the previous one. A previously empty window
	// means the whole current count is new.
	velocity := float64(w.current.count - w.previous.count)
	if w.previous.count == 0 {
		velocity = float64(w.current.count)
	}

	signals := []domain.Signal{
		{SignalType: domain.SignalPosts7d, ValueNumeric: f64ptr(float64(w.current.count))},
		{SignalType: domain.SignalVelocity, ValueNumeric: f64ptr(velocity)},
	}

	switch source {
	case domain.SourceDiscussions:
		signals = append(signals,
			domain.Signal{SignalType: domain.SignalComments7d, ValueNumeric: f64ptr(w.current.comments)},
			domain.Signal{SignalType: domain.SignalCommunities, ValueNumeric: f64ptr(float64(len(w.current.communities)))},
		)
	case domain.SourceVideos:
		signals = append(signals,
			domain.Signal{SignalType: domain.SignalViews7d, ValueNumeric: f64ptr(w.current.views)},
			domain.Signal{SignalType: domain.SignalChannelQuality, ValueNumeric: f64ptr(channelQuality(w.current))},
		)
	}

	for i := range signals {
		signals[i].EntityID = entityID
		signals[i].Source = source
		signals[i].CapturedAt = capturedAt

		if err := r.repo.InsertSignal(ctx, &signals[i]); err != nil {
			return fmt.Errorf("write %s/%s signal: %w", source, signals[i].SignalType, err)
		}
	}

	return nil
}

// channelQuality scores video channel richness on a 0-10 scale from the
// number of distinct channels and average likes per video.
func channelQuality(w windowStats) float64 {
	if w.count == 0 {
		return 0
	}

	avgLikes := w.likes / float64(w.count)

	quality := float64(len(w.channels))*0.5 + avgLikes/100
	if quality > maxChannelQuality {
		quality = maxChannelQuality
	}

	return quality
}

func metricNumber(metrics map[string]any, key string) float64 {
	if metrics == nil {
		return 0
	}

	switch v := metrics[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func metricString(metrics map[string]any, key string) string {
	if metrics == nil {
		return ""
	}

	if s, ok := metrics[key].(string); ok {
		return s
	}

	return ""
}

func f64ptr(v float64) *float64 {
	return &v
}
