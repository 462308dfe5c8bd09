package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const maxWhyNowReasons = 3

// buildEvidence picks the freshest matched event per source and orders
// them newest first. Events without a published timestamp cannot be cited.
func buildEvidence(events []domain.RawEvent) []domain.EvidenceEvent {
	latest := make(map[string]domain.RawEvent)

	for _, ev := range events {
		if ev.PublishedAt == nil || ev.Title == "" {
			continue
		}

		cur, ok := latest[ev.Source]
		if !ok || ev.PublishedAt.After(*cur.PublishedAt) {
			latest[ev.Source] = ev
		}
	}

	evidence := make([]domain.EvidenceEvent, 0, len(latest))
	for _, ev := range latest {
		evidence = append(evidence, domain.EvidenceEvent{
			Source:      ev.Source,
			Title:       ev.Title,
			URL:         ev.URL,
			PublishedAt: *ev.PublishedAt,
		})
	}

	sort.Slice(evidence, func(i, j int) bool {
		return evidence[i].PublishedAt.After(evidence[j].PublishedAt)
	})

	return evidence
}

// buildWhyNow composes the one-line answer to "why is this entity
// interesting today". Concrete cited events beat generic signal
// summaries; at most three reasons survive.
func buildWhyNow(evidence []domain.EvidenceEvent, s interpretation) string {
	reasons := make([]string, 0, maxWhyNowReasons)

	for _, ev := range evidence {
		if len(reasons) == maxWhyNowReasons {
			break
		}

		reasons = append(reasons, fmt.Sprintf("%s: %s", ev.Source, ev.Title))
	}

	for _, r := range []struct {
		valid  bool
		reason string
	}{
		{s.reviews.Valid, s.reviews.Reason},
		{s.discussions.Valid, s.discussions.Reason},
		{s.videos.Valid, s.videos.Reason},
		{s.announcements.Valid, s.announcements.Reason},
	} {
		if len(reasons) == maxWhyNowReasons {
			break
		}

		if r.valid && r.reason != "" {
			reasons = append(reasons, r.reason)
		}
	}

	return strings.Join(reasons, "; ")
}

// buildExplanation lists the human-readable trail behind the score: the
// percentile-labelled review delta, every family's reason, and the
// accumulated risk flags.
func buildExplanation(agg *domain.DailyAggregate, dist *Distributions, s interpretation) []string {
	var lines []string

	if agg.ReviewsDelta7d != nil && *agg.ReviewsDelta7d > 0 {
		lines = append(lines, dist.Delta7dLabel(*agg.ReviewsDelta7d))
	}

	for _, reason := range []string{
		s.reviews.Reason,
		s.discussions.Reason,
		s.videos.Reason,
		s.announcements.Reason,
	} {
		if reason != "" {
			lines = append(lines, reason)
		}
	}

	for _, flags := range [][]string{
		s.reviews.RiskFlags,
		s.discussions.RiskFlags,
		s.videos.RiskFlags,
		s.announcements.RiskFlags,
	} {
		lines = append(lines, flags...)
	}

	return lines
}
