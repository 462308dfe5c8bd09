// Package match links raw events to catalog entities by alias lookup.
// Exact word-boundary matches are preferred; a fuzzy pass over a bounded
// candidate set catches near-miss spellings at structurally lower
// confidence.
package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/platform/observability"
)

const (
	// MinConfidence is the acceptance floor for any match verdict.
	MinConfidence = 0.80
	// MaxFuzzyConfidence caps fuzzy verdicts below strong exact ones.
	MaxFuzzyConfidence = 0.85

	maxExactConfidence  = 0.98
	minExactAliasLength = 4
	minFuzzyAliasLength = 6
	minNormalizedLength = 4
	fuzzyRatioFloor     = 0.75
	prefixWordCount     = 5

	reasonNoMatch = "no_match"
)

// Verdict is one accepted match.
type Verdict struct {
	EntityID   int64
	Confidence float64
	Reason     string
}

// Repository is the storage surface the matcher needs.
type Repository interface {
	ListAliases(ctx context.Context) ([]domain.AliasEntry, error)
	ListUnmatchedEvents(ctx context.Context, limit int) ([]domain.RawEvent, error)
	SetEventMatch(ctx context.Context, eventID int64, entityID *int64, confidence *float64, reason string) error
	ResetNoMatchVerdicts(ctx context.Context) (int64, error)
}

type indexedAlias struct {
	entityID   int64
	normalized string
	aliasType  string
	weight     int
}

// Matcher matches raw event text against the alias index.
type Matcher struct {
	repo           Repository
	batchSize      int
	candidateLimit int
	logger         *zerolog.Logger

	exact []indexedAlias
	fuzzy []indexedAlias
}

// New creates a matcher. Call Refresh before the first batch to load the
// alias index.
func New(repo Repository, batchSize, candidateLimit int, logger *zerolog.Logger) *Matcher {
	return &Matcher{
		repo:           repo,
		batchSize:      batchSize,
		candidateLimit: candidateLimit,
		logger:         logger,
	}
}

// Refresh reloads the in-memory alias index from storage.
func (m *Matcher) Refresh(ctx context.Context) error {
	aliases, err := m.repo.ListAliases(ctx)
	if err != nil {
		return fmt.Errorf("load alias index: %w", err)
	}

	m.exact = m.exact[:0]
	m.fuzzy = m.fuzzy[:0]

	for _, a := range aliases {
		normalized := Normalize(a.Alias)
		if len(normalized) < minExactAliasLength {
			continue
		}

		entry := indexedAlias{
			entityID:   a.EntityID,
			normalized: normalized,
			aliasType:  a.AliasType,
			weight:     a.Weight,
		}

		m.exact = append(m.exact, entry)

		if len(normalized) >= minFuzzyAliasLength &&
			(a.AliasType == domain.AliasOfficial || a.AliasType == domain.AliasCommon) {
			m.fuzzy = append(m.fuzzy, entry)
		}
	}

	// Fuzzy candidates are bounded: strongest aliases first, longer wins ties.
	sort.SliceStable(m.fuzzy, func(i, j int) bool {
		if m.fuzzy[i].weight != m.fuzzy[j].weight {
			return m.fuzzy[i].weight > m.fuzzy[j].weight
		}

		return len(m.fuzzy[i].normalized) > len(m.fuzzy[j].normalized)
	})

	if len(m.fuzzy) > m.candidateLimit {
		m.fuzzy = m.fuzzy[:m.candidateLimit]
	}

	m.logger.Debug().Int("exact", len(m.exact)).Int("fuzzy", len(m.fuzzy)).Msg("alias index refreshed")

	return nil
}

// Match returns the best verdict for an event's title and body, or false
// when nothing clears the confidence floor. No match is an expected
// outcome, not an error.
func (m *Matcher) Match(title, body string) (Verdict, bool) {
	if title == "" {
		return Verdict{}, false
	}

	combined := title
	if body != "" {
		combined = title + " " + body
	}

	normalized := Normalize(combined)
	if len(normalized) < minNormalizedLength {
		return Verdict{}, false
	}

	if v, ok := m.matchExact(normalized); ok {
		return v, true
	}

	return m.matchFuzzy(normalized)
}

func (m *Matcher) matchExact(normalized string) (Verdict, bool) {
	var (
		best      Verdict
		bestScore float64
	)

	for _, a := range m.exact {
		if !containsWord(normalized, a.normalized) {
			continue
		}

		confidence := exactConfidence(a)
		if confidence > bestScore {
			bestScore = confidence
			best = Verdict{
				EntityID:   a.entityID,
				Confidence: confidence,
				Reason:     "exact_match_" + a.aliasType,
			}
		}
	}

	if bestScore >= MinConfidence {
		return best, true
	}

	return Verdict{}, false
}

func exactConfidence(a indexedAlias) float64 {
	base := 0.85

	switch a.aliasType {
	case domain.AliasOfficial:
		base = 0.98
	case domain.AliasCommon:
		base = 0.95
	case domain.AliasAbbrev:
		base = 0.90
	case domain.AliasShort:
		base = 0.88
	}

	lengthBonus := float64(len(a.normalized)) * 0.002
	if lengthBonus > 0.05 {
		lengthBonus = 0.05
	}

	confidence := base + lengthBonus
	if confidence > maxExactConfidence {
		confidence = maxExactConfidence
	}

	return confidence * (0.9 + float64(a.weight)*0.01)
}

func (m *Matcher) matchFuzzy(normalized string) (Verdict, bool) {
	candidate := firstWords(normalized, prefixWordCount)
	candidateChars := strings.Split(candidate, "")

	var (
		best      Verdict
		bestRatio float64
	)

	for _, a := range m.fuzzy {
		ratio := difflib.NewMatcher(candidateChars, strings.Split(a.normalized, "")).Ratio()
		if ratio <= fuzzyRatioFloor || ratio <= bestRatio {
			continue
		}

		confidence := ratio * 0.95
		if confidence > MaxFuzzyConfidence {
			confidence = MaxFuzzyConfidence
		}

		if confidence < MinConfidence {
			continue
		}

		bestRatio = ratio
		best = Verdict{
			EntityID:   a.entityID,
			Confidence: confidence,
			Reason:     fmt.Sprintf("fuzzy_match_%s_ratio_%.2f", a.aliasType, ratio),
		}
	}

	return best, bestRatio > 0
}

// Rematch reopens previously recorded no-match verdicts so that
// subsequent batches re-examine them against the current alias catalog.
func (m *Matcher) Rematch(ctx context.Context) (int64, error) {
	reopened, err := m.repo.ResetNoMatchVerdicts(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset no-match verdicts: %w", err)
	}

	if reopened > 0 {
		m.logger.Info().Int64("reopened", reopened).Msg("reopened unmatched events for re-match")
	}

	return reopened, nil
}

// BatchStats summarizes one matcher batch.
type BatchStats struct {
	Matched   int
	Unmatched int
	Errors    int
}

// ProcessBatch matches one batch of pending events and writes the
// verdicts back. Per-event failures are counted and skipped, never abort
// the batch.
func (m *Matcher) ProcessBatch(ctx context.Context) (BatchStats, error) {
	if err := m.Refresh(ctx); err != nil {
		return BatchStats{}, err
	}

	events, err := m.repo.ListUnmatchedEvents(ctx, m.batchSize)
	if err != nil {
		return BatchStats{}, fmt.Errorf("list unmatched events: %w", err)
	}

	var stats BatchStats

	for _, event := range events {
		verdict, ok := m.Match(event.Title, event.Body)
		if !ok {
			if err := m.repo.SetEventMatch(ctx, event.ID, nil, nil, reasonNoMatch); err != nil {
				m.logger.Warn().Err(err).Int64("event_id", event.ID).Msg("failed to record no-match verdict")

				stats.Errors++

				continue
			}

			observability.MatchVerdicts.WithLabelValues("none").Inc()

			stats.Unmatched++

			continue
		}

		if err := m.repo.SetEventMatch(ctx, event.ID, &verdict.EntityID, &verdict.Confidence, verdict.Reason); err != nil {
			m.logger.Warn().Err(err).Int64("event_id", event.ID).Msg("failed to record match verdict")

			stats.Errors++

			continue
		}

		outcome := "exact"
		if strings.HasPrefix(verdict.Reason, "fuzzy_match_") {
			outcome = "fuzzy"
		}

		observability.MatchVerdicts.WithLabelValues(outcome).Inc()
		observability.MatchConfidence.Observe(verdict.Confidence)

		stats.Matched++
	}

	if len(events) > 0 {
		m.logger.Info().
			Int("matched", stats.Matched).
			Int("unmatched", stats.Unmatched).
			Int("errors", stats.Errors).
			Msg("matcher batch complete")
	}

	return stats, nil
}
