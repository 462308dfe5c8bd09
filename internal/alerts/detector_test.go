package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

var alertDay = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

type mockAlertRepo struct {
	analyses []domain.EmergingAnalysis
	inserted []domain.Alert
	seen     map[string]bool
}

func (m *mockAlertRepo) ListAnalysesForDay(_ context.Context, _ time.Time) ([]domain.EmergingAnalysis, error) {
	return m.analyses, nil
}

func (m *mockAlertRepo) InsertAlert(_ context.Context, a *domain.Alert) (bool, error) {
	key := a.Kind + a.Day.Format(time.DateOnly) + a.Message
	if m.seen == nil {
		m.seen = map[string]bool{}
	}

	if m.seen[key] {
		return false, nil
	}

	m.seen[key] = true
	m.inserted = append(m.inserted, *a)

	return true, nil
}

type recordingNotifier struct {
	delivered []domain.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, alert *domain.Alert, _ *domain.EmergingAnalysis) error {
	r.delivered = append(r.delivered, *alert)

	return nil
}

func newTestDetector(repo Repository, notifier Notifier) *Detector {
	logger := zerolog.Nop()

	return New(repo, notifier, &logger)
}

func TestRunDay_BreakoutAlert(t *testing.T) {
	repo := &mockAlertRepo{analyses: []domain.EmergingAnalysis{{
		EntityID:        1,
		Name:            "rising star",
		Day:             alertDay,
		Score:           70,
		Stage:           domain.StageBreakout,
		ConfidenceScore: 75,
		ConfidenceLevel: domain.ConfidenceHigh,
		SignalsUsed:     []string{domain.SourceReviews, domain.SourceDiscussions},
	}}}

	notifier := &recordingNotifier{}

	raised, err := newTestDetector(repo, notifier).RunDay(context.Background(), alertDay)

	require.NoError(t, err)
	assert.Equal(t, 1, raised)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, domain.AlertBreakout, repo.inserted[0].Kind)
	assert.Contains(t, repo.inserted[0].Message, "rising star")
	assert.Len(t, notifier.delivered, 1)
}

func TestRunDay_CatalystAlert(t *testing.T) {
	repo := &mockAlertRepo{analyses: []domain.EmergingAnalysis{{
		EntityID:    2,
		Name:        "patched up",
		Day:         alertDay,
		Stage:       domain.StageConfirming,
		WhyNow:      "announcements: 2.0 update",
		SignalsUsed: []string{domain.SourceReviews, domain.SourceAnnouncements},
	}}}

	notifier := &recordingNotifier{}

	raised, err := newTestDetector(repo, notifier).RunDay(context.Background(), alertDay)

	require.NoError(t, err)
	assert.Equal(t, 1, raised)
	assert.Equal(t, domain.AlertCatalyst, repo.inserted[0].Kind)
}

func TestRunDay_UnconfirmedCatalystIgnored(t *testing.T) {
	repo := &mockAlertRepo{analyses: []domain.EmergingAnalysis{{
		EntityID:    3,
		Name:        "noisy announcer",
		Day:         alertDay,
		Stage:       domain.StageNoise,
		SignalsUsed: []string{domain.SourceAnnouncements},
	}}}

	raised, err := newTestDetector(repo, &recordingNotifier{}).RunDay(context.Background(), alertDay)

	require.NoError(t, err)
	assert.Zero(t, raised)
	assert.Empty(t, repo.inserted)
}

func TestRunDay_RerunRaisesNothingNew(t *testing.T) {
	repo := &mockAlertRepo{analyses: []domain.EmergingAnalysis{{
		EntityID:        4,
		Name:            "rising star",
		Day:             alertDay,
		Stage:           domain.StageBreakout,
		ConfidenceScore: 75,
		ConfidenceLevel: domain.ConfidenceHigh,
	}}}

	detector := newTestDetector(repo, &recordingNotifier{})

	first, err := detector.RunDay(context.Background(), alertDay)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := detector.RunDay(context.Background(), alertDay)
	require.NoError(t, err)
	assert.Zero(t, second)
}
