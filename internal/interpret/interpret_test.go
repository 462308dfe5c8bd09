package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

func ip(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

func TestForSource(t *testing.T) {
	for _, source := range []string{
		domain.SourceReviews,
		domain.SourceDiscussions,
		domain.SourceVideos,
		domain.SourceAnnouncements,
	} {
		interp, ok := ForSource(source)
		require.True(t, ok, source)
		assert.Equal(t, source, interp.Source())
	}

	_, ok := ForSource("podcasts")
	assert.False(t, ok)
}

func TestReviews_NoData(t *testing.T) {
	res := reviewsInterpreter{}.Interpret(Inputs{}, Context{})

	assert.False(t, res.Valid)
	assert.Zero(t, res.Score)
	assert.Equal(t, "No store review data", res.Reason)
}

func TestReviews_Declining(t *testing.T) {
	res := reviewsInterpreter{}.Interpret(Inputs{
		ReviewsDelta7d: ip(-30),
		PositiveRatio:  fp(0.9),
		ReviewsTotal:   ip(5000),
	}, Context{})

	assert.False(t, res.Valid)
	assert.Zero(t, res.Score)
	assert.Contains(t, res.RiskFlags, "Store reviews declining over 7 days")
}

func TestReviews_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		delta7d  int
		score    float64
		strength string
		valid    bool
	}{
		{name: "strong", delta7d: 200, score: 80, strength: StrengthStrong, valid: true},
		{name: "medium", delta7d: 60, score: 50, strength: StrengthMedium, valid: true},
		{name: "weak", delta7d: 15, score: 25, strength: StrengthWeak, valid: true},
		{name: "below floor", delta7d: 5, score: 0, strength: StrengthWeak, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reviewsInterpreter{}.Interpret(Inputs{ReviewsDelta7d: ip(tt.delta7d)}, Context{})

			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.strength, res.Strength)
			assert.Equal(t, tt.valid, res.Valid)
		})
	}
}

func TestReviews_QualityAdjustments(t *testing.T) {
	low := reviewsInterpreter{}.Interpret(Inputs{
		ReviewsDelta7d: ip(60),
		PositiveRatio:  fp(0.6),
	}, Context{})
	assert.Equal(t, float64(30), low.Score)
	assert.Contains(t, low.RiskFlags, "Low review quality: 60% positive")

	high := reviewsInterpreter{}.Interpret(Inputs{
		ReviewsDelta7d: ip(60),
		PositiveRatio:  fp(0.95),
	}, Context{})
	assert.Equal(t, float64(60), high.Score)
	assert.Empty(t, high.RiskFlags)
}

func TestReviews_LowQualityNeverNegative(t *testing.T) {
	res := reviewsInterpreter{}.Interpret(Inputs{
		ReviewsDelta7d: ip(15),
		PositiveRatio:  fp(0.5),
	}, Context{})

	assert.Equal(t, float64(5), res.Score)
	assert.True(t, res.Valid)
}

func TestReviews_ScaleBonus(t *testing.T) {
	res := reviewsInterpreter{}.Interpret(Inputs{
		ReviewsDelta7d: ip(200),
		ReviewsTotal:   ip(500),
	}, Context{})
	assert.Equal(t, float64(85), res.Score)

	capped := reviewsInterpreter{}.Interpret(Inputs{
		ReviewsDelta7d: ip(200),
		ReviewsTotal:   ip(50000),
	}, Context{})
	assert.Equal(t, float64(90), capped.Score)
}

func TestDiscussions_NoPosts(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{}, Context{ConfirmingValid: true})

	assert.False(t, res.Valid)
	assert.Equal(t, "No discussion activity", res.Reason)
}

func TestDiscussions_NoVelocityIsNoise(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts: fp(40),
	}, Context{ConfirmingValid: true})

	assert.False(t, res.Valid)
	assert.Zero(t, res.Score)
	assert.Contains(t, res.RiskFlags, "Discussion volume without growth reads as noise")
}

func TestDiscussions_ConfirmingDecliningSuppresses(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts:    fp(40),
		DiscussionVelocity: fp(10),
	}, Context{ConfirmingDeclining: true, EarlyLifecycle: true})

	assert.False(t, res.Valid)
	assert.Zero(t, res.Score)
	assert.Contains(t, res.RiskFlags, "Declining store reviews suppress discussion momentum")
}

func TestDiscussions_UnconfirmedEarlyIsProvisional(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts:    fp(12),
		DiscussionVelocity: fp(4),
	}, Context{EarlyLifecycle: true, LifecycleStage: domain.LifecycleSoftLaunch})

	assert.True(t, res.Valid)
	assert.Equal(t, float64(provisionalScore), res.Score)
	assert.Equal(t, StrengthWeak, res.Strength)
	assert.Contains(t, res.RiskFlags, "Unconfirmed social interest in early lifecycle")
}

func TestDiscussions_UnconfirmedLateIsPenalized(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts:    fp(40),
		DiscussionVelocity: fp(10),
	}, Context{LifecycleStage: domain.LifecycleGrowth})

	assert.False(t, res.Valid)
	assert.Equal(t, float64(-10), res.Score)
	assert.Contains(t, res.RiskFlags, "Unconfirmed social volume without store traction")
}

func TestDiscussions_ConfirmedMatureIsPenalized(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts:    fp(6),
		DiscussionVelocity: fp(3),
	}, Context{ConfirmingValid: true, LifecycleStage: domain.LifecycleMaturity})

	assert.False(t, res.Valid)
	assert.Equal(t, float64(-6), res.Score)
	assert.Contains(t, res.RiskFlags, "Social volume on a mature title treated as hype risk")
}

func TestDiscussions_ConfirmedScoring(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts:       fp(8),
		DiscussionVelocity:    fp(4),
		DiscussionComments:    fp(120),
		DiscussionCommunities: fp(3),
	}, Context{ConfirmingValid: true, LifecycleStage: domain.LifecycleBreakout})

	// 12 + 2 + 2.4 + 1.5, truncated.
	require.True(t, res.Valid)
	assert.Equal(t, float64(17), res.Score)
	assert.Equal(t, StrengthMedium, res.Strength)
}

func TestDiscussions_ScoreCap(t *testing.T) {
	res := discussionsInterpreter{}.Interpret(Inputs{
		DiscussionPosts:       fp(500),
		DiscussionVelocity:    fp(200),
		DiscussionComments:    fp(5000),
		DiscussionCommunities: fp(40),
	}, Context{ConfirmingValid: true, LifecycleStage: domain.LifecycleGrowth})

	require.True(t, res.Valid)
	assert.Equal(t, float64(25), res.Score)
	assert.Equal(t, StrengthStrong, res.Strength)
}

func TestVideos_TooFew(t *testing.T) {
	res := videosInterpreter{}.Interpret(Inputs{
		Videos:        fp(1),
		VideoVelocity: fp(1),
	}, Context{ConfirmingValid: true})

	assert.False(t, res.Valid)
	assert.Equal(t, "Fewer than two recent videos", res.Reason)
}

func TestVideos_DiscussionConfirmationAccepted(t *testing.T) {
	res := videosInterpreter{}.Interpret(Inputs{
		Videos:        fp(4),
		VideoVelocity: fp(2),
	}, Context{DiscussionsValid: true, LifecycleStage: domain.LifecycleBreakout})

	require.True(t, res.Valid)
	assert.Equal(t, float64(9), res.Score)
}

func TestVideos_UnconfirmedLateIsPenalized(t *testing.T) {
	res := videosInterpreter{}.Interpret(Inputs{
		Videos:        fp(4),
		VideoVelocity: fp(2),
	}, Context{LifecycleStage: domain.LifecycleGrowth})

	assert.False(t, res.Valid)
	assert.Equal(t, float64(-4), res.Score)
	assert.Contains(t, res.RiskFlags, "Unconfirmed video volume without supporting traction")
}

func TestVideos_ViewsAndQualityBonuses(t *testing.T) {
	res := videosInterpreter{}.Interpret(Inputs{
		Videos:         fp(5),
		VideoVelocity:  fp(4),
		VideoViews:     fp(8000),
		ChannelQuality: fp(4),
	}, Context{ConfirmingValid: true, LifecycleStage: domain.LifecycleGrowth})

	// 10 + 2 + 4 + 2, truncated.
	require.True(t, res.Valid)
	assert.Equal(t, float64(18), res.Score)
	assert.Equal(t, StrengthMedium, res.Strength)
}

func TestAnnouncements_Tiers(t *testing.T) {
	none := announcementsInterpreter{}.Interpret(Inputs{}, Context{})
	assert.False(t, none.Valid)
	assert.Equal(t, "No developer announcements", none.Reason)

	one := announcementsInterpreter{}.Interpret(Inputs{AnnouncementPosts: fp(1)}, Context{})
	require.True(t, one.Valid)
	assert.Equal(t, float64(10), one.Score)
	assert.Equal(t, StrengthMedium, one.Strength)

	two := announcementsInterpreter{}.Interpret(Inputs{AnnouncementPosts: fp(2)}, Context{})
	require.True(t, two.Valid)
	assert.Equal(t, float64(20), two.Score)
	assert.Equal(t, StrengthStrong, two.Strength)
}

func TestAnnouncements_VelocityBonusCapped(t *testing.T) {
	res := announcementsInterpreter{}.Interpret(Inputs{
		AnnouncementPosts:    fp(1),
		AnnouncementVelocity: fp(1),
	}, Context{})
	assert.Equal(t, float64(12), res.Score)

	capped := announcementsInterpreter{}.Interpret(Inputs{
		AnnouncementPosts:    fp(3),
		AnnouncementVelocity: fp(10),
	}, Context{})
	assert.Equal(t, float64(catalystScoreCap), capped.Score)
}
