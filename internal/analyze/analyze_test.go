package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/interpret"
)

func ip(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

func tp(t time.Time) *time.Time { return &t }

var analyzeDay = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func TestAgeDays(t *testing.T) {
	released := analyzeDay.AddDate(0, 0, -100)

	assert.Equal(t, 100, AgeDays(&domain.Entity{ReleaseDate: &released}, analyzeDay))
	assert.Equal(t, -1, AgeDays(&domain.Entity{}, analyzeDay))

	future := analyzeDay.AddDate(0, 0, 30)
	assert.Equal(t, -1, AgeDays(&domain.Entity{ReleaseDate: &future}, analyzeDay))
}

func TestComputeFlags_Evergreen(t *testing.T) {
	agg := &domain.DailyAggregate{ReviewsTotal: ip(15000), ReviewsDelta7d: ip(10)}

	assert.True(t, ComputeFlags(1500, agg).Evergreen)
	assert.False(t, ComputeFlags(400, agg).Evergreen, "too young")

	small := &domain.DailyAggregate{ReviewsTotal: ip(5000), ReviewsDelta7d: ip(10)}
	assert.False(t, ComputeFlags(1500, small).Evergreen, "not enough volume")
}

func TestComputeFlags_SustainedSpikeLiftsEvergreen(t *testing.T) {
	sustained := &domain.DailyAggregate{
		ReviewsTotal:   ip(15000),
		ReviewsDelta7d: ip(600),
		ReviewsDelta1d: ip(100),
	}
	assert.False(t, ComputeFlags(1500, sustained).Evergreen)

	burst := &domain.DailyAggregate{
		ReviewsTotal:   ip(15000),
		ReviewsDelta7d: ip(600),
		ReviewsDelta1d: ip(500),
	}
	assert.True(t, ComputeFlags(1500, burst).Evergreen, "single-day burst is not sustained")
}

func TestComputeFlags_GrowthShapes(t *testing.T) {
	steady := &domain.DailyAggregate{ReviewsDelta7d: ip(30), ReviewsDelta1d: ip(10)}
	f := ComputeFlags(200, steady)
	assert.True(t, f.RealGrowth)
	assert.False(t, f.HypeSpike)

	spiky := &domain.DailyAggregate{ReviewsDelta7d: ip(30), ReviewsDelta1d: ip(20)}
	f = ComputeFlags(200, spiky)
	assert.False(t, f.RealGrowth)
	assert.True(t, f.HypeSpike)

	big := &domain.DailyAggregate{ReviewsDelta7d: ip(60)}
	assert.True(t, ComputeFlags(200, big).RealGrowth)
}

func TestComputeFlags_ReleaseAge(t *testing.T) {
	agg := &domain.DailyAggregate{ReviewsDelta7d: ip(150), ReviewsTotal: ip(3000)}

	assert.True(t, ComputeFlags(30, agg).NewRelease)
	assert.False(t, ComputeFlags(-1, agg).NewRelease, "unreleased is not a new release")
	assert.True(t, ComputeFlags(800, agg).Rediscovered)
	assert.False(t, ComputeFlags(400, agg).Rediscovered)
}

func TestComputeFlags_LowQualityGrowth(t *testing.T) {
	agg := &domain.DailyAggregate{ReviewsDelta7d: ip(20), PositiveRatio: fp(0.6)}

	assert.True(t, ComputeFlags(200, agg).LowQualityGrowth)
}

func TestDeriveLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		ageDays int
		agg     domain.DailyAggregate
		want    string
	}{
		{name: "unreleased", ageDays: -1, want: domain.LifecyclePreRelease},
		{name: "young", ageDays: 30, want: domain.LifecycleSoftLaunch},
		{
			name: "tiny volume", ageDays: 200,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(50)},
			want: domain.LifecycleSoftLaunch,
		},
		{
			name: "growing small title", ageDays: 200,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(500), ReviewsDelta7d: ip(20)},
			want: domain.LifecycleBreakout,
		},
		{
			name: "growing established title", ageDays: 200,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(5000), ReviewsDelta7d: ip(100)},
			want: domain.LifecycleGrowth,
		},
		{
			name: "drift on a big title is maturity", ageDays: 1500,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(15000), ReviewsDelta7d: ip(50)},
			want: domain.LifecycleMaturity,
		},
		{
			name: "old and falling", ageDays: 1500,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(15000), ReviewsDelta7d: ip(-30)},
			want: domain.LifecycleDecline,
		},
		{
			name: "young and falling", ageDays: 200,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(15000), ReviewsDelta7d: ip(-30)},
			want: domain.LifecycleMaturity,
		},
		{
			name: "old title suddenly moving", ageDays: 800,
			agg:  domain.DailyAggregate{ReviewsTotal: ip(3000), ReviewsDelta7d: ip(150)},
			want: domain.LifecycleRelaunchCandidate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveLifecycle(tt.ageDays, &tt.agg))
		})
	}
}

func TestDistributions_Percentiles(t *testing.T) {
	aggs := []domain.DailyAggregate{
		{ReviewsDelta7d: ip(10), ReviewsDelta1d: ip(1), PositiveRatio: fp(0.6)},
		{ReviewsDelta7d: ip(20), ReviewsDelta1d: ip(5), PositiveRatio: fp(0.8)},
		{ReviewsDelta7d: ip(50), ReviewsDelta1d: ip(10), PositiveRatio: fp(0.9)},
		{ReviewsDelta7d: ip(100)},
		{ReviewsDelta7d: ip(200)},
	}

	dist := BuildDistributions(aggs)

	assert.InDelta(t, 0.8, dist.PercentileDelta7d(100), 1e-9)
	assert.InDelta(t, 1.0, dist.PercentileDelta7d(500), 1e-9)
	assert.InDelta(t, 0.0, dist.PercentileDelta7d(5), 1e-9)
	assert.InDelta(t, 2.0/3, dist.PercentileRatio(0.8), 1e-9)
}

func TestDistributions_HeuristicFallback(t *testing.T) {
	dist := BuildDistributions(nil)

	assert.InDelta(t, 0.5, dist.PercentileDelta7d(250), 1e-9)
	assert.InDelta(t, 1.0, dist.PercentileDelta7d(900), 1e-9)
	assert.InDelta(t, 0.1, dist.PercentileDelta1d(10), 1e-9)
	assert.InDelta(t, 0.6, dist.PercentileRatio(0.85), 1e-9)
	assert.InDelta(t, 0.0, dist.PercentileRatio(0.5), 1e-9)
}

func TestDistributions_Delta7dLabel(t *testing.T) {
	aggs := []domain.DailyAggregate{
		{ReviewsDelta7d: ip(10)},
		{ReviewsDelta7d: ip(20)},
		{ReviewsDelta7d: ip(50)},
		{ReviewsDelta7d: ip(100)},
	}

	dist := BuildDistributions(aggs)

	assert.Equal(t, "Reviews +100 in 7d (top 1%)", dist.Delta7dLabel(100))
	assert.Equal(t, "Reviews +50 in 7d (top 25%)", dist.Delta7dLabel(50))
}

func TestCombine_Bands(t *testing.T) {
	components, final := combine(interpretation{
		reviews:       interpret.Result{Valid: true, Score: 50},
		discussions:   interpret.Result{Valid: true, Score: 17},
		videos:        interpret.Result{Score: -4},
		announcements: interpret.Result{Valid: true, Score: 10},
	})

	assert.Equal(t, float64(50), components.Confirmation)
	assert.Equal(t, float64(17), components.Momentum)
	assert.Equal(t, float64(4), components.Penalty)
	assert.Equal(t, float64(10), components.Catalyst)
	assert.InDelta(t, 32.1, final, 1e-9)
}

func TestCombine_NegativeSecondariesNeverAddMomentum(t *testing.T) {
	components, final := combine(interpretation{
		reviews:     interpret.Result{Valid: true, Score: 50},
		discussions: interpret.Result{Score: -10},
		videos:      interpret.Result{Score: -5},
	})

	assert.Zero(t, components.Momentum)
	assert.Equal(t, float64(15), components.Penalty)
	assert.InDelta(t, 25, final, 1e-9)
}

func TestComputeConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   confidenceInputs
		want int
	}{
		{name: "nothing", want: 20},
		{name: "confirming only", in: confidenceInputs{confirmingValid: true}, want: 45},
		{
			name: "confirming strong with secondaries",
			in: confidenceInputs{
				confirmingValid:  true,
				confirmingStrong: true,
				validSecondaries: 2,
			},
			want: 75,
		},
		{
			name: "secondary cap",
			in: confidenceInputs{
				confirmingValid:  true,
				validSecondaries: 5,
			},
			want: 65,
		},
		{
			name: "secondaries without confirmation add nothing",
			in:   confidenceInputs{validSecondaries: 2},
			want: 20,
		},
		{
			name: "early momentum bonus",
			in:   confidenceInputs{earlyMomentum: true},
			want: 30,
		},
		{
			name: "penalized volume reduces",
			in: confidenceInputs{
				confirmingValid: true,
				penalizedVolume: 10,
			},
			want: 35,
		},
		{
			name: "volume penalty capped",
			in: confidenceInputs{
				confirmingValid: true,
				penalizedVolume: 500,
			},
			want: 25,
		},
		{
			name: "low quality reduces",
			in: confidenceInputs{
				confirmingValid: true,
				lowQuality:      true,
			},
			want: 35,
		},
		{
			name: "floor at zero",
			in: confidenceInputs{
				penalizedVolume: 20,
				lowQuality:      true,
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeConfidence(tt.in)

			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, domain.ConfidenceLow, confidenceLevel(39))
	assert.Equal(t, domain.ConfidenceMedium, confidenceLevel(40))
	assert.Equal(t, domain.ConfidenceMedium, confidenceLevel(69))
	assert.Equal(t, domain.ConfidenceHigh, confidenceLevel(70))
}

func TestDetermineStage(t *testing.T) {
	strong := interpret.Result{Valid: true, Score: 80, Strength: interpret.StrengthStrong}
	medium := interpret.Result{Valid: true, Score: 50, Strength: interpret.StrengthMedium}
	secondary := interpret.Result{Valid: true, Score: 15}

	assert.Equal(t, domain.StageExcluded, determineStage(true, interpretation{reviews: strong}, 90))

	breakout := interpretation{reviews: strong, discussions: secondary}
	assert.Equal(t, domain.StageBreakout, determineStage(false, breakout, 75))
	assert.Equal(t, domain.StageConfirming, determineStage(false, breakout, 50),
		"low confidence keeps a strong signal at confirming")

	assert.Equal(t, domain.StageConfirming, determineStage(false, interpretation{reviews: medium, discussions: secondary}, 75))
	assert.Equal(t, domain.StageEarly, determineStage(false, interpretation{discussions: secondary}, 30))
	assert.Equal(t, domain.StageNoise, determineStage(false, interpretation{}, 20))
}

func TestClassifyGrowth(t *testing.T) {
	valid := interpret.Result{Valid: true, Score: 20}

	assert.Equal(t, domain.GrowthMixed,
		classifyGrowth(interpretation{reviews: valid, discussions: valid, announcements: valid}))
	assert.Equal(t, domain.GrowthOrganic,
		classifyGrowth(interpretation{reviews: valid, discussions: valid}))
	assert.Equal(t, domain.GrowthPlatformDriven,
		classifyGrowth(interpretation{reviews: valid}))
	assert.Equal(t, domain.GrowthNewsDriven,
		classifyGrowth(interpretation{announcements: valid}))
	assert.Equal(t, domain.GrowthHype,
		classifyGrowth(interpretation{discussions: valid}))
	assert.Equal(t, domain.GrowthHype, classifyGrowth(interpretation{}))
}

func TestDetermineVerdict(t *testing.T) {
	confirmed := interpretation{reviews: interpret.Result{Valid: true, Score: 80}}
	confirmedWithSecondary := interpretation{
		reviews:     interpret.Result{Valid: true, Score: 80},
		discussions: interpret.Result{Valid: true, Score: 20},
	}
	earlyOnly := interpretation{discussions: interpret.Result{Valid: true, Score: 5}}

	tests := []struct {
		name      string
		flags     Flags
		score     float64
		s         interpretation
		lifecycle string
		want      string
	}{
		{name: "evergreen wins", flags: Flags{Evergreen: true}, score: 90, s: confirmedWithSecondary, want: domain.VerdictEvergreenExcluded},
		{
			name: "strong organic", flags: Flags{RealGrowth: true}, score: 70,
			s: confirmedWithSecondary, want: domain.VerdictStrongOrganic,
		},
		{
			name: "hype spike", flags: Flags{RealGrowth: true, HypeSpike: true}, score: 70,
			s: confirmedWithSecondary, want: domain.VerdictHypeSpike,
		},
		{name: "high score", score: 70, s: confirmedWithSecondary, want: domain.VerdictHighScore},
		{name: "store only", score: 25, s: confirmed, want: domain.VerdictStoreOnly},
		{
			name: "early signal", score: 2, s: earlyOnly,
			lifecycle: domain.LifecycleSoftLaunch, want: domain.VerdictEarlySignal,
		},
		{
			name: "new release", flags: Flags{NewRelease: true}, score: 45,
			s: confirmedWithSecondary, want: domain.VerdictNewRelease,
		},
		{
			name: "rediscovered", flags: Flags{Rediscovered: true}, score: 45,
			s: confirmedWithSecondary, want: domain.VerdictRediscovered,
		},
		{name: "moderate", score: 45, s: confirmedWithSecondary, want: domain.VerdictModerateGrowth},
		{name: "weak", score: 25, s: confirmedWithSecondary, want: domain.VerdictWeakSignal},
		{name: "limited", score: 5, s: interpretation{}, want: domain.VerdictLimitedData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineVerdict(tt.flags, tt.score, tt.s, tt.lifecycle))
		})
	}
}

func TestBuildEvidence(t *testing.T) {
	events := []domain.RawEvent{
		{Source: domain.SourceDiscussions, Title: "old thread", URL: "u1", PublishedAt: tp(analyzeDay.AddDate(0, 0, -5))},
		{Source: domain.SourceDiscussions, Title: "new thread", URL: "u2", PublishedAt: tp(analyzeDay.AddDate(0, 0, -1))},
		{Source: domain.SourceAnnouncements, Title: "patch notes", URL: "u3", PublishedAt: tp(analyzeDay.AddDate(0, 0, -2))},
		{Source: domain.SourceVideos, Title: "untimed", URL: "u4"},
	}

	evidence := buildEvidence(events)

	assert.Len(t, evidence, 2)
	assert.Equal(t, "new thread", evidence[0].Title)
	assert.Equal(t, "patch notes", evidence[1].Title)
}

func TestBuildWhyNow_PrefersEvidence(t *testing.T) {
	evidence := []domain.EvidenceEvent{
		{Source: domain.SourceAnnouncements, Title: "1.0 launch"},
	}

	s := interpretation{
		reviews:     interpret.Result{Valid: true, Reason: "Strong review growth: +200 in 7 days"},
		discussions: interpret.Result{Valid: true, Reason: "10 posts across 2 communities, velocity +5"},
		videos:      interpret.Result{Reason: "Fewer than two recent videos"},
	}

	why := buildWhyNow(evidence, s)

	assert.Equal(t,
		"announcements: 1.0 launch; "+
			"Strong review growth: +200 in 7 days; "+
			"10 posts across 2 communities, velocity +5",
		why)
}

func TestBuildWhyNow_CapsAtThree(t *testing.T) {
	evidence := []domain.EvidenceEvent{
		{Source: "a", Title: "one"},
		{Source: "b", Title: "two"},
		{Source: "c", Title: "three"},
		{Source: "d", Title: "four"},
	}

	why := buildWhyNow(evidence, interpretation{})

	assert.Equal(t, "a: one; b: two; c: three", why)
}
