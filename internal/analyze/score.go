package analyze

import (
	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/interpret"
)

// Score band weights. Confirmation carries the verdict; momentum and
// catalyst can only amplify it.
const (
	confirmationWeight = 0.5
	momentumWeight     = 0.3
	catalystWeight     = 0.2
)

const (
	confidenceBase            = 20
	confidenceConfirming      = 25
	confidenceStrong          = 10
	confidencePerSecondary    = 10
	confidenceMaxSecondaries  = 2
	confidenceEarlyMomentum   = 10
	confidenceVolumePenalty   = 20
	confidenceQualityPenalty  = 10
	confidenceMediumThreshold = 40
	confidenceHighThreshold   = 70
)

const breakoutMinConfidence = 60

// interpretation bundles the four per-family results for one entity run.
type interpretation struct {
	reviews       interpret.Result
	discussions   interpret.Result
	videos        interpret.Result
	announcements interpret.Result
}

func (s interpretation) validSecondaries() int {
	n := 0

	for _, r := range []interpret.Result{s.discussions, s.videos} {
		if r.Valid {
			n++
		}
	}

	return n
}

// combine folds the per-family results into strictly separated score
// bands and the weighted final score. Negative secondary scores are
// penalties: they never enter momentum.
func combine(s interpretation) (domain.ScoreComponents, float64) {
	var c domain.ScoreComponents

	if s.reviews.Valid {
		c.Confirmation = s.reviews.Score
	}

	c.Momentum = positive(s.discussions.Score) + positive(s.videos.Score)
	c.Penalty = positive(-s.discussions.Score) + positive(-s.videos.Score)

	if s.announcements.Valid {
		c.Catalyst = s.announcements.Score
	}

	final := c.Confirmation*confirmationWeight + c.Momentum*momentumWeight + c.Catalyst*catalystWeight
	if final < 0 {
		final = 0
	}

	return c, final
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}

	return 0
}

// confidenceInputs are the calibration facts for one entity run.
// PenalizedVolume is the raw social volume behind negative or otherwise
// penalized secondary results.
type confidenceInputs struct {
	confirmingValid  bool
	confirmingStrong bool
	validSecondaries int
	earlyMomentum    bool
	penalizedVolume  float64
	lowQuality       bool
}

// computeConfidence scores how much the verdict should be trusted,
// clamped [0,100].
func computeConfidence(in confidenceInputs) int {
	score := confidenceBase

	if in.confirmingValid {
		score += confidenceConfirming

		if in.confirmingStrong {
			score += confidenceStrong
		}

		secondaries := in.validSecondaries
		if secondaries > confidenceMaxSecondaries {
			secondaries = confidenceMaxSecondaries
		}

		score += secondaries * confidencePerSecondary
	}

	if in.earlyMomentum {
		score += confidenceEarlyMomentum
	}

	if in.penalizedVolume > 0 {
		penalty := int(in.penalizedVolume)
		if penalty > confidenceVolumePenalty {
			penalty = confidenceVolumePenalty
		}

		score -= penalty
	}

	if in.lowQuality {
		score -= confidenceQualityPenalty
	}

	if score < 0 {
		score = 0
	}

	if score > 100 {
		score = 100
	}

	return score
}

func confidenceLevel(score int) string {
	switch {
	case score >= confidenceHighThreshold:
		return domain.ConfidenceHigh
	case score >= confidenceMediumThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// determineStage classifies the run into the closed momentum stage set.
// Priority runs top-down; the first matching stage wins.
func determineStage(excluded bool, s interpretation, confidence int) string {
	switch {
	case excluded:
		return domain.StageExcluded
	case s.reviews.Valid && s.reviews.Strength == interpret.StrengthStrong &&
		s.validSecondaries() >= 1 && confidence >= breakoutMinConfidence:
		return domain.StageBreakout
	case s.reviews.Valid:
		return domain.StageConfirming
	case s.validSecondaries() >= 1:
		return domain.StageEarly
	default:
		return domain.StageNoise
	}
}

// classifyGrowth labels why the score moved.
func classifyGrowth(s interpretation) string {
	active := 0

	for _, r := range []interpret.Result{s.reviews, s.discussions, s.videos, s.announcements} {
		if r.Valid {
			active++
		}
	}

	momentumValid := s.discussions.Valid || s.videos.Valid

	switch {
	case active >= 3:
		return domain.GrowthMixed
	case s.announcements.Valid && !s.reviews.Valid && !momentumValid:
		return domain.GrowthNewsDriven
	case s.reviews.Valid && momentumValid:
		return domain.GrowthOrganic
	case s.reviews.Valid:
		return domain.GrowthPlatformDriven
	default:
		return domain.GrowthHype
	}
}

// determineVerdict maps the combined facts onto the closed verdict set.
func determineVerdict(flags Flags, score float64, s interpretation, lifecycle string) string {
	if flags.Evergreen {
		return domain.VerdictEvergreenExcluded
	}

	if score >= 60 {
		switch {
		case flags.RealGrowth && !flags.HypeSpike:
			return domain.VerdictStrongOrganic
		case flags.HypeSpike:
			return domain.VerdictHypeSpike
		default:
			return domain.VerdictHighScore
		}
	}

	if s.reviews.Valid && s.validSecondaries() == 0 {
		return domain.VerdictStoreOnly
	}

	if !s.reviews.Valid && s.validSecondaries() >= 1 && earlyLifecycle(lifecycle) {
		return domain.VerdictEarlySignal
	}

	if score >= 40 {
		switch {
		case flags.NewRelease:
			return domain.VerdictNewRelease
		case flags.Rediscovered:
			return domain.VerdictRediscovered
		default:
			return domain.VerdictModerateGrowth
		}
	}

	if score >= 20 {
		return domain.VerdictWeakSignal
	}

	return domain.VerdictLimitedData
}
