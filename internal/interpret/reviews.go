package interpret

import (
	"fmt"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const (
	reviewsStrongDelta = 150
	reviewsMediumDelta = 50
	reviewsWeakDelta   = 10

	lowQualityRatio  = 0.70
	highQualityRatio = 0.90

	scaleBonusFloor = 100
)

// reviewsInterpreter scores the confirming source. Store reviews require
// purchase intent, so a positive delta here anchors every other signal.
type reviewsInterpreter struct{}

func (reviewsInterpreter) Source() string { return domain.SourceReviews }

func (reviewsInterpreter) Interpret(in Inputs, _ Context) Result {
	res := newResult()

	if in.ReviewsDelta7d == nil && in.PositiveRatio == nil && in.ReviewsTotal == nil {
		res.Reason = "No store review data"

		return res
	}

	d7 := 0
	if in.ReviewsDelta7d != nil {
		d7 = *in.ReviewsDelta7d
	}

	if d7 < 0 {
		res.Reason = fmt.Sprintf("Reviews declining: %d in 7 days", d7)
		res.RiskFlags = append(res.RiskFlags, "Store reviews declining over 7 days")

		return res
	}

	switch {
	case d7 >= reviewsStrongDelta:
		res.Score = 80
		res.Strength = StrengthStrong
		res.Reason = fmt.Sprintf("Strong review growth: +%d in 7 days", d7)
	case d7 >= reviewsMediumDelta:
		res.Score = 50
		res.Strength = StrengthMedium
		res.Reason = fmt.Sprintf("Steady review growth: +%d in 7 days", d7)
	case d7 >= reviewsWeakDelta:
		res.Score = 25
		res.Strength = StrengthWeak
		res.Reason = fmt.Sprintf("Modest review growth: +%d in 7 days", d7)
	default:
		res.Reason = fmt.Sprintf("No meaningful review growth: +%d in 7 days", d7)
	}

	if in.PositiveRatio != nil {
		switch ratio := *in.PositiveRatio; {
		case ratio < lowQualityRatio:
			res.Score -= 20
			if res.Score < 0 {
				res.Score = 0
			}

			res.RiskFlags = append(res.RiskFlags, "Low review quality: "+positivePct(ratio))
		case ratio >= highQualityRatio:
			res.Score = clampScore(res.Score+10, 100)
		}
	}

	if in.ReviewsTotal != nil && *in.ReviewsTotal >= scaleBonusFloor {
		bonus := float64(*in.ReviewsTotal) / 1000 * 10
		if bonus > 10 {
			bonus = 10
		}

		res.Score = clampScore(res.Score+bonus, 100)
	}

	res.Valid = res.Score > 0

	return res
}
