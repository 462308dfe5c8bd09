package analyze

import (
	"time"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const (
	evergreenAgeDays    = 3 * 365
	evergreenMinReviews = 10000
	spikeDelta7d        = 500

	newReleaseAgeDays = 90

	rediscoveredAgeDays    = 2 * 365
	rediscoveredMinDelta7d = 100
	rediscoveredMaxTotal   = 5000

	realGrowthDelta7d = 50
)

// Flags are the anti-hype facts derived from one aggregate row plus the
// entity's age. They gate verdicts and the evergreen exclusion.
type Flags struct {
	Evergreen        bool
	NewRelease       bool
	Rediscovered     bool
	RealGrowth       bool
	HypeSpike        bool
	LowQualityGrowth bool
}

// ComputeFlags derives the flag set for an entity on a day. ageDays is
// negative for unreleased entities; volume facts missing from the
// aggregate leave their flags unset.
func ComputeFlags(ageDays int, agg *domain.DailyAggregate) Flags {
	var f Flags

	total := 0
	if agg.ReviewsTotal != nil {
		total = *agg.ReviewsTotal
	}

	if ageDays > evergreenAgeDays && total >= evergreenMinReviews && !sustainedSpike(agg) {
		f.Evergreen = true
	}

	if ageDays >= 0 && ageDays <= newReleaseAgeDays {
		f.NewRelease = true
	}

	if agg.ReviewsDelta7d != nil {
		d7 := *agg.ReviewsDelta7d

		if ageDays > rediscoveredAgeDays && d7 > rediscoveredMinDelta7d && total < rediscoveredMaxTotal {
			f.Rediscovered = true
		}

		if d7 >= realGrowthDelta7d {
			f.RealGrowth = true
		}

		if agg.ReviewsDelta1d != nil {
			d1 := *agg.ReviewsDelta1d

			if d7 > 0 && d1 > 0 && d7 >= 2*d1 {
				f.RealGrowth = true
			}

			if d7 > 0 && float64(d1) > 0.5*float64(d7) {
				f.HypeSpike = true
			}
		}

		if agg.PositiveRatio != nil && *agg.PositiveRatio < 0.7 && d7 > 0 {
			f.LowQualityGrowth = true
		}
	}

	return f
}

// sustainedSpike reports review growth large enough to pull an otherwise
// evergreen title back into consideration. A spike is sustained when it is
// not dominated by a single-day burst.
func sustainedSpike(agg *domain.DailyAggregate) bool {
	if agg.ReviewsDelta7d == nil || *agg.ReviewsDelta7d < spikeDelta7d {
		return false
	}

	if agg.ReviewsDelta1d == nil {
		return true
	}

	return float64(*agg.ReviewsDelta1d) < 0.7*float64(*agg.ReviewsDelta7d)
}

// AgeDays returns the entity's age in whole days at the given day, or -1
// when the release date is unknown or in the future.
func AgeDays(e *domain.Entity, day time.Time) int {
	if e.ReleaseDate == nil || e.ReleaseDate.After(day) {
		return -1
	}

	return int(day.Sub(*e.ReleaseDate).Hours() / 24)
}
