package analyze

import (
	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const (
	softLaunchAgeDays  = 90
	softLaunchMaxTotal = 100
	breakoutMaxTotal   = 1000
	declineMinAgeDays  = 365

	// growthRateFloor separates real growth from drift: a positive weekly
	// delta below half a percent of the cumulative volume is maturity
	// noise, not growth.
	growthRateFloor = 0.005
)

// DeriveLifecycle classifies where the entity sits in its release
// lifecycle. The stage depends only on age and cumulative volume facts,
// never on the current signal mix, so two runs over the same day agree.
func DeriveLifecycle(ageDays int, agg *domain.DailyAggregate) string {
	if ageDays < 0 {
		return domain.LifecyclePreRelease
	}

	total := 0
	if agg.ReviewsTotal != nil {
		total = *agg.ReviewsTotal
	}

	d7 := 0
	if agg.ReviewsDelta7d != nil {
		d7 = *agg.ReviewsDelta7d
	}

	switch {
	case ageDays <= softLaunchAgeDays || total < softLaunchMaxTotal:
		return domain.LifecycleSoftLaunch
	case ageDays > rediscoveredAgeDays && d7 > rediscoveredMinDelta7d && total < rediscoveredMaxTotal:
		return domain.LifecycleRelaunchCandidate
	case d7 > 0 && total < breakoutMaxTotal:
		return domain.LifecycleBreakout
	case d7 > 0 && float64(d7) >= growthRateFloor*float64(total):
		return domain.LifecycleGrowth
	case d7 < 0 && ageDays > declineMinAgeDays:
		return domain.LifecycleDecline
	default:
		return domain.LifecycleMaturity
	}
}

// earlyLifecycle reports the stages where unconfirmed social interest is
// still acceptable as a provisional signal.
func earlyLifecycle(stage string) bool {
	return stage == domain.LifecyclePreRelease || stage == domain.LifecycleSoftLaunch
}
