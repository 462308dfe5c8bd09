package analyze

import (
	"fmt"
	"sort"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// Heuristic scales used when a distribution has no observations yet.
const (
	heuristicDelta7dScale = 500
	heuristicDelta1dScale = 100
	heuristicRatioFloor   = 0.7
	heuristicRatioRange   = 0.25
)

// Distributions holds the recent cross-entity value distributions used to
// turn raw deltas into percentile labels. Built once per run, read-only
// afterwards, shared across entities.
type Distributions struct {
	reviewsDelta7d []float64
	reviewsDelta1d []float64
	positiveRatio  []float64
}

// BuildDistributions collects the observed values from recent aggregate
// rows. Nil readings are skipped, not counted as zero.
func BuildDistributions(aggs []domain.DailyAggregate) *Distributions {
	d := &Distributions{}

	for i := range aggs {
		if v := aggs[i].ReviewsDelta7d; v != nil {
			d.reviewsDelta7d = append(d.reviewsDelta7d, float64(*v))
		}

		if v := aggs[i].ReviewsDelta1d; v != nil {
			d.reviewsDelta1d = append(d.reviewsDelta1d, float64(*v))
		}

		if v := aggs[i].PositiveRatio; v != nil {
			d.positiveRatio = append(d.positiveRatio, *v)
		}
	}

	sort.Float64s(d.reviewsDelta7d)
	sort.Float64s(d.reviewsDelta1d)
	sort.Float64s(d.positiveRatio)

	return d
}

// PercentileDelta7d positions a 7-day review delta within the observed
// distribution, in [0,1].
func (d *Distributions) PercentileDelta7d(v float64) float64 {
	if len(d.reviewsDelta7d) == 0 {
		return clamp01(v / heuristicDelta7dScale)
	}

	return percentile(d.reviewsDelta7d, v)
}

// PercentileDelta1d positions a 1-day review delta within the observed
// distribution, in [0,1].
func (d *Distributions) PercentileDelta1d(v float64) float64 {
	if len(d.reviewsDelta1d) == 0 {
		return clamp01(v / heuristicDelta1dScale)
	}

	return percentile(d.reviewsDelta1d, v)
}

// PercentileRatio positions a positive ratio within the observed
// distribution, in [0,1].
func (d *Distributions) PercentileRatio(v float64) float64 {
	if len(d.positiveRatio) == 0 {
		return clamp01((v - heuristicRatioFloor) / heuristicRatioRange)
	}

	return percentile(d.positiveRatio, v)
}

// Delta7dLabel renders the explanation line for a 7-day review delta.
func (d *Distributions) Delta7dLabel(delta int) string {
	pct := d.PercentileDelta7d(float64(delta))

	top := int((1 - pct) * 100)
	if top < 1 {
		top = 1
	}

	return fmt.Sprintf("Reviews +%d in 7d (top %d%%)", delta, top)
}

// percentile returns the share of sorted values at or below v.
func percentile(sorted []float64, v float64) float64 {
	idx := sort.SearchFloat64s(sorted, v)

	for idx < len(sorted) && sorted[idx] == v {
		idx++
	}

	return float64(idx) / float64(len(sorted))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
