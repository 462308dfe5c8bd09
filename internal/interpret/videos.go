package interpret

import (
	"fmt"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const minVideos = 2

// videosInterpreter scores creator video coverage. Videos confirm against
// either the confirming source or validated discussions; a lone video is
// never a signal.
type videosInterpreter struct{}

func (videosInterpreter) Source() string { return domain.SourceVideos }

func (videosInterpreter) Interpret(in Inputs, ctx Context) Result {
	res := newResult()

	if in.Videos == nil || *in.Videos < minVideos {
		res.Reason = "Fewer than two recent videos"

		return res
	}

	videos := *in.Videos

	if in.VideoVelocity == nil || *in.VideoVelocity <= 0 {
		res.Reason = fmt.Sprintf("%d videos with no week-over-week growth", int(videos))
		res.RiskFlags = append(res.RiskFlags, "Video volume without growth reads as noise")

		return res
	}

	if ctx.ConfirmingDeclining {
		res.Reason = fmt.Sprintf("%d videos while store reviews decline", int(videos))
		res.RiskFlags = append(res.RiskFlags, "Declining store reviews suppress video momentum")

		return res
	}

	if !ctx.ConfirmingValid && !ctx.DiscussionsValid {
		if ctx.EarlyLifecycle {
			res.Valid = true
			res.Score = provisionalScore
			res.Reason = fmt.Sprintf("Provisional early coverage: %d videos", int(videos))
			res.RiskFlags = append(res.RiskFlags, "Unconfirmed video coverage in early lifecycle")

			return res
		}

		res.Score = penaltyScore(videos)
		res.Reason = fmt.Sprintf("%d videos without store or discussion confirmation", int(videos))
		res.RiskFlags = append(res.RiskFlags, "Unconfirmed video volume without supporting traction")

		return res
	}

	if maturePenalty(ctx) {
		res.Score = penaltyScore(videos)
		res.Reason = fmt.Sprintf("%d videos on a %s title", int(videos), ctx.LifecycleStage)
		res.RiskFlags = append(res.RiskFlags, "Video volume on a mature title treated as hype risk")

		return res
	}

	score := clampScore(videos*2, 15) + clampScore(*in.VideoVelocity*0.5, 5)

	if in.VideoViews != nil && *in.VideoViews > 1000 {
		score += clampScore(*in.VideoViews/10000*5, 5)
	}

	if in.ChannelQuality != nil && *in.ChannelQuality > 3 {
		score += clampScore(*in.ChannelQuality*0.5, 3)
	}

	res.Score = clampScore(float64(int(score)), momentumScoreCap)
	res.Strength = momentumStrength(res.Score)
	res.Valid = true
	res.Reason = fmt.Sprintf("%d videos, %d views in 7 days", int(videos), fmtCount(in.VideoViews))

	return res
}
