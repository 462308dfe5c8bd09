package interpret

import (
	"fmt"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const (
	momentumScoreCap = 30
	provisionalScore = 5
)

// discussionsInterpreter scores forum and community thread activity. It is
// a momentum source: its contribution is gated by the confirming source
// and by the entity's lifecycle stage.
type discussionsInterpreter struct{}

func (discussionsInterpreter) Source() string { return domain.SourceDiscussions }

func (discussionsInterpreter) Interpret(in Inputs, ctx Context) Result {
	res := newResult()

	if in.DiscussionPosts == nil || *in.DiscussionPosts <= 0 {
		res.Reason = "No discussion activity"

		return res
	}

	posts := *in.DiscussionPosts

	if in.DiscussionVelocity == nil || *in.DiscussionVelocity <= 0 {
		res.Reason = fmt.Sprintf("%d posts with no week-over-week growth", int(posts))
		res.RiskFlags = append(res.RiskFlags, "Discussion volume without growth reads as noise")

		return res
	}

	if ctx.ConfirmingDeclining {
		res.Reason = fmt.Sprintf("%d posts while store reviews decline", int(posts))
		res.RiskFlags = append(res.RiskFlags, "Declining store reviews suppress discussion momentum")

		return res
	}

	if !ctx.ConfirmingValid {
		if ctx.EarlyLifecycle {
			res.Valid = true
			res.Score = provisionalScore
			res.Reason = fmt.Sprintf("Provisional early interest: %d posts", int(posts))
			res.RiskFlags = append(res.RiskFlags, "Unconfirmed social interest in early lifecycle")

			return res
		}

		res.Score = penaltyScore(posts)
		res.Reason = fmt.Sprintf("%d posts without store confirmation", int(posts))
		res.RiskFlags = append(res.RiskFlags, "Unconfirmed social volume without store traction")

		return res
	}

	if maturePenalty(ctx) {
		res.Score = penaltyScore(posts)
		res.Reason = fmt.Sprintf("%d posts on a %s title", int(posts), ctx.LifecycleStage)
		res.RiskFlags = append(res.RiskFlags, "Social volume on a mature title treated as hype risk")

		return res
	}

	velocity := *in.DiscussionVelocity

	score := clampScore(posts*1.5, 15) + clampScore(velocity*0.5, 5)

	if in.DiscussionComments != nil {
		score += clampScore(*in.DiscussionComments/50, 3)
	}

	if in.DiscussionCommunities != nil && *in.DiscussionCommunities > 1 {
		score += clampScore(*in.DiscussionCommunities*0.5, 2)
	}

	res.Score = clampScore(float64(int(score)), momentumScoreCap)
	res.Strength = momentumStrength(res.Score)
	res.Valid = true
	res.Reason = fmt.Sprintf("%d posts across %d communities, velocity +%d",
		int(posts), fmtCount(in.DiscussionCommunities), int(velocity))

	return res
}
