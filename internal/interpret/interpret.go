// Package interpret turns raw per-family readings into validated,
// scored interpretation results. Interpreters are pure functions of their
// inputs and a per-run context; nothing here touches storage.
package interpret

import (
	"fmt"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

// Signal strengths.
const (
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

// Context carries the per-run facts interpreters may consult. It is built
// once per entity per run and passed by value.
type Context struct {
	LifecycleStage string
	// EarlyLifecycle is true for pre-release and soft-launch entities,
	// where provisional social signals are still acceptable.
	EarlyLifecycle bool
	// ConfirmingValid is true when the confirming source validated for
	// this entity in this run.
	ConfirmingValid bool
	// ConfirmingDeclining is true when the confirming source shows a
	// negative 7-day delta; it suppresses every momentum source.
	ConfirmingDeclining bool
	// DiscussionsValid lets the video interpreter accept discussion
	// confirmation in place of the confirming source.
	DiscussionsValid bool
}

// Result is the outcome of interpreting one source family. A negative
// score marks an anti-hype penalty: it never adds momentum but reduces
// confidence downstream.
type Result struct {
	Valid     bool
	Score     float64
	Strength  string
	Reason    string
	RiskFlags []string
}

// Inputs carries the readings for one entity and day across all source
// families. Nil means the reading is unknown, never zero.
type Inputs struct {
	ReviewsDelta7d *int
	ReviewsDelta1d *int
	PositiveRatio  *float64
	ReviewsTotal   *int

	DiscussionPosts       *float64
	DiscussionVelocity    *float64
	DiscussionComments    *float64
	DiscussionCommunities *float64

	Videos         *float64
	VideoVelocity  *float64
	VideoViews     *float64
	ChannelQuality *float64

	AnnouncementPosts    *float64
	AnnouncementVelocity *float64
}

// Interpreter scores one source family.
type Interpreter interface {
	Source() string
	Interpret(in Inputs, ctx Context) Result
}

// ForSource returns the interpreter for a source family.
func ForSource(source string) (Interpreter, bool) {
	switch source {
	case domain.SourceReviews:
		return reviewsInterpreter{}, true
	case domain.SourceDiscussions:
		return discussionsInterpreter{}, true
	case domain.SourceVideos:
		return videosInterpreter{}, true
	case domain.SourceAnnouncements:
		return announcementsInterpreter{}, true
	default:
		return nil, false
	}
}

func newResult() Result {
	return Result{Strength: StrengthWeak, RiskFlags: []string{}}
}

func fmtCount(v *float64) int {
	if v == nil {
		return 0
	}

	return int(*v)
}

// penaltyScore computes the anti-hype penalty for unconfirmed social
// volume: negative, proportional to posts, capped.
func penaltyScore(posts float64) float64 {
	p := posts
	if p > 10 {
		p = 10
	}

	return -p
}

func momentumStrength(score float64) string {
	switch {
	case score >= 20:
		return StrengthStrong
	case score >= 10:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

// maturePenalty reports whether social volume for this lifecycle stage is
// treated as hype risk even when confirmation is present.
func maturePenalty(ctx Context) bool {
	return ctx.LifecycleStage == domain.LifecycleMaturity || ctx.LifecycleStage == domain.LifecycleDecline
}

func clampScore(score, cap float64) float64 {
	if score > cap {
		return cap
	}

	return score
}

func positivePct(ratio float64) string {
	return fmt.Sprintf("%.0f%% positive", ratio*100)
}
