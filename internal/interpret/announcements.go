package interpret

import (
	"fmt"

	"github.com/lueurxax/trend-radar/internal/core/domain"
)

const catalystScoreCap = 20

// announcementsInterpreter scores developer announcements. Announcements
// are a catalyst: they explain why attention moved but never confirm that
// it did, so no confirmation gate applies.
type announcementsInterpreter struct{}

func (announcementsInterpreter) Source() string { return domain.SourceAnnouncements }

func (announcementsInterpreter) Interpret(in Inputs, _ Context) Result {
	res := newResult()

	if in.AnnouncementPosts == nil || *in.AnnouncementPosts <= 0 {
		res.Reason = "No developer announcements"

		return res
	}

	posts := int(*in.AnnouncementPosts)

	if posts >= 2 {
		res.Score = 20
		res.Strength = StrengthStrong
		res.Reason = fmt.Sprintf("%d announcements in 7 days", posts)
	} else {
		res.Score = 10
		res.Strength = StrengthMedium
		res.Reason = "One announcement in 7 days"
	}

	if in.AnnouncementVelocity != nil && *in.AnnouncementVelocity > 0 {
		bonus := float64(int(*in.AnnouncementVelocity * 2))
		res.Score = clampScore(res.Score+clampScore(bonus, 5), catalystScoreCap)
	}

	res.Valid = true

	return res
}
