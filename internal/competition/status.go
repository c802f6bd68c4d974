package competition

import (
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
)

// DeriveStatus computes the lifecycle state implied by the competition's dates
// at now. ENDED and ARCHIVED never change. A missing or malformed date leaves
// the current status untouched.
func DeriveStatus(c Competition, now time.Time) Status {
	if c.Status == StatusEnded || c.Status == StatusArchived {
		return c.Status
	}

	regOpen, err := timewindow.ParseDate(c.RegistrationOpenDate)
	if err != nil {
		return c.Status
	}
	start, err := timewindow.ParseDate(c.StartDate)
	if err != nil {
		return c.Status
	}
	end, err := timewindow.ParseDate(c.EndDate)
	if err != nil {
		return c.Status
	}

	today := timewindow.DateIn(now, c.Timezone)
	switch {
	case !today.Before(end):
		return StatusEnded
	case !today.Before(start):
		return StatusActive
	case !today.Before(regOpen):
		return StatusRegistration
	default:
		return StatusDraft
	}
}
