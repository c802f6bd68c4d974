package competition

import "time"

type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusRegistration Status = "REGISTRATION"
	StatusActive       Status = "ACTIVE"
	StatusEnded        Status = "ENDED"
	StatusArchived     Status = "ARCHIVED"
)

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusRegistration, StatusActive, StatusEnded, StatusArchived:
		return true
	}
	return false
}

// Competition is a time-boxed contest. Dates are YYYY-MM-DD in Timezone.
type Competition struct {
	CompID               string    `json:"comp_id"`
	Name                 string    `json:"name"`
	Timezone             string    `json:"tz"`
	Status               Status    `json:"status"`
	RegistrationOpenDate string    `json:"registration_open_date"`
	StartDate            string    `json:"start_date"`
	EndDate              string    `json:"end_date"`
	MaxTeams             int       `json:"max_teams"`
	MaxMembersPerTeam    int       `json:"max_members_per_team"`
	CreatedBy            string    `json:"created_by"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
