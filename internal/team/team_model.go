package team

import (
	"time"
)

// Team is a group of users competing inside one competition. Members are
// stored separately in the team_members collection.
type Team struct {
	TeamID    string    `json:"team_id"`
	Name      string    `json:"name"`
	OwnerUID  string    `json:"owner_uid"`
	CompID    string    `json:"comp_id"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether uid is on the team.
func (t *Team) HasMember(uid string) bool {
	for _, m := range t.Members {
		if m == uid {
			return true
		}
	}
	return false
}

// Membership is the team_members document, keyed by team id. CompID is
// denormalized so exclusivity checks need a single query.
type Membership struct {
	TeamID  string   `json:"team_id"`
	CompID  string   `json:"comp_id"`
	Members []string `json:"members"`
}

// withOwner returns the members list with the owner present. Older records
// may miss the owner; the stored document is left alone.
func withOwner(owner string, members []string) []string {
	for _, m := range members {
		if m == owner {
			return members
		}
	}
	if owner == "" {
		return members
	}
	out := make([]string, 0, len(members)+1)
	out = append(out, owner)
	return append(out, members...)
}
