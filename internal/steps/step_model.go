package steps

import (
	"strconv"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/store"
)

// MaxDailySteps bounds a single user-day report.
const MaxDailySteps = 100000

// Mode selects how an accepted submission lands in the ledger.
type Mode string

const (
	// ModeNormal keeps the running maximum and honors idempotency keys.
	ModeNormal Mode = "NORMAL"
	// ModeSimulatedOverwrite is the virtual device path: a fresh key every
	// time and the stored value is replaced outright.
	ModeSimulatedOverwrite Mode = "SIMULATED_OVERWRITE"
)

// Record is the authoritative count for one user-day. It does not belong to
// any competition.
type Record struct {
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Steps     int       `json:"steps"`
	Provider  string    `json:"provider,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func recordKey(uid, date string) string { return uid + "_" + date }

// Marker records the first use of an idempotency key by a user.
type Marker struct {
	Key       string    `json:"key"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func markerKey(key, uid string) string { return key + "_" + uid }

func markerFallbackKey(key, uid string) string {
	return strconv.Itoa(len(key)) + ":" + key + "_" + uid
}

// DateFilter selects ledger dates. Date wins over the range; an empty filter
// selects everything.
type DateFilter struct {
	Date      string `form:"date"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func (f DateFilter) storeFilters() []store.Filter {
	if f.Date != "" {
		return []store.Filter{store.Eq("date", f.Date)}
	}
	var out []store.Filter
	if f.StartDate != "" {
		out = append(out, store.Gte("date", f.StartDate))
	}
	if f.EndDate != "" {
		out = append(out, store.Lte("date", f.EndDate))
	}
	return out
}

// Submission is one step report headed for a competition.
type Submission struct {
	UserID         string
	CompID         string
	Date           string
	Steps          int
	Provider       string
	Timezone       string
	SourceTS       string
	IdempotencyKey string
	Mode           Mode
}

// Receipt describes an accepted submission.
type Receipt struct {
	Accepted       bool   `json:"accepted"`
	UserID         string `json:"user_id"`
	CompID         string `json:"comp_id"`
	Date           string `json:"date"`
	Steps          int    `json:"steps"`
	StoredSteps    int    `json:"stored_steps"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Mode           Mode   `json:"mode"`
	Published      bool   `json:"published"`
}
