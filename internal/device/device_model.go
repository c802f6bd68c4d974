package device

import (
	"time"
)

// Token is the OAuth credential a provider needs to read a user's data.
type Token struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Link is a wearable connected to a user, keyed by (uid, provider).
type Link struct {
	UserID       string     `json:"uid"`
	Provider     string     `json:"provider"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LinkedAt     time.Time  `json:"linked_at"`
	LastSync     *time.Time `json:"last_sync,omitempty"`
	SyncEnabled  bool       `json:"sync_enabled"`
}

func linkKey(uid, provider string) string { return uid + "_" + provider }

func (l *Link) Token() Token {
	return Token{AccessToken: l.AccessToken, RefreshToken: l.RefreshToken, ExpiresAt: l.ExpiresAt}
}

// LinkView is what the API shows of a link; tokens never leave the server.
type LinkView struct {
	Provider    string     `json:"provider"`
	LinkedAt    time.Time  `json:"linked_at"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	SyncEnabled bool       `json:"sync_enabled"`
	HasToken    bool       `json:"has_token"`
}

func (l *Link) View() LinkView {
	return LinkView{
		Provider:    l.Provider,
		LinkedAt:    l.LinkedAt,
		LastSync:    l.LastSync,
		SyncEnabled: l.SyncEnabled,
		HasToken:    l.AccessToken != "",
	}
}

// Submission outcome per competition.
const (
	OutcomeSubmitted = "submitted"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

type CompetitionOutcome struct {
	CompID string `json:"comp_id"`
	Status string `json:"status"`
	Steps  int    `json:"steps,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SyncResult reports one device sync for one date.
type SyncResult struct {
	UserID         string               `json:"uid"`
	Provider       string               `json:"provider"`
	Date           string               `json:"date"`
	Steps          int                  `json:"steps"`
	Competitions   []CompetitionOutcome `json:"competitions"`
	SubmittedCount int                  `json:"submitted_count"`
	Message        string               `json:"message,omitempty"`
}

// RunSummary aggregates a sync pass over every enabled link.
type RunSummary struct {
	SyncDate     string       `json:"sync_date"`
	TotalDevices int          `json:"total_devices"`
	Successful   int          `json:"successful"`
	Errors       int          `json:"errors"`
	Results      []SyncResult `json:"results"`
}
