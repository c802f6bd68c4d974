// Package leaderboard ranks ledger totals for users and teams. It only reads;
// results may be served from a short-lived Redis cache.
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
)

type IndividualRow struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Steps  int    `json:"steps"`
	Rank   int    `json:"rank"`
}

type TeamRow struct {
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	Steps       int    `json:"steps"`
	MemberCount int    `json:"member_count"`
	Rank        int    `json:"rank"`
}

// Query narrows a leaderboard. Every field is optional.
type Query struct {
	CompID string `form:"comp_id"`
	TeamID string `form:"team_id"`
	steps.DateFilter
}

type CompetitionLookup interface {
	GetCompetitionByID(ctx context.Context, id string) (*competition.Competition, error)
}

type TeamLookup interface {
	GetTeamByID(ctx context.Context, id string) (*team.Team, error)
	GetTeamsByCompetition(ctx context.Context, compID string) ([]team.Team, error)
	GetAllTeams(ctx context.Context) ([]team.Team, error)
}

type EmailLookup interface {
	Emails(ctx context.Context, uids []string) (map[string]string, error)
}

type Engine struct {
	comps  CompetitionLookup
	teams  TeamLookup
	ledger steps.StepRepository
	users  EmailLookup
	cache  *Cache
}

func NewEngine(comps CompetitionLookup, teams TeamLookup, ledger steps.StepRepository, users EmailLookup, cache *Cache) *Engine {
	return &Engine{comps: comps, teams: teams, ledger: ledger, users: users, cache: cache}
}

// Individual ranks users. The eligible set is every member of the
// competition's teams, narrowed to one team when TeamID is set; with neither
// it is every user with any ledger history. Eligible users without steps in
// the window get a zero row.
func (e *Engine) Individual(ctx context.Context, q Query) ([]IndividualRow, error) {
	if err := validate(q.DateFilter); err != nil {
		return nil, err
	}
	var rows []IndividualRow
	if e.cache.Get(ctx, "individual", q, &rows) {
		return rows, nil
	}

	eligible, err := e.eligibleUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	records, err := e.ledger.ListRecords(ctx, q.DateFilter, "")
	if err != nil {
		return nil, fmt.Errorf("read step ledger: %w", err)
	}
	totals := sumByUser(records)

	if eligible == nil {
		eligible = map[string]bool{}
		all := records
		if q.DateFilter != (steps.DateFilter{}) {
			if all, err = e.ledger.ListRecords(ctx, steps.DateFilter{}, ""); err != nil {
				return nil, fmt.Errorf("read step ledger: %w", err)
			}
		}
		for _, r := range all {
			eligible[r.UserID] = true
		}
	}

	entries := make([]entry, 0, len(eligible))
	uids := make([]string, 0, len(eligible))
	for uid := range eligible {
		entries = append(entries, entry{id: uid, steps: totals[uid]})
		uids = append(uids, uid)
	}
	rankEntries(entries)

	emails, err := e.users.Emails(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("resolve emails: %w", err)
	}
	rows = make([]IndividualRow, len(entries))
	for i, en := range entries {
		rows[i] = IndividualRow{UserID: en.id, Email: emails[en.id], Steps: en.steps, Rank: en.rank}
	}

	e.cache.Set(ctx, "individual", q, rows)
	return rows, nil
}

// Team ranks teams, optionally only those of one competition. Teams without
// members are skipped.
func (e *Engine) Team(ctx context.Context, q Query) ([]TeamRow, error) {
	if err := validate(q.DateFilter); err != nil {
		return nil, err
	}
	q.TeamID = ""
	var rows []TeamRow
	if e.cache.Get(ctx, "team", q, &rows) {
		return rows, nil
	}

	var teams []team.Team
	var err error
	if q.CompID != "" {
		if err := e.requireCompetition(ctx, q.CompID); err != nil {
			return nil, err
		}
		teams, err = e.teams.GetTeamsByCompetition(ctx, q.CompID)
	} else {
		teams, err = e.teams.GetAllTeams(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	records, err := e.ledger.ListRecords(ctx, q.DateFilter, "")
	if err != nil {
		return nil, fmt.Errorf("read step ledger: %w", err)
	}
	totals := sumByUser(records)

	byID := make(map[string]team.Team, len(teams))
	entries := make([]entry, 0, len(teams))
	for _, t := range teams {
		if len(t.Members) == 0 {
			continue
		}
		sum := 0
		for _, m := range t.Members {
			sum += totals[m]
		}
		byID[t.TeamID] = t
		entries = append(entries, entry{id: t.TeamID, steps: sum})
	}
	rankEntries(entries)

	rows = make([]TeamRow, len(entries))
	for i, en := range entries {
		t := byID[en.id]
		rows[i] = TeamRow{TeamID: t.TeamID, Name: t.Name, Steps: en.steps, MemberCount: len(t.Members), Rank: en.rank}
	}

	e.cache.Set(ctx, "team", q, rows)
	return rows, nil
}

// Invalidate drops cached leaderboards after a ledger write.
func (e *Engine) Invalidate(ctx context.Context) {
	e.cache.Invalidate(ctx)
}

// eligibleUsers returns nil when no competition or team narrows the set.
func (e *Engine) eligibleUsers(ctx context.Context, q Query) (map[string]bool, error) {
	if q.CompID == "" && q.TeamID == "" {
		return nil, nil
	}

	var set map[string]bool
	if q.CompID != "" {
		if err := e.requireCompetition(ctx, q.CompID); err != nil {
			return nil, err
		}
		teams, err := e.teams.GetTeamsByCompetition(ctx, q.CompID)
		if err != nil {
			return nil, fmt.Errorf("load teams: %w", err)
		}
		set = map[string]bool{}
		for _, t := range teams {
			for _, m := range t.Members {
				set[m] = true
			}
		}
	}

	if q.TeamID != "" {
		t, err := e.teams.GetTeamByID(ctx, q.TeamID)
		if err != nil {
			return nil, fmt.Errorf("load team: %w", err)
		}
		if t == nil {
			return nil, apperr.NotFound("team_not_found", "team %q not found", q.TeamID)
		}
		narrowed := map[string]bool{}
		for _, m := range t.Members {
			if set == nil || set[m] {
				narrowed[m] = true
			}
		}
		set = narrowed
	}
	return set, nil
}

func (e *Engine) requireCompetition(ctx context.Context, id string) error {
	c, err := e.comps.GetCompetitionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load competition: %w", err)
	}
	if c == nil {
		return apperr.NotFound("competition_not_found", "competition %q not found", id)
	}
	return nil
}

func validate(f steps.DateFilter) error {
	for _, d := range []string{f.Date, f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := timewindow.ParseDate(d); err != nil {
			return apperr.Validation("invalid_date", "%v", err)
		}
	}
	return nil
}

func sumByUser(records []steps.Record) map[string]int {
	totals := make(map[string]int)
	for _, r := range records {
		totals[r.UserID] += r.Steps
	}
	return totals
}

type entry struct {
	id    string
	steps int
	rank  int
}

// rankEntries sorts by steps descending, id ascending, and gives tied entries
// the same rank: one plus the number of strictly higher entries.
func rankEntries(es []entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].steps != es[j].steps {
			return es[i].steps > es[j].steps
		}
		return es[i].id < es[j].id
	})
	for i := range es {
		if i > 0 && es[i].steps == es[i-1].steps {
			es[i].rank = es[i-1].rank
		} else {
			es[i].rank = i + 1
		}
	}
}
