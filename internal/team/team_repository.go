package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/DhavalSuthar-24/stepsquad/internal/store"
)

var (
	ErrAlreadyMember = errors.New("user is already on this team")
	ErrTeamFull      = errors.New("team is full")
	ErrNotMember     = errors.New("user is not on this team")
)

// TeamRepository defines the interface for team data operations
type TeamRepository interface {
	// Team operations
	CreateTeam(ctx context.Context, team *Team) error
	GetTeamByID(ctx context.Context, id string) (*Team, error)
	GetTeamsByCompetition(ctx context.Context, compID string) ([]Team, error)
	GetAllTeams(ctx context.Context) ([]Team, error)
	GetTeamsByUserID(ctx context.Context, uid string) ([]Team, error)
	// FindUserTeam returns the team uid is on in compID, or nil.
	FindUserTeam(ctx context.Context, compID, uid string) (*Team, error)
	CountTeams(ctx context.Context, compID string) (int, error)
	RenameTeam(ctx context.Context, id, name string) error

	// TeamMember operations
	AddTeamMember(ctx context.Context, team *Team, uid string, maxMembers int) error
	RemoveTeamMember(ctx context.Context, team *Team, uid string) error
}

type teamRepository struct {
	store store.Store
}

// NewTeamRepository creates a new instance of TeamRepository
func NewTeamRepository(s store.Store) TeamRepository {
	return &teamRepository{store: s}
}

// --- Team Operations ---

// CreateTeam writes the team and its membership document with the owner as
// the first member.
func (r *teamRepository) CreateTeam(ctx context.Context, team *Team) error {
	record := *team
	record.Members = nil
	created, err := r.store.Create(ctx, store.Teams, team.TeamID, record)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("team %s already exists", team.TeamID)
	}
	team.Members = []string{team.OwnerUID}
	return r.store.Set(ctx, store.TeamMembers, team.TeamID, Membership{
		TeamID:  team.TeamID,
		CompID:  team.CompID,
		Members: team.Members,
	})
}

func (r *teamRepository) GetTeamByID(ctx context.Context, id string) (*Team, error) {
	var team Team
	ok, err := r.store.Get(ctx, store.Teams, id, &team)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var m Membership
	if _, err := r.store.Get(ctx, store.TeamMembers, id, &m); err != nil {
		return nil, err
	}
	team.Members = withOwner(team.OwnerUID, m.Members)
	return &team, nil
}

func (r *teamRepository) GetTeamsByCompetition(ctx context.Context, compID string) ([]Team, error) {
	return r.load(ctx, []store.Filter{store.Eq("comp_id", compID)}, []store.Filter{store.Eq("comp_id", compID)})
}

func (r *teamRepository) GetAllTeams(ctx context.Context) ([]Team, error) {
	return r.load(ctx, nil, nil)
}

// GetTeamsByUserID finds teams listing uid as a member plus teams uid owns,
// which covers records where the owner is missing from members.
func (r *teamRepository) GetTeamsByUserID(ctx context.Context, uid string) ([]Team, error) {
	return r.findForUser(ctx, uid)
}

func (r *teamRepository) FindUserTeam(ctx context.Context, compID, uid string) (*Team, error) {
	teams, err := r.findForUser(ctx, uid, store.Eq("comp_id", compID))
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, nil
	}
	return &teams[0], nil
}

func (r *teamRepository) CountTeams(ctx context.Context, compID string) (int, error) {
	docs, err := r.store.Query(ctx, store.Teams, store.Eq("comp_id", compID))
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *teamRepository) RenameTeam(ctx context.Context, id, name string) error {
	return r.store.Merge(ctx, store.Teams, id, map[string]interface{}{"name": name})
}

// --- TeamMember Operations ---

// AddTeamMember appends uid under the per-key lock of the membership
// document, so capacity and duplicate checks see concurrent joins.
func (r *teamRepository) AddTeamMember(ctx context.Context, team *Team, uid string, maxMembers int) error {
	return r.store.Update(ctx, store.TeamMembers, team.TeamID, func(current []byte, exists bool) (interface{}, error) {
		m, err := decodeMembership(team, current, exists)
		if err != nil {
			return nil, err
		}
		members := withOwner(team.OwnerUID, m.Members)
		for _, existing := range members {
			if existing == uid {
				return nil, ErrAlreadyMember
			}
		}
		if maxMembers > 0 && len(members) >= maxMembers {
			return nil, ErrTeamFull
		}
		m.Members = append(members, uid)
		return m, nil
	})
}

func (r *teamRepository) RemoveTeamMember(ctx context.Context, team *Team, uid string) error {
	return r.store.Update(ctx, store.TeamMembers, team.TeamID, func(current []byte, exists bool) (interface{}, error) {
		m, err := decodeMembership(team, current, exists)
		if err != nil {
			return nil, err
		}
		kept := m.Members[:0]
		found := false
		for _, existing := range m.Members {
			if existing == uid {
				found = true
				continue
			}
			kept = append(kept, existing)
		}
		if !found {
			return nil, ErrNotMember
		}
		m.Members = kept
		return m, nil
	})
}

func decodeMembership(team *Team, current []byte, exists bool) (Membership, error) {
	m := Membership{TeamID: team.TeamID, CompID: team.CompID}
	if exists {
		if err := json.Unmarshal(current, &m); err != nil {
			return m, fmt.Errorf("decode members of %s: %w", team.TeamID, err)
		}
	}
	if m.CompID == "" {
		m.CompID = team.CompID
	}
	return m, nil
}

// --- helpers ---

// load joins team documents with their membership documents.
func (r *teamRepository) load(ctx context.Context, teamFilters, memberFilters []store.Filter) ([]Team, error) {
	teamDocs, err := r.store.Query(ctx, store.Teams, teamFilters...)
	if err != nil {
		return nil, err
	}
	memberDocs, err := r.store.Query(ctx, store.TeamMembers, memberFilters...)
	if err != nil {
		return nil, err
	}
	members := make(map[string][]string, len(memberDocs))
	for _, d := range memberDocs {
		var m Membership
		if err := d.Decode(&m); err != nil {
			return nil, err
		}
		members[d.Key] = m.Members
	}

	teams := make([]Team, 0, len(teamDocs))
	for _, d := range teamDocs {
		var t Team
		if err := d.Decode(&t); err != nil {
			return nil, err
		}
		t.Members = withOwner(t.OwnerUID, members[d.Key])
		teams = append(teams, t)
	}
	sortTeams(teams)
	return teams, nil
}

func (r *teamRepository) findForUser(ctx context.Context, uid string, extra ...store.Filter) ([]Team, error) {
	ids := map[string]bool{}

	memberDocs, err := r.store.Query(ctx, store.TeamMembers, append([]store.Filter{store.Contains("members", uid)}, extra...)...)
	if err != nil {
		return nil, err
	}
	for _, d := range memberDocs {
		ids[d.Key] = true
	}
	ownedDocs, err := r.store.Query(ctx, store.Teams, append([]store.Filter{store.Eq("owner_uid", uid)}, extra...)...)
	if err != nil {
		return nil, err
	}
	for _, d := range ownedDocs {
		ids[d.Key] = true
	}

	teams := make([]Team, 0, len(ids))
	for id := range ids {
		t, err := r.GetTeamByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			teams = append(teams, *t)
		}
	}
	sortTeams(teams)
	return teams, nil
}

func sortTeams(teams []Team) {
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].TeamID < teams[j].TeamID
	})
}
