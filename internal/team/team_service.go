package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/google/uuid"
)

// CompetitionReader yields a competition with its status brought up to date.
type CompetitionReader interface {
	Get(ctx context.Context, id string) (*competition.Competition, error)
}

// Service enforces membership rules: teams are created and joined only while
// a competition is in REGISTRATION or ACTIVE, and a user is on at most one
// team per competition.
type Service struct {
	repo        TeamRepository
	comps       CompetitionReader
	clock       timewindow.Clock
	invalidator Invalidator
}

// Invalidator drops cached leaderboards after membership or name changes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

func NewService(repo TeamRepository, comps CompetitionReader, clock timewindow.Clock) *Service {
	return &Service{repo: repo, comps: comps, clock: clock}
}

// WithInvalidator registers the cache to drop after team writes.
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	s.invalidator = inv
	return s
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// Repository exposes the team store to the ingestion and leaderboard engines.
func (s *Service) Repository() TeamRepository { return s.repo }

func (s *Service) Create(ctx context.Context, uid, compID, name string) (*Team, error) {
	comp, err := s.openCompetition(ctx, compID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoTeam(ctx, compID, uid); err != nil {
		return nil, err
	}
	if comp.MaxTeams > 0 {
		n, err := s.repo.CountTeams(ctx, compID)
		if err != nil {
			return nil, fmt.Errorf("count teams: %w", err)
		}
		if n >= comp.MaxTeams {
			return nil, apperr.Conflict("max_teams", "competition %s already has %d teams", compID, comp.MaxTeams)
		}
	}

	t := &Team{
		TeamID:    uuid.NewString(),
		Name:      strings.TrimSpace(name),
		OwnerUID:  uid,
		CompID:    compID,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.CreateTeam(ctx, t); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	slog.Info("Team created", "team_id", t.TeamID, "comp_id", compID, "owner", uid)
	s.invalidate(ctx)
	return t, nil
}

func (s *Service) Join(ctx context.Context, uid, teamID string) (*Team, error) {
	t, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	comp, err := s.openCompetition(ctx, t.CompID)
	if err != nil {
		return nil, err
	}
	if t.HasMember(uid) {
		return nil, apperr.Conflict("already_member", "already on team %s", teamID)
	}
	if err := s.ensureNoTeam(ctx, t.CompID, uid); err != nil {
		return nil, err
	}

	err = s.repo.AddTeamMember(ctx, t, uid, comp.MaxMembersPerTeam)
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return nil, apperr.Conflict("already_member", "already on team %s", teamID)
	case errors.Is(err, ErrTeamFull):
		return nil, apperr.Conflict("max_members", "team %s already has %d members", teamID, comp.MaxMembersPerTeam)
	case err != nil:
		return nil, fmt.Errorf("join team: %w", err)
	}
	slog.Info("Team joined", "team_id", teamID, "uid", uid)
	s.invalidate(ctx)
	return s.Get(ctx, teamID)
}

// Leave removes uid from the team. Owners can never leave.
func (s *Service) Leave(ctx context.Context, uid, teamID string) error {
	t, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if t.OwnerUID == uid {
		return apperr.Forbidden("owner_cannot_leave", "the owner cannot leave team %s", teamID)
	}
	comp, err := s.comps.Get(ctx, t.CompID)
	if err != nil {
		return err
	}
	if comp.Status == competition.StatusEnded || comp.Status == competition.StatusArchived {
		return apperr.Conflict("competition_closed", "competition %s is %s", comp.CompID, comp.Status)
	}

	err = s.repo.RemoveTeamMember(ctx, t, uid)
	if errors.Is(err, ErrNotMember) {
		return apperr.NotFound("not_member", "not on team %s", teamID)
	}
	if err != nil {
		return fmt.Errorf("leave team: %w", err)
	}
	slog.Info("Team left", "team_id", teamID, "uid", uid)
	s.invalidate(ctx)
	return nil
}

// Rename is allowed for the owner and for admins.
func (s *Service) Rename(ctx context.Context, p identity.Principal, teamID, name string) (*Team, error) {
	t, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if t.OwnerUID != p.UserID && !p.IsAdmin() {
		return nil, apperr.Forbidden("not_owner", "only the owner or an admin can rename team %s", teamID)
	}
	t.Name = strings.TrimSpace(name)
	if err := s.repo.RenameTeam(ctx, teamID, t.Name); err != nil {
		return nil, fmt.Errorf("rename team: %w", err)
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *Service) Get(ctx context.Context, teamID string) (*Team, error) {
	t, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound("team_not_found", "team %q not found", teamID)
	}
	return t, nil
}

func (s *Service) ListByCompetition(ctx context.Context, compID string) ([]Team, error) {
	if _, err := s.comps.Get(ctx, compID); err != nil {
		return nil, err
	}
	teams, err := s.repo.GetTeamsByCompetition(ctx, compID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *Service) MyTeams(ctx context.Context, uid string) ([]Team, error) {
	teams, err := s.repo.GetTeamsByUserID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *Service) openCompetition(ctx context.Context, compID string) (*competition.Competition, error) {
	comp, err := s.comps.Get(ctx, compID)
	if err != nil {
		return nil, err
	}
	if comp.Status != competition.StatusRegistration && comp.Status != competition.StatusActive {
		return nil, apperr.Conflict("competition_closed", "competition %s is %s, teams can only change during REGISTRATION or ACTIVE", compID, comp.Status)
	}
	return comp, nil
}

func (s *Service) ensureNoTeam(ctx context.Context, compID, uid string) error {
	existing, err := s.repo.FindUserTeam(ctx, compID, uid)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if existing != nil {
		return apperr.Conflict("already_on_team", "already on team %s in competition %s", existing.TeamID, compID)
	}
	return nil
}
