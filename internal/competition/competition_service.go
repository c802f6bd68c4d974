package competition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
)

// Invalidator drops cached reads that depend on competition data.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service owns competition lifecycle rules on top of the repository.
type Service struct {
	repo        CompetitionRepository
	clock       timewindow.Clock
	defaultTZ   string
	invalidator Invalidator
}

func NewService(repo CompetitionRepository, clock timewindow.Clock, defaultTZ string) *Service {
	return &Service{repo: repo, clock: clock, defaultTZ: defaultTZ}
}

// WithInvalidator registers the cache to drop after updates and archives.
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	s.invalidator = inv
	return s
}

// Create validates and stores a new competition. Without an explicit status
// it starts as DRAFT and is immediately advanced by its dates.
func (s *Service) Create(ctx context.Context, createdBy string, req CreateCompetitionRequest) (*Competition, error) {
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = s.defaultTZ
	}
	if err := validateTimezone(tz); err != nil {
		return nil, err
	}
	if err := validateDates(req.RegistrationOpenDate, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	c := &Competition{
		CompID:               strings.TrimSpace(req.CompID),
		Name:                 strings.TrimSpace(req.Name),
		Timezone:             tz,
		Status:               StatusDraft,
		RegistrationOpenDate: req.RegistrationOpenDate,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		MaxTeams:             req.MaxTeams,
		MaxMembersPerTeam:    req.MaxMembersPerTeam,
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.Status != nil {
		c.Status = *req.Status
	} else {
		c.Status = DeriveStatus(*c, s.clock.Now())
	}

	created, err := s.repo.CreateCompetition(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create competition: %w", err)
	}
	if !created {
		return nil, apperr.Conflict("competition_exists", "competition %q already exists", c.CompID)
	}
	slog.Info("Competition created", "comp_id", c.CompID, "status", c.Status, "by", createdBy)
	return c, nil
}

// Get loads a competition with its status brought up to date.
func (s *Service) Get(ctx context.Context, id string) (*Competition, error) {
	c, err := s.repo.GetCompetitionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load competition: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("competition_not_found", "competition %q not found", id)
	}
	s.refresh(ctx, c)
	return c, nil
}

// List returns all competitions, optionally only those whose up-to-date
// status equals status.
func (s *Service) List(ctx context.Context, status Status) ([]Competition, error) {
	all, err := s.repo.GetAllCompetitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	out := all[:0]
	for i := range all {
		s.refresh(ctx, &all[i])
		if status == "" || all[i].Status == status {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Update applies a partial change. Date ordering is checked on the merged
// view. An explicit status is stored as given; otherwise it is re-derived.
func (s *Service) Update(ctx context.Context, id string, req UpdateCompetitionRequest) (*Competition, error) {
	if req.Timezone != nil {
		if err := validateTimezone(*req.Timezone); err != nil {
			return nil, err
		}
	}
	now := s.clock.Now()
	c, err := s.repo.ModifyCompetition(ctx, id, func(c *Competition) error {
		applyUpdate(c, req)
		if err := validateDates(c.RegistrationOpenDate, c.StartDate, c.EndDate); err != nil {
			return err
		}
		if req.Status != nil {
			c.Status = *req.Status
		} else {
			c.Status = DeriveStatus(*c, now)
		}
		c.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, fmt.Errorf("update competition: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("competition_not_found", "competition %q not found", id)
	}
	s.invalidate(ctx)
	return c, nil
}

func applyUpdate(c *Competition, req UpdateCompetitionRequest) {
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Timezone != nil {
		c.Timezone = *req.Timezone
	}
	if req.RegistrationOpenDate != nil {
		c.RegistrationOpenDate = *req.RegistrationOpenDate
	}
	if req.StartDate != nil {
		c.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		c.EndDate = *req.EndDate
	}
	if req.MaxTeams != nil {
		c.MaxTeams = *req.MaxTeams
	}
	if req.MaxMembersPerTeam != nil {
		c.MaxMembersPerTeam = *req.MaxMembersPerTeam
	}
}

// Archive soft-deletes a competition.
func (s *Service) Archive(ctx context.Context, id string) (*Competition, error) {
	now := s.clock.Now().UTC()
	c, err := s.repo.ModifyCompetition(ctx, id, func(c *Competition) error {
		c.Status = StatusArchived
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive competition: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("competition_not_found", "competition %q not found", id)
	}
	slog.Info("Competition archived", "comp_id", id)
	s.invalidate(ctx)
	return c, nil
}

// refresh derives the current status and persists it when it moved. The
// write only lands if the stored status is still the one read, so a
// concurrent archive or end wins. A failed write is logged; the caller still
// sees the derived value.
func (s *Service) refresh(ctx context.Context, c *Competition) {
	derived := DeriveStatus(*c, s.clock.Now())
	if derived == c.Status {
		return
	}
	stored, err := s.repo.AdvanceStatus(ctx, c.CompID, c.Status, derived)
	if err != nil {
		slog.Warn("Failed to persist derived status", "comp_id", c.CompID, "error", err)
		c.Status = derived
		return
	}
	if stored != derived {
		slog.Info("Competition status changed underneath refresh", "comp_id", c.CompID, "read", c.Status, "stored", stored)
		c.Status = stored
		return
	}
	slog.Info("Competition status advanced", "comp_id", c.CompID, "from", c.Status, "to", derived)
	c.Status = derived
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// Now exposes the service clock to collaborators that gate on dates.
func (s *Service) Now() time.Time { return s.clock.Now() }

func validateTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return apperr.Validation("invalid_timezone", "unknown timezone %q", tz)
	}
	return nil
}

func validateDates(regOpen, start, end string) error {
	r, err := timewindow.ParseDate(regOpen)
	if err != nil {
		return apperr.Validation("invalid_date", "registration_open_date: %v", err)
	}
	st, err := timewindow.ParseDate(start)
	if err != nil {
		return apperr.Validation("invalid_date", "start_date: %v", err)
	}
	en, err := timewindow.ParseDate(end)
	if err != nil {
		return apperr.Validation("invalid_date", "end_date: %v", err)
	}
	if r.After(st) {
		return apperr.Validation("date_order", "registration_open_date must be on or before start_date")
	}
	if st.After(en) {
		return apperr.Validation("date_order", "start_date must be on or before end_date")
	}
	return nil
}
