package steps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/events"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/google/uuid"
)

// CompetitionReader yields a competition with its status brought up to date.
type CompetitionReader interface {
	Get(ctx context.Context, id string) (*competition.Competition, error)
}

// MembershipReader answers which teams a user is on.
type MembershipReader interface {
	FindUserTeam(ctx context.Context, compID, uid string) (*team.Team, error)
	GetTeamsByUserID(ctx context.Context, uid string) ([]team.Team, error)
}

// Invalidator drops cached aggregates after the ledger changes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Engine validates and commits step submissions.
type Engine struct {
	comps       CompetitionReader
	teams       MembershipReader
	ledger      StepRepository
	idempotency IdempotencyRepository
	publisher   *events.Publisher
	invalidator Invalidator
	clock       timewindow.Clock
	graceDays   int
}

type EngineConfig struct {
	Competitions CompetitionReader
	Teams        MembershipReader
	Ledger       StepRepository
	Idempotency  IdempotencyRepository
	Publisher    *events.Publisher
	Invalidator  Invalidator
	Clock        timewindow.Clock
	GraceDays    int
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = timewindow.System()
	}
	return &Engine{
		comps:       cfg.Competitions,
		teams:       cfg.Teams,
		ledger:      cfg.Ledger,
		idempotency: cfg.Idempotency,
		publisher:   cfg.Publisher,
		invalidator: cfg.Invalidator,
		clock:       cfg.Clock,
		graceDays:   cfg.GraceDays,
	}
}

// Submit runs the acceptance checks in order and, when they pass, writes the
// ledger. A ledger failure is returned; publish and cache failures are not.
func (e *Engine) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	mode := sub.Mode
	if mode == "" {
		mode = ModeNormal
	}
	if mode != ModeNormal && mode != ModeSimulatedOverwrite {
		return nil, apperr.Validation("invalid_mode", "unknown ingest mode %q", mode)
	}
	sub.Date = strings.TrimSpace(sub.Date)

	comp, err := e.comps.Get(ctx, sub.CompID)
	if err != nil {
		return nil, err
	}
	if comp.Status != competition.StatusActive {
		return nil, apperr.Validation("not_active", "competition %s is %s, not ACTIVE", comp.CompID, comp.Status)
	}

	t, err := e.teams.FindUserTeam(ctx, comp.CompID, sub.UserID)
	if err != nil {
		return nil, apperr.Downstream("membership_lookup", err)
	}
	if t == nil {
		return nil, apperr.Forbidden("not_member", "user is not on a team in competition %s", comp.CompID)
	}

	if err := e.checkWindow(comp, sub.Date); err != nil {
		return nil, err
	}

	if sub.Steps < 0 || sub.Steps > MaxDailySteps {
		return nil, apperr.Validation("steps_out_of_range", "steps must be between 0 and %d", MaxDailySteps)
	}

	now := e.clock.Now()
	key := strings.TrimSpace(sub.IdempotencyKey)
	var stored int
	switch mode {
	case ModeSimulatedOverwrite:
		key = uuid.NewString()
		if err := e.ledger.Overwrite(ctx, sub.UserID, sub.Date, sub.Steps, sub.Provider, now); err != nil {
			return nil, fmt.Errorf("write step ledger: %w", err)
		}
		stored = sub.Steps
	default:
		if key != "" {
			used, err := e.idempotency.CheckAndMark(ctx, key, sub.UserID, sub.Date, now)
			if err != nil {
				return nil, fmt.Errorf("check idempotency key: %w", err)
			}
			if used {
				return nil, apperr.Conflict("duplicate", "idempotency key %q was already used", key)
			}
		}
		stored, err = e.ledger.MaxMerge(ctx, sub.UserID, sub.Date, sub.Steps, sub.Provider, now)
		if err != nil {
			if key != "" {
				if rerr := e.idempotency.Release(ctx, key, sub.UserID); rerr != nil {
					slog.Warn("Failed to release idempotency key", "uid", sub.UserID, "key", key, "error", rerr)
				}
			}
			return nil, fmt.Errorf("write step ledger: %w", err)
		}
	}

	slog.Info("Steps accepted", "uid", sub.UserID, "comp_id", comp.CompID, "date", sub.Date, "steps", sub.Steps, "stored", stored, "mode", mode)

	if e.invalidator != nil {
		e.invalidator.Invalidate(ctx)
	}
	published := e.publisher.PublishIngest(ctx, events.IngestEvent{
		UserID:         sub.UserID,
		CompID:         comp.CompID,
		Date:           sub.Date,
		Steps:          sub.Steps,
		StoredSteps:    stored,
		Provider:       sub.Provider,
		Timezone:       sub.Timezone,
		SourceTS:       sub.SourceTS,
		IdempotencyKey: key,
		Mode:           string(mode),
		AcceptedAt:     now.UTC(),
	})

	return &Receipt{
		Accepted:       true,
		UserID:         sub.UserID,
		CompID:         comp.CompID,
		Date:           sub.Date,
		Steps:          sub.Steps,
		StoredSteps:    stored,
		IdempotencyKey: key,
		Mode:           mode,
		Published:      published,
	}, nil
}

// ActiveCompetitionsFor lists the competitions a count for date would count
// towards: the user is on a team, the competition is ACTIVE and date is in
// its window.
func (e *Engine) ActiveCompetitionsFor(ctx context.Context, uid, date string) ([]competition.Competition, error) {
	teams, err := e.teams.GetTeamsByUserID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	seen := map[string]bool{}
	var out []competition.Competition
	for _, t := range teams {
		if seen[t.CompID] {
			continue
		}
		seen[t.CompID] = true

		comp, err := e.comps.Get(ctx, t.CompID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if comp.Status != competition.StatusActive || e.checkWindow(comp, date) != nil {
			continue
		}
		out = append(out, *comp)
	}
	return out, nil
}

// History returns the caller's own ledger records.
func (e *Engine) History(ctx context.Context, uid string, f DateFilter) ([]Record, error) {
	for _, d := range []string{f.Date, f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := timewindow.ParseDate(d); err != nil {
			return nil, apperr.Validation("invalid_date", "%v", err)
		}
	}
	recs, err := e.ledger.ListRecords(ctx, f, uid)
	if err != nil {
		return nil, fmt.Errorf("list step records: %w", err)
	}
	return recs, nil
}

// GraceDays is the configured grace after a competition's end date.
func (e *Engine) GraceDays() int { return e.graceDays }

func (e *Engine) checkWindow(comp *competition.Competition, date string) error {
	d, err := timewindow.ParseDate(date)
	if err != nil {
		return apperr.Validation("invalid_date", "%v", err)
	}
	start, err := timewindow.ParseDate(comp.StartDate)
	if err != nil {
		return apperr.Validation("invalid_date", "competition start_date: %v", err)
	}
	end, err := timewindow.ParseDate(comp.EndDate)
	if err != nil {
		return apperr.Validation("invalid_date", "competition end_date: %v", err)
	}
	last := timewindow.GraceEnd(end, e.graceDays)
	if !timewindow.Within(d, start, last) {
		return apperr.Validation("date_out_of_window", "date %s is outside %s..%s", date, comp.StartDate, timewindow.FormatDate(last))
	}
	return nil
}
