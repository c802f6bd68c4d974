package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
)

// Ingestor is the slice of the ingestion engine device sync needs.
type Ingestor interface {
	Submit(ctx context.Context, sub steps.Submission) (*steps.Receipt, error)
	ActiveCompetitionsFor(ctx context.Context, uid, date string) ([]competition.Competition, error)
}

// Service links devices and feeds their daily counts into every competition
// the user is eligible for.
type Service struct {
	repo      DeviceRepository
	providers *Registry
	ingest    Ingestor
	clock     timewindow.Clock
	defaultTZ string
}

func NewService(repo DeviceRepository, providers *Registry, ingest Ingestor, clock timewindow.Clock, defaultTZ string) *Service {
	return &Service{repo: repo, providers: providers, ingest: ingest, clock: clock, defaultTZ: defaultTZ}
}

// Link stores tokens obtained by an external OAuth exchange. Relinking
// replaces the tokens and keeps the original link time.
func (s *Service) Link(ctx context.Context, uid, provider string, tok Token) (*Link, error) {
	provider = strings.ToLower(provider)
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if p.NeedsToken() && tok.AccessToken == "" {
		return nil, apperr.Validation("token_required", "%s requires an access token", provider)
	}

	now := s.clock.Now().UTC()
	link := &Link{UserID: uid, Provider: provider, LinkedAt: now, SyncEnabled: true}
	existing, err := s.repo.GetLink(ctx, uid, provider)
	if err != nil {
		return nil, fmt.Errorf("load device link: %w", err)
	}
	if existing != nil {
		link.LinkedAt = existing.LinkedAt
		link.LastSync = existing.LastSync
	}
	link.AccessToken = tok.AccessToken
	link.RefreshToken = tok.RefreshToken
	link.ExpiresAt = tok.ExpiresAt

	if err := s.repo.SaveLink(ctx, link); err != nil {
		return nil, fmt.Errorf("save device link: %w", err)
	}
	slog.Info("Device linked", "uid", uid, "provider", provider)
	return link, nil
}

func (s *Service) Unlink(ctx context.Context, uid, provider string) error {
	provider = strings.ToLower(provider)
	existing, err := s.repo.GetLink(ctx, uid, provider)
	if err != nil {
		return fmt.Errorf("load device link: %w", err)
	}
	if existing == nil {
		return apperr.NotFound("device_not_linked", "no %s device linked", provider)
	}
	if err := s.repo.DeleteLink(ctx, uid, provider); err != nil {
		return fmt.Errorf("delete device link: %w", err)
	}
	slog.Info("Device unlinked", "uid", uid, "provider", provider)
	return nil
}

func (s *Service) List(ctx context.Context, uid string) ([]LinkView, error) {
	links, err := s.repo.GetLinksByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list device links: %w", err)
	}
	views := make([]LinkView, len(links))
	for i := range links {
		views[i] = links[i].View()
	}
	return views, nil
}

// DefaultSyncDate is yesterday in the default competition zone.
func (s *Service) DefaultSyncDate() string {
	return timewindow.FormatDate(timewindow.AddDays(timewindow.Today(s.clock, s.defaultTZ), -1))
}

// Sync pulls one day from a linked device. date defaults to yesterday.
func (s *Service) Sync(ctx context.Context, uid, provider, date string) (*SyncResult, error) {
	date, err := s.syncDate(date)
	if err != nil {
		return nil, err
	}
	provider = strings.ToLower(provider)
	link, err := s.repo.GetLink(ctx, uid, provider)
	if err != nil {
		return nil, fmt.Errorf("load device link: %w", err)
	}
	if link == nil {
		return nil, apperr.NotFound("device_not_linked", "no %s device linked", provider)
	}
	return s.syncLink(ctx, link, date)
}

// GenerateVirtual submits a synthetic count for date on the overwrite path.
// A nil count draws a random one.
func (s *Service) GenerateVirtual(ctx context.Context, uid, date string, count *int) (*SyncResult, error) {
	date, err := s.syncDate(date)
	if err != nil {
		return nil, err
	}
	p, err := s.provider(VirtualProviderName)
	if err != nil {
		return nil, err
	}
	n := 0
	if count != nil {
		n = *count
	} else if vp, ok := p.(*VirtualProvider); ok {
		n = vp.Generate()
	}
	if n < 0 || n > steps.MaxDailySteps {
		return nil, apperr.Validation("steps_out_of_range", "steps must be between 0 and %d", steps.MaxDailySteps)
	}

	result := &SyncResult{UserID: uid, Provider: VirtualProviderName, Date: date, Steps: n}
	if err := s.fanOut(ctx, result, steps.ModeSimulatedOverwrite); err != nil {
		return nil, err
	}
	return result, nil
}

// SyncAll syncs every enabled link for date. Failures are counted per device
// and never stop the pass.
func (s *Service) SyncAll(ctx context.Context, date string) (*RunSummary, error) {
	date, err := s.syncDate(date)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.GetSyncableLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list device links: %w", err)
	}

	summary := &RunSummary{SyncDate: date, TotalDevices: len(links), Results: []SyncResult{}}
	if len(links) == 0 {
		slog.Info("No linked devices to sync")
		return summary, nil
	}
	slog.Info("Starting device sync", "devices", len(links), "date", date)

	for i := range links {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		result, err := s.syncLink(ctx, &links[i], date)
		if err != nil {
			slog.Error("Device sync failed", "uid", links[i].UserID, "provider", links[i].Provider, "error", err)
			summary.Errors++
			summary.Results = append(summary.Results, SyncResult{
				UserID: links[i].UserID, Provider: links[i].Provider, Date: date, Message: err.Error(),
			})
			continue
		}
		summary.Successful++
		summary.Results = append(summary.Results, *result)
	}

	slog.Info("Device sync complete", "successful", summary.Successful, "errors", summary.Errors)
	return summary, nil
}

func (s *Service) syncLink(ctx context.Context, link *Link, date string) (*SyncResult, error) {
	p, err := s.provider(link.Provider)
	if err != nil {
		return nil, err
	}

	before := link.Token()
	n, tok, err := p.DailySteps(ctx, before, date)
	if err != nil {
		return nil, apperr.Downstream("provider_fetch", err)
	}
	if tok != before {
		if err := s.repo.UpdateTokens(ctx, link.UserID, link.Provider, tok); err != nil {
			slog.Warn("Failed to store refreshed token", "uid", link.UserID, "provider", link.Provider, "error", err)
		}
	}

	result := &SyncResult{UserID: link.UserID, Provider: link.Provider, Date: date, Steps: n}
	if n == 0 {
		result.Message = "No steps found for this date"
		result.Competitions = []CompetitionOutcome{}
	} else if err := s.fanOut(ctx, result, steps.ModeNormal); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSyncTime(ctx, link.UserID, link.Provider, s.clock.Now()); err != nil {
		slog.Warn("Failed to update sync time", "uid", link.UserID, "provider", link.Provider, "error", err)
	}
	return result, nil
}

// fanOut submits result.Steps into every competition the user can score in.
func (s *Service) fanOut(ctx context.Context, result *SyncResult, mode steps.Mode) error {
	comps, err := s.ingest.ActiveCompetitionsFor(ctx, result.UserID, result.Date)
	if err != nil {
		return fmt.Errorf("find active competitions: %w", err)
	}

	result.Competitions = make([]CompetitionOutcome, 0, len(comps))
	for _, c := range comps {
		key := fmt.Sprintf("%s_%s_%s_%s", result.Provider, result.Date, result.UserID, c.CompID)
		_, err := s.ingest.Submit(ctx, steps.Submission{
			UserID:         result.UserID,
			CompID:         c.CompID,
			Date:           result.Date,
			Steps:          result.Steps,
			Provider:       result.Provider,
			Timezone:       c.Timezone,
			SourceTS:       s.clock.Now().UTC().Format(time.RFC3339),
			IdempotencyKey: key,
			Mode:           mode,
		})
		switch {
		case errors.Is(err, apperr.Conflict("duplicate", "")):
			slog.Info("Skipping duplicate device submission", "uid", result.UserID, "comp_id", c.CompID, "date", result.Date)
			result.Competitions = append(result.Competitions, CompetitionOutcome{CompID: c.CompID, Status: OutcomeSkipped, Reason: "duplicate"})
		case err != nil:
			slog.Error("Failed to submit device steps", "uid", result.UserID, "comp_id", c.CompID, "error", err)
			result.Competitions = append(result.Competitions, CompetitionOutcome{CompID: c.CompID, Status: OutcomeError, Reason: err.Error()})
		default:
			result.SubmittedCount++
			result.Competitions = append(result.Competitions, CompetitionOutcome{CompID: c.CompID, Status: OutcomeSubmitted, Steps: result.Steps})
		}
	}
	return nil
}

func (s *Service) provider(name string) (Provider, error) {
	p, err := s.providers.Get(name)
	if err != nil {
		return nil, apperr.Validation("unknown_provider", "%v", err)
	}
	return p, nil
}

func (s *Service) syncDate(date string) (string, error) {
	if date == "" {
		return s.DefaultSyncDate(), nil
	}
	d, err := timewindow.ParseDate(date)
	if err != nil {
		return "", apperr.Validation("invalid_date", "%v", err)
	}
	return timewindow.FormatDate(d), nil
}
