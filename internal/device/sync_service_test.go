package device

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/store"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	steps int
	err   error
	fresh *Token
	calls int
}

func (p *stubProvider) Name() string     { return p.name }
func (p *stubProvider) NeedsToken() bool { return true }

func (p *stubProvider) DailySteps(_ context.Context, tok Token, _ string) (int, Token, error) {
	p.calls++
	if p.err != nil {
		return 0, tok, p.err
	}
	if p.fresh != nil {
		return p.steps, *p.fresh, nil
	}
	return p.steps, tok, nil
}

type syncEnv struct {
	service *Service
	repo    DeviceRepository
	ledger  steps.StepRepository
	watch   *stubProvider
}

// newSyncEnv builds C1 (ACTIVE on 2025-02-10) with U1 on a team, and a
// registry holding the virtual device plus a "watch" stub.
func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	clock := timewindow.Fixed(time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC))

	comps := competition.NewService(competition.NewCompetitionRepository(s), clock, "UTC")
	_, err := comps.Create(ctx, "admin", competition.CreateCompetitionRequest{
		CompID: "C1", Name: "Winter Walk",
		RegistrationOpenDate: "2025-01-01", StartDate: "2025-02-01", EndDate: "2025-03-01",
	})
	require.NoError(t, err)
	teams := team.NewService(team.NewTeamRepository(s), comps, clock)
	_, err = teams.Create(ctx, "U1", "C1", "Falcons")
	require.NoError(t, err)

	ledger := steps.NewStepRepository(s)
	engine := steps.NewEngine(steps.EngineConfig{
		Competitions: comps,
		Teams:        teams.Repository(),
		Ledger:       ledger,
		Idempotency:  steps.NewIdempotencyRepository(s),
		Clock:        clock,
		GraceDays:    2,
	})

	watch := &stubProvider{name: "watch", steps: 7000}
	reg := NewRegistry()
	reg.Register(NewVirtualProvider())
	reg.Register(watch)

	repo := NewDeviceRepository(s)
	return &syncEnv{
		service: NewService(repo, reg, engine, clock, "UTC"),
		repo:    repo,
		ledger:  ledger,
		watch:   watch,
	}
}

func (e *syncEnv) stored(t *testing.T, uid, date string) int {
	t.Helper()
	rec, err := e.ledger.GetRecord(context.Background(), uid, date)
	require.NoError(t, err)
	if rec == nil {
		return -1
	}
	return rec.Steps
}

func TestLinkDevice(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()

	_, err := e.service.Link(ctx, "U1", "watch", Token{})
	assert.True(t, errors.Is(err, apperr.Validation("token_required", "")))

	_, err = e.service.Link(ctx, "U1", "garmin", Token{AccessToken: "a"})
	assert.True(t, errors.Is(err, apperr.Validation("unknown_provider", "")))

	first, err := e.service.Link(ctx, "U1", "WATCH", Token{AccessToken: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "watch", first.Provider)

	_, err = e.service.Link(ctx, "U1", "watch", Token{AccessToken: "a2"})
	require.NoError(t, err)
	stored, err := e.repo.GetLink(ctx, "U1", "watch")
	require.NoError(t, err)
	assert.Equal(t, "a2", stored.AccessToken)
	assert.Equal(t, first.LinkedAt, stored.LinkedAt)

	_, err = e.service.Link(ctx, "U1", "virtual", Token{})
	require.NoError(t, err)
	views, err := e.service.List(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "virtual", views[0].Provider)
	assert.False(t, views[0].HasToken)
	assert.True(t, views[1].HasToken)

	require.NoError(t, e.service.Unlink(ctx, "U1", "virtual"))
	err = e.service.Unlink(ctx, "U1", "virtual")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSyncSubmitsAndSkipsDuplicates(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()
	_, err := e.service.Link(ctx, "U1", "watch", Token{AccessToken: "a"})
	require.NoError(t, err)

	res, err := e.service.Sync(ctx, "U1", "watch", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-09", res.Date)
	assert.Equal(t, 1, res.SubmittedCount)
	require.Len(t, res.Competitions, 1)
	assert.Equal(t, CompetitionOutcome{CompID: "C1", Status: OutcomeSubmitted, Steps: 7000}, res.Competitions[0])
	assert.Equal(t, 7000, e.stored(t, "U1", "2025-02-09"))

	e.watch.steps = 9000
	res, err = e.service.Sync(ctx, "U1", "watch", "2025-02-09")
	require.NoError(t, err)
	assert.Zero(t, res.SubmittedCount)
	assert.Equal(t, OutcomeSkipped, res.Competitions[0].Status)
	assert.Equal(t, "duplicate", res.Competitions[0].Reason)
	assert.Equal(t, 7000, e.stored(t, "U1", "2025-02-09"))

	link, err := e.repo.GetLink(ctx, "U1", "watch")
	require.NoError(t, err)
	require.NotNil(t, link.LastSync)
}

func TestSyncOutsideWindowSubmitsNothing(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()
	_, err := e.service.Link(ctx, "U1", "watch", Token{AccessToken: "a"})
	require.NoError(t, err)

	res, err := e.service.Sync(ctx, "U1", "watch", "2025-01-15")
	require.NoError(t, err)
	assert.Empty(t, res.Competitions)
	assert.Equal(t, -1, e.stored(t, "U1", "2025-01-15"))
}

func TestSyncZeroStepsAndErrors(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()

	_, err := e.service.Sync(ctx, "U1", "watch", "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = e.service.Link(ctx, "U1", "watch", Token{AccessToken: "a"})
	require.NoError(t, err)

	_, err = e.service.Sync(ctx, "U1", "watch", "02/09/2025")
	assert.True(t, errors.Is(err, apperr.Validation("invalid_date", "")))

	e.watch.steps = 0
	res, err := e.service.Sync(ctx, "U1", "watch", "")
	require.NoError(t, err)
	assert.Equal(t, "No steps found for this date", res.Message)
	assert.Empty(t, res.Competitions)
	assert.Equal(t, -1, e.stored(t, "U1", "2025-02-09"))

	e.watch.err = errors.New("vendor down")
	_, err = e.service.Sync(ctx, "U1", "watch", "")
	assert.Equal(t, apperr.KindDownstream, apperr.KindOf(err))
}

func TestSyncExpiredGarminLinkAsksForReauth(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()
	e.service.providers.Register(NewGarminProvider("http://127.0.0.1:1"))

	expired := Token{AccessToken: "g1", ExpiresAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	_, err := e.service.Link(ctx, "U1", "garmin", expired)
	require.NoError(t, err)

	_, err = e.service.Sync(ctx, "U1", "garmin", "")
	assert.Equal(t, apperr.KindDownstream, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrReauthRequired)

	link, err := e.repo.GetLink(ctx, "U1", "garmin")
	require.NoError(t, err)
	assert.Equal(t, expired.AccessToken, link.AccessToken)
	assert.Equal(t, -1, e.stored(t, "U1", "2025-02-09"))
}

func TestSyncPersistsRefreshedToken(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()
	_, err := e.service.Link(ctx, "U1", "watch", Token{AccessToken: "old", RefreshToken: "r1"})
	require.NoError(t, err)

	e.watch.fresh = &Token{AccessToken: "new", RefreshToken: "r2", ExpiresAt: time.Date(2025, 2, 10, 13, 0, 0, 0, time.UTC)}
	_, err = e.service.Sync(ctx, "U1", "watch", "")
	require.NoError(t, err)

	link, err := e.repo.GetLink(ctx, "U1", "watch")
	require.NoError(t, err)
	assert.Equal(t, "new", link.AccessToken)
	assert.Equal(t, "r2", link.RefreshToken)
}

func TestSyncAllCountsFailuresPerDevice(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()
	_, err := e.service.Link(ctx, "U1", "watch", Token{AccessToken: "a"})
	require.NoError(t, err)
	_, err = e.service.Link(ctx, "U1", "virtual", Token{})
	require.NoError(t, err)
	_, err = e.service.Link(ctx, "U2", "watch", Token{AccessToken: "b"})
	require.NoError(t, err)

	e.watch.err = errors.New("vendor down")
	summary, err := e.service.SyncAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-09", summary.SyncDate)
	assert.Equal(t, 3, summary.TotalDevices)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 2, summary.Errors)
	assert.Len(t, summary.Results, 3)

	n := e.stored(t, "U1", "2025-02-09")
	assert.GreaterOrEqual(t, n, 5000)
	assert.LessOrEqual(t, n, 15000)
}

func TestGenerateVirtualOverwrites(t *testing.T) {
	e := newSyncEnv(t)
	ctx := context.Background()

	high, low := 12000, 3000
	res, err := e.service.GenerateVirtual(ctx, "U1", "2025-02-05", &high)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SubmittedCount)
	assert.Equal(t, 12000, e.stored(t, "U1", "2025-02-05"))

	_, err = e.service.GenerateVirtual(ctx, "U1", "2025-02-05", &low)
	require.NoError(t, err)
	assert.Equal(t, 3000, e.stored(t, "U1", "2025-02-05"))

	tooMany := steps.MaxDailySteps + 1
	_, err = e.service.GenerateVirtual(ctx, "U1", "2025-02-05", &tooMany)
	assert.True(t, errors.Is(err, apperr.Validation("steps_out_of_range", "")))

	res, err = e.service.GenerateVirtual(ctx, "U1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-09", res.Date)
	assert.GreaterOrEqual(t, res.Steps, 5000)
}

func TestPollerStops(t *testing.T) {
	e := newSyncEnv(t)
	p := NewPoller(e.service, 5*time.Millisecond)

	stopped := make(chan struct{})
	p.Start(context.Background())
	go func() {
		p.Stop()
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	e := newSyncEnv(t)
	p := NewPoller(e.service, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	waited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("poller ignored cancellation")
	}
}

func TestDeviceHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := newSyncEnv(t)

	router := gin.New()
	api := router.Group("/api")
	api.Use(func(c *gin.Context) {
		common.SetPrincipal(c, identity.Principal{UserID: "U1", Role: identity.RoleMember})
		c.Next()
	})
	RegisterDeviceRoutes(api, e.service)
	RegisterCronRoutes(api, e.service, func(c *gin.Context) {
		if c.GetHeader("X-Cron-Secret") != "s3cret" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	})

	do := func(method, path, body string, header ...string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		for i := 0; i+1 < len(header); i += 2 {
			req.Header.Set(header[i], header[i+1])
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/api/me/devices/watch", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodPut, "/api/me/devices/watch", `{"access_token":"a"}`).Code)

	w := do(http.MethodGet, "/api/me/devices", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"access_token"`)

	w = do(http.MethodPost, "/api/me/devices/watch/sync", `{"date":"2025-02-08"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7000, e.stored(t, "U1", "2025-02-08"))

	w = do(http.MethodPost, "/api/me/devices/virtual/generate", `{"date":"2025-02-07","steps":4321}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4321, e.stored(t, "U1", "2025-02-07"))

	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/api/me/devices/virtual", "").Code)

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/cron/sync-devices", "").Code)
	w = do(http.MethodPost, "/api/cron/sync-devices?date=2025-02-06", "", "X-Cron-Secret", "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sync_date":"2025-02-06"`)
}
