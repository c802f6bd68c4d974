package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/apperr"
	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/store"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/DhavalSuthar-24/stepsquad/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type board struct {
	engine *Engine
	ledger steps.StepRepository
	teams  *team.Service
}

func newBoard(t *testing.T) *board {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	clock := timewindow.Fixed(time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC))

	compRepo := competition.NewCompetitionRepository(s)
	comps := competition.NewService(compRepo, clock, "UTC")
	for _, id := range []string{"C1", "C2"} {
		_, err := comps.Create(ctx, "admin", competition.CreateCompetitionRequest{
			CompID: id, Name: "Walk " + id,
			RegistrationOpenDate: "2025-01-01", StartDate: "2025-02-01", EndDate: "2025-03-01",
		})
		require.NoError(t, err)
	}

	users := user.NewUserRepository(s)
	for _, uid := range []string{"U1", "U2", "U3", "U4"} {
		_, err := users.EnsureUser(ctx, identity.Principal{UserID: uid, Email: uid + "@example.com", Role: identity.RoleMember})
		require.NoError(t, err)
	}

	teamRepo := team.NewTeamRepository(s)
	ledger := steps.NewStepRepository(s)
	return &board{
		engine: NewEngine(compRepo, teamRepo, ledger, users, nil),
		ledger: ledger,
		teams:  team.NewService(teamRepo, comps, clock),
	}
}

func (b *board) put(t *testing.T, uid, date string, n int) {
	t.Helper()
	_, err := b.ledger.MaxMerge(context.Background(), uid, date, n, "manual", time.Now())
	require.NoError(t, err)
}

func TestRankEntriesTieRule(t *testing.T) {
	es := []entry{{id: "c", steps: 50}, {id: "b", steps: 100}, {id: "a", steps: 100}}
	rankEntries(es)
	assert.Equal(t, []entry{{"a", 100, 1}, {"b", 100, 1}, {"c", 50, 3}}, es)

	es = []entry{{id: "x", steps: 10}, {id: "y", steps: 20}, {id: "z", steps: 20}, {id: "w", steps: 5}}
	rankEntries(es)
	var ranks []int
	for _, e := range es {
		ranks = append(ranks, e.rank)
	}
	assert.Equal(t, []int{1, 1, 3, 4}, ranks)
}

func TestIndividualHappyPath(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	_, err := b.teams.Create(ctx, "U1", "C1", "T1")
	require.NoError(t, err)
	b.put(t, "U1", "2025-02-15", 8000)

	rows, err := b.engine.Individual(ctx, Query{CompID: "C1", DateFilter: steps.DateFilter{Date: "2025-02-15"}})
	require.NoError(t, err)
	assert.Equal(t, []IndividualRow{{UserID: "U1", Email: "U1@example.com", Steps: 8000, Rank: 1}}, rows)
}

func TestIndividualFilters(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	t1, err := b.teams.Create(ctx, "U1", "C1", "Falcons")
	require.NoError(t, err)
	_, err = b.teams.Join(ctx, "U2", t1.TeamID)
	require.NoError(t, err)
	_, err = b.teams.Create(ctx, "U3", "C1", "Panthers")
	require.NoError(t, err)

	b.put(t, "U1", "2025-02-10", 1000)
	b.put(t, "U1", "2025-02-11", 2000)
	b.put(t, "U2", "2025-02-11", 3000)
	b.put(t, "U3", "2025-02-12", 3000)
	b.put(t, "U4", "2025-02-11", 9999)

	rows, err := b.engine.Individual(ctx, Query{CompID: "C1"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "U1", rows[0].UserID)
	assert.Equal(t, 3000, rows[0].Steps)
	assert.Equal(t, 1, rows[1].Rank)
	assert.Equal(t, 1, rows[2].Rank)

	rows, err = b.engine.Individual(ctx, Query{CompID: "C1", DateFilter: steps.DateFilter{Date: "2025-02-11", StartDate: "2025-02-12"}})
	require.NoError(t, err)
	assert.Equal(t, "U2", rows[0].UserID)
	assert.Equal(t, 3000, rows[0].Steps)
	assert.Equal(t, "U1", rows[1].UserID)
	assert.Equal(t, "U3", rows[2].UserID)
	assert.Equal(t, 0, rows[2].Steps)
	assert.Equal(t, 3, rows[2].Rank)

	rows, err = b.engine.Individual(ctx, Query{CompID: "C1", TeamID: t1.TeamID, DateFilter: steps.DateFilter{StartDate: "2025-02-11", EndDate: "2025-02-11"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "U2", rows[0].UserID)
	assert.Equal(t, 2000, rows[1].Steps)

	rows, err = b.engine.Individual(ctx, Query{TeamID: t1.TeamID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = b.engine.Individual(ctx, Query{CompID: "C2", TeamID: t1.TeamID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = b.engine.Individual(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "U4", rows[0].UserID)

	rows, err = b.engine.Individual(ctx, Query{DateFilter: steps.DateFilter{Date: "2025-02-12"}})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "U3", rows[0].UserID)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestIndividualErrors(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	_, err := b.engine.Individual(ctx, Query{CompID: "missing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = b.engine.Individual(ctx, Query{TeamID: "missing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = b.engine.Individual(ctx, Query{DateFilter: steps.DateFilter{Date: "yesterday"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestTeamLeaderboard(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	t1, err := b.teams.Create(ctx, "U1", "C1", "Falcons")
	require.NoError(t, err)
	_, err = b.teams.Join(ctx, "U2", t1.TeamID)
	require.NoError(t, err)
	t2, err := b.teams.Create(ctx, "U3", "C1", "Panthers")
	require.NoError(t, err)
	_, err = b.teams.Create(ctx, "U4", "C2", "Owls")
	require.NoError(t, err)

	b.put(t, "U1", "2025-02-11", 1000)
	b.put(t, "U2", "2025-02-11", 2000)
	b.put(t, "U3", "2025-02-11", 3000)
	b.put(t, "U3", "2025-02-12", 500)
	b.put(t, "U4", "2025-02-11", 100)

	rows, err := b.engine.Team(ctx, Query{CompID: "C1", DateFilter: steps.DateFilter{Date: "2025-02-11"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// tie broken by team id
	first, second := t1.TeamID, t2.TeamID
	if second < first {
		first, second = second, first
	}
	assert.Equal(t, first, rows[0].TeamID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 1, rows[1].Rank)
	assert.Equal(t, 3000, rows[1].Steps)

	rows, err = b.engine.Team(ctx, Query{CompID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, t2.TeamID, rows[0].TeamID)
	assert.Equal(t, 3500, rows[0].Steps)
	assert.Equal(t, 1, rows[0].MemberCount)
	assert.Equal(t, 2, rows[1].MemberCount)
	assert.Equal(t, 2, rows[1].Rank)

	rows, err = b.engine.Team(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestLeaderboardHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b := newBoard(t)
	ctx := context.Background()
	_, err := b.teams.Create(ctx, "U1", "C1", "T1")
	require.NoError(t, err)
	b.put(t, "U1", "2025-02-15", 8000)

	router := gin.New()
	RegisterLeaderboardRoutes(router.Group("/api"), b.engine)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard/individual?comp_id=C1&date=2025-02-15", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Rows []IndividualRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []IndividualRow{{UserID: "U1", Email: "U1@example.com", Steps: 8000, Rank: 1}}, body.Rows)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard/team?comp_id=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard/team?date=02-15", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	var rows []TeamRow
	assert.False(t, c.Get(context.Background(), "team", Query{}, &rows))
	c.Set(context.Background(), "team", Query{}, rows)
	c.Invalidate(context.Background())
	assert.Nil(t, NewCache(nil, time.Minute))
}

func TestUnreachableCacheFallsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	b := newBoard(t)
	b.engine.cache = NewCache(rdb, time.Minute)
	require.NotNil(t, b.engine.cache)

	ctx := context.Background()
	_, err := b.teams.Create(ctx, "U1", "C1", "T1")
	require.NoError(t, err)
	b.put(t, "U1", "2025-02-15", 8000)

	rows, err := b.engine.Individual(ctx, Query{CompID: "C1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8000, rows[0].Steps)
	b.engine.Invalidate(ctx)
}

func TestCacheKeySeparatesQueries(t *testing.T) {
	a := cacheKey("individual", Query{CompID: "C1", DateFilter: steps.DateFilter{Date: "2025-02-15"}})
	b := cacheKey("individual", Query{CompID: "C1", DateFilter: steps.DateFilter{StartDate: "2025-02-15"}})
	c := cacheKey("team", Query{CompID: "C1", DateFilter: steps.DateFilter{Date: "2025-02-15"}})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "leaderboard:individual:C1::2025-02-15::", a)
}
