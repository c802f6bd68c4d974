package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/device"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/leaderboard"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/store"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/DhavalSuthar-24/stepsquad/internal/user"
	"github.com/DhavalSuthar-24/stepsquad/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminEmail = "admin@example.com"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemory()
	clock := timewindow.Fixed(time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC))

	users := user.NewUserRepository(s)
	compRepo := competition.NewCompetitionRepository(s)
	teamRepo := team.NewTeamRepository(s)
	ledger := steps.NewStepRepository(s)

	board := leaderboard.NewEngine(compRepo, teamRepo, ledger, users, nil)
	comps := competition.NewService(compRepo, clock, "UTC").WithInvalidator(board)
	teams := team.NewService(teamRepo, comps, clock).WithInvalidator(board)
	ingest := steps.NewEngine(steps.EngineConfig{
		Competitions: comps,
		Teams:        teamRepo,
		Ledger:       ledger,
		Idempotency:  steps.NewIdempotencyRepository(s),
		Invalidator:  board,
		Clock:        clock,
		GraceDays:    2,
	})
	devices := device.NewService(device.NewDeviceRepository(s), device.NewProviders(device.ProviderConfig{}), ingest, clock, "UTC")

	hash, err := utils.HashSecret("cron-pass")
	require.NoError(t, err)

	return SetupRoutes(Dependencies{
		Identity:       identity.DevHeaderProvider{AdminEmail: adminEmail},
		Users:          users,
		Competitions:   comps,
		Teams:          teams,
		Steps:          ingest,
		Leaderboard:    board,
		Devices:        devices,
		Clock:          clock,
		Timezone:       "UTC",
		FrontendURL:    "*",
		CronSecretHash: hash,
	})
}

func call(r *gin.Engine, method, path, as, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("X-Dev-User", as)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := call(r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "2025-02-10T12:00:00Z", body["time"])
	assert.Equal(t, "UTC", body["tz"])
}

func TestAPIRequiresIdentity(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/me", "", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/me", "walker@example.com", "").Code)
}

func TestCronRequiresSecret(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/cron/sync-devices", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/cron/sync-devices", "", "", "X-Cron-Secret", "wrong").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/cron/sync-devices", "", "", "X-Cron-Secret", "cron-pass").Code)
}

// End to end: admin creates a competition, a walker forms a team, submits
// steps and tops the board.
func TestCompetitionFlow(t *testing.T) {
	r := newTestRouter(t)
	walker := "walker@example.com"

	w := call(r, http.MethodPost, "/api/competitions", walker,
		`{"comp_id":"C1","name":"Winter Walk","registration_open_date":"2025-01-01","start_date":"2025-02-01","end_date":"2025-03-01"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodPost, "/api/competitions", adminEmail,
		`{"comp_id":"C1","name":"Winter Walk","registration_open_date":"2025-01-01","start_date":"2025-02-01","end_date":"2025-03-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/teams", walker, `{"comp_id":"C1","name":"Falcons"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/ingest/steps", walker,
		`{"comp_id":"C1","date":"2025-02-09","steps":8000}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/ingest/steps", walker,
		`{"comp_id":"C1","date":"2025-02-09","steps":9000}`, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(r, http.MethodGet, "/api/leaderboard/individual?comp_id=C1", walker, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Rows []leaderboard.IndividualRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, walker, resp.Rows[0].Email)
	assert.Equal(t, 8000, resp.Rows[0].Steps)
	assert.Equal(t, 1, resp.Rows[0].Rank)
}
