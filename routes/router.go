package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/DhavalSuthar-24/stepsquad/internal/competition"
	"github.com/DhavalSuthar-24/stepsquad/internal/device"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/internal/leaderboard"
	"github.com/DhavalSuthar-24/stepsquad/internal/middleware"
	"github.com/DhavalSuthar-24/stepsquad/internal/steps"
	"github.com/DhavalSuthar-24/stepsquad/internal/team"
	"github.com/DhavalSuthar-24/stepsquad/internal/timewindow"
	"github.com/DhavalSuthar-24/stepsquad/internal/user"
	"github.com/DhavalSuthar-24/stepsquad/pkg/rmiddleware"
)

// Dependencies is everything the HTTP layer needs, built once in main.
type Dependencies struct {
	Identity     identity.Provider
	Users        user.UserRepository
	Competitions *competition.Service
	Teams        *team.Service
	Steps        *steps.Engine
	Leaderboard  *leaderboard.Engine
	Devices      *device.Service

	Clock          timewindow.Clock
	Timezone       string
	FrontendURL    string
	CronSecretHash string
}

func SetupRoutes(deps Dependencies) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{deps.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.DevUserHeader, steps.IdempotencyHeader)
	if deps.FrontendURL == "" || deps.FrontendURL == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", healthHandler(deps.Clock, deps.Timezone))

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Scheduler routes sit outside /api and carry their own guard.
	device.RegisterCronRoutes(r.Group(""), deps.Devices, rmiddleware.CronSecretMiddleware(deps.CronSecretHash))

	// API routes
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Identity, deps.Users))

	user.RegisterUserRoutes(api, deps.Users)
	competition.RegisterCompetitionRoutes(api, deps.Competitions)
	team.TeamRoutes(api, deps.Teams)
	steps.RegisterStepRoutes(api, deps.Steps)
	leaderboard.RegisterLeaderboardRoutes(api, deps.Leaderboard)
	device.RegisterDeviceRoutes(api, deps.Devices)

	return r
}

type healthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
	TZ   string `json:"tz"`
}

// healthHandler godoc
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func healthHandler(clock timewindow.Clock, tz string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{
			OK:   true,
			Time: clock.Now().UTC().Format(time.RFC3339),
			TZ:   tz,
		})
	}
}
