package leaderboard

import (
	"net/http"

	"github.com/DhavalSuthar-24/stepsquad/pkg/responses"
	"github.com/DhavalSuthar-24/stepsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	engine *Engine
}

func NewLeaderboardController(engine *Engine) *LeaderboardController {
	return &LeaderboardController{engine: engine}
}

// GetIndividual godoc
// @Summary Individual leaderboard
// @Description Ties share a rank; the next rank skips past them.
// @Tags Leaderboard
// @Produce json
// @Param comp_id query string false "Competition ID"
// @Param team_id query string false "Team ID"
// @Param date query string false "Exact date, overrides the range"
// @Param start_date query string false "Range start (inclusive)"
// @Param end_date query string false "Range end (inclusive)"
// @Success 200 {object} responses.RowsResponse{rows=[]IndividualRow}
// @Failure 400 {object} responses.ErrorResponse "Invalid date"
// @Failure 404 {object} responses.ErrorResponse "Competition or team not found"
// @Security BearerAuth
// @Router /leaderboard/individual [get]
func (lc *LeaderboardController) GetIndividual(c *gin.Context) {
	var q Query
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid query parameters", validator.ParseError(err))
		return
	}
	rows, err := lc.engine.Individual(c.Request.Context(), q)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.RowsResponse{Rows: rows})
}

// GetTeam godoc
// @Summary Team leaderboard
// @Tags Leaderboard
// @Produce json
// @Param comp_id query string false "Competition ID"
// @Param date query string false "Exact date, overrides the range"
// @Param start_date query string false "Range start (inclusive)"
// @Param end_date query string false "Range end (inclusive)"
// @Success 200 {object} responses.RowsResponse{rows=[]TeamRow}
// @Failure 400 {object} responses.ErrorResponse "Invalid date"
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Security BearerAuth
// @Router /leaderboard/team [get]
func (lc *LeaderboardController) GetTeam(c *gin.Context) {
	var q Query
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid query parameters", validator.ParseError(err))
		return
	}
	rows, err := lc.engine.Team(c.Request.Context(), q)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.RowsResponse{Rows: rows})
}

// RegisterLeaderboardRoutes expects router to already carry the auth middleware.
func RegisterLeaderboardRoutes(router *gin.RouterGroup, engine *Engine) {
	leaderboardController := NewLeaderboardController(engine)

	router.GET("/leaderboard/individual", leaderboardController.GetIndividual)
	router.GET("/leaderboard/team", leaderboardController.GetTeam)
}
