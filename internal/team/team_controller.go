package team

import (
	"net/http"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/pkg/responses"
	"github.com/DhavalSuthar-24/stepsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

// TeamController handles team-related HTTP requests
type TeamController struct {
	service *Service
}

// NewTeamController creates a new team controller
func NewTeamController(service *Service) *TeamController {
	return &TeamController{service: service}
}

// --- DTOs for requests ---

type CreateTeamRequest struct {
	CompID string `json:"comp_id" binding:"required"`
	Name   string `json:"name" binding:"required,min=3,max=100"`
}

type RenameTeamRequest struct {
	Name string `json:"name" binding:"required,min=3,max=100"`
}

// --- Team Handlers ---

// CreateTeam godoc
// @Summary Create a new team
// @Description Creates a team in a competition with the authenticated user as owner and first member.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team body CreateTeamRequest true "Team Creation Data"
// @Success 201 {object} responses.SuccessResponse{data=Team} "Team created successfully"
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Failure 409 {object} responses.ErrorResponse "Closed, full or already on a team"
// @Security BearerAuth
// @Router /teams [post]
func (tc *TeamController) CreateTeam(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
		return
	}

	team, err := tc.service.Create(c.Request.Context(), userID, req.CompID, req.Name)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Team created successfully", team)
}

// GetTeamByID godoc
// @Summary Get a team by its ID
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse{data=Team} "Team details"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security BearerAuth
// @Router /teams/{team_id} [get]
func (tc *TeamController) GetTeamByID(c *gin.Context) {
	team, err := tc.service.Get(c.Request.Context(), c.Param("team_id"))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team retrieved successfully", team)
}

// GetCompetitionTeams godoc
// @Summary List the teams of a competition
// @Tags Teams
// @Produce json
// @Param comp_id path string true "Competition ID"
// @Success 200 {object} responses.SuccessResponse{data=[]Team}
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Security BearerAuth
// @Router /competitions/{comp_id}/teams [get]
func (tc *TeamController) GetCompetitionTeams(c *gin.Context) {
	teams, err := tc.service.ListByCompetition(c.Request.Context(), c.Param("comp_id"))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Teams retrieved successfully", teams)
}

// GetMyTeams godoc
// @Summary Teams of the current user
// @Tags Teams
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=[]Team}
// @Security BearerAuth
// @Router /me/teams [get]
func (tc *TeamController) GetMyTeams(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
	teams, err := tc.service.MyTeams(c.Request.Context(), userID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Teams retrieved successfully", teams)
}

// JoinTeam godoc
// @Summary Join a team
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse{data=Team}
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 409 {object} responses.ErrorResponse "Closed, full or already on a team"
// @Security BearerAuth
// @Router /teams/{team_id}/join [post]
func (tc *TeamController) JoinTeam(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
	team, err := tc.service.Join(c.Request.Context(), userID, c.Param("team_id"))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Joined team successfully", team)
}

// LeaveTeam godoc
// @Summary Leave a team
// @Description Owners cannot leave their own team.
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse "Owner cannot leave"
// @Failure 404 {object} responses.ErrorResponse "Not a member"
// @Security BearerAuth
// @Router /teams/{team_id}/leave [post]
func (tc *TeamController) LeaveTeam(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
	if err := tc.service.Leave(c.Request.Context(), userID, c.Param("team_id")); err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Left team successfully", nil)
}

// RenameTeam godoc
// @Summary Rename a team
// @Description Owner or admin only.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team_id path string true "Team ID"
// @Param team body RenameTeamRequest true "New name"
// @Success 200 {object} responses.SuccessResponse{data=Team}
// @Failure 403 {object} responses.ErrorResponse "Not the owner"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security BearerAuth
// @Router /teams/{team_id} [patch]
func (tc *TeamController) RenameTeam(c *gin.Context) {
	principal, err := common.GetPrincipal(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req RenameTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
		return
	}

	team, err := tc.service.Rename(c.Request.Context(), principal, c.Param("team_id"), req.Name)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team renamed successfully", team)
}
