package competition

import (
	"net/http"
	"strings"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/pkg/responses"
	"github.com/DhavalSuthar-24/stepsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

// CompetitionController handles competition-related HTTP requests
type CompetitionController struct {
	service *Service
}

// NewCompetitionController creates a new competition controller
func NewCompetitionController(service *Service) *CompetitionController {
	return &CompetitionController{service: service}
}

// --- DTOs for requests ---

type CreateCompetitionRequest struct {
	CompID               string  `json:"comp_id" binding:"required,max=64"`
	Name                 string  `json:"name" binding:"required,min=3,max=100"`
	Timezone             string  `json:"tz"`
	RegistrationOpenDate string  `json:"registration_open_date" binding:"required,datetime=2006-01-02"`
	StartDate            string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate              string  `json:"end_date" binding:"required,datetime=2006-01-02"`
	MaxTeams             int     `json:"max_teams" binding:"gte=0"`
	MaxMembersPerTeam    int     `json:"max_members_per_team" binding:"gte=0"`
	Status               *Status `json:"status" binding:"omitempty,oneof=DRAFT REGISTRATION ACTIVE ENDED ARCHIVED"`
}

type UpdateCompetitionRequest struct {
	Name                 *string `json:"name" binding:"omitempty,min=3,max=100"`
	Timezone             *string `json:"tz"`
	RegistrationOpenDate *string `json:"registration_open_date" binding:"omitempty,datetime=2006-01-02"`
	StartDate            *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate              *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	MaxTeams             *int    `json:"max_teams" binding:"omitempty,gte=0"`
	MaxMembersPerTeam    *int    `json:"max_members_per_team" binding:"omitempty,gte=0"`
	Status               *Status `json:"status" binding:"omitempty,oneof=DRAFT REGISTRATION ACTIVE ENDED ARCHIVED"`
}

// CreateCompetition godoc
// @Summary Create a competition
// @Description Creates a competition. Status defaults to DRAFT and is advanced by the dates unless given explicitly.
// @Tags Competitions
// @Accept json
// @Produce json
// @Param competition body CreateCompetitionRequest true "Competition data"
// @Success 201 {object} responses.SuccessResponse{data=Competition}
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 409 {object} responses.ErrorResponse "Duplicate comp_id"
// @Failure 422 {object} responses.ErrorResponse "Dates out of order"
// @Security BearerAuth
// @Router /competitions [post]
func (cc *CompetitionController) CreateCompetition(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
		return
	}

	comp, err := cc.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Competition created successfully", comp)
}

// GetCompetitionByID godoc
// @Summary Get a competition
// @Tags Competitions
// @Produce json
// @Param comp_id path string true "Competition ID"
// @Success 200 {object} responses.SuccessResponse{data=Competition}
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Security BearerAuth
// @Router /competitions/{comp_id} [get]
func (cc *CompetitionController) GetCompetitionByID(c *gin.Context) {
	comp, err := cc.service.Get(c.Request.Context(), c.Param("comp_id"))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Competition retrieved successfully", comp)
}

// GetAllCompetitions godoc
// @Summary List competitions
// @Tags Competitions
// @Produce json
// @Param status query string false "Filter by current status"
// @Success 200 {object} responses.SuccessResponse{data=[]Competition}
// @Failure 400 {object} responses.ErrorResponse "Unknown status"
// @Security BearerAuth
// @Router /competitions [get]
func (cc *CompetitionController) GetAllCompetitions(c *gin.Context) {
	status := Status(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		responses.BadRequest(c, "Unknown status filter")
		return
	}

	comps, err := cc.service.List(c.Request.Context(), status)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Competitions retrieved successfully", comps)
}

// UpdateCompetition godoc
// @Summary Update a competition
// @Tags Competitions
// @Accept json
// @Produce json
// @Param comp_id path string true "Competition ID"
// @Param competition body UpdateCompetitionRequest true "Fields to change"
// @Success 200 {object} responses.SuccessResponse{data=Competition}
// @Failure 400 {object} responses.ErrorResponse "Invalid input"
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Failure 422 {object} responses.ErrorResponse "Dates out of order"
// @Security BearerAuth
// @Router /competitions/{comp_id} [patch]
func (cc *CompetitionController) UpdateCompetition(c *gin.Context) {
	var req UpdateCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
		return
	}

	comp, err := cc.service.Update(c.Request.Context(), c.Param("comp_id"), req)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Competition updated successfully", comp)
}

// DeleteCompetition godoc
// @Summary Archive a competition
// @Description Soft delete: the competition moves to ARCHIVED and stays readable.
// @Tags Competitions
// @Produce json
// @Param comp_id path string true "Competition ID"
// @Success 200 {object} responses.SuccessResponse{data=Competition}
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Security BearerAuth
// @Router /competitions/{comp_id} [delete]
func (cc *CompetitionController) DeleteCompetition(c *gin.Context) {
	comp, err := cc.service.Archive(c.Request.Context(), c.Param("comp_id"))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Competition archived successfully", comp)
}
