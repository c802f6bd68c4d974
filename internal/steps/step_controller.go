package steps

import (
	"net/http"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/pkg/responses"
	"github.com/DhavalSuthar-24/stepsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

// IdempotencyHeader may carry the key instead of the body field.
const IdempotencyHeader = "Idempotency-Key"

// StepController handles step ingestion and history requests
type StepController struct {
	engine *Engine
}

func NewStepController(engine *Engine) *StepController {
	return &StepController{engine: engine}
}

type IngestStepsRequest struct {
	CompID         string `json:"comp_id" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Steps          *int   `json:"steps" binding:"required"`
	Provider       string `json:"provider" binding:"omitempty,max=32"`
	Timezone       string `json:"tz"`
	SourceTS       string `json:"source_ts"`
	IdempotencyKey string `json:"idempotency_key" binding:"omitempty,max=200"`
}

// IngestSteps godoc
// @Summary Submit a daily step count
// @Description Records steps for the caller in an ACTIVE competition. The stored value is the highest count reported for the day.
// @Tags Steps
// @Accept json
// @Produce json
// @Param submission body IngestStepsRequest true "Step submission"
// @Param Idempotency-Key header string false "Client generated key, alternative to the body field"
// @Success 201 {object} responses.SuccessResponse{data=Receipt}
// @Failure 400 {object} responses.ErrorResponse "Invalid date, steps or status"
// @Failure 403 {object} responses.ErrorResponse "Not on a team in the competition"
// @Failure 404 {object} responses.ErrorResponse "Competition not found"
// @Failure 409 {object} responses.ErrorResponse "Duplicate idempotency key"
// @Security BearerAuth
// @Router /ingest/steps [post]
func (sc *StepController) IngestSteps(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req IngestStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader(IdempotencyHeader)
	}
	provider := req.Provider
	if provider == "" {
		provider = "manual"
	}

	receipt, err := sc.engine.Submit(c.Request.Context(), Submission{
		UserID:         userID,
		CompID:         req.CompID,
		Date:           req.Date,
		Steps:          *req.Steps,
		Provider:       provider,
		Timezone:       req.Timezone,
		SourceTS:       req.SourceTS,
		IdempotencyKey: key,
		Mode:           ModeNormal,
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Steps accepted", receipt)
}

// GetMySteps godoc
// @Summary Step history of the caller
// @Tags Steps
// @Produce json
// @Param date query string false "Exact date, overrides the range"
// @Param start_date query string false "Range start (inclusive)"
// @Param end_date query string false "Range end (inclusive)"
// @Success 200 {object} responses.SuccessResponse{data=[]Record}
// @Failure 400 {object} responses.ErrorResponse "Invalid date"
// @Security BearerAuth
// @Router /me/steps [get]
func (sc *StepController) GetMySteps(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var f DateFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid query parameters", validator.ParseError(err))
		return
	}
	recs, err := sc.engine.History(c.Request.Context(), userID, f)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Step history retrieved successfully", recs)
}
