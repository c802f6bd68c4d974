package device

import (
	"net/http"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/pkg/responses"
	"github.com/DhavalSuthar-24/stepsquad/pkg/validator"
	"github.com/gin-gonic/gin"
)

type DeviceController struct {
	service *Service
}

func NewDeviceController(service *Service) *DeviceController {
	return &DeviceController{service: service}
}

// --- DTOs for requests ---

type LinkDeviceRequest struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

type SyncDeviceRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type GenerateVirtualRequest struct {
	Date  string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Steps *int   `json:"steps" binding:"omitempty,gte=0,lte=100000"`
}

// ListDevices godoc
// @Summary Linked devices of the caller
// @Tags Devices
// @Produce json
// @Success 200 {object} responses.SuccessResponse{data=[]LinkView}
// @Security BearerAuth
// @Router /me/devices [get]
func (dc *DeviceController) ListDevices(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
	views, err := dc.service.List(c.Request.Context(), userID)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Devices retrieved successfully", views)
}

// LinkDevice godoc
// @Summary Link a device
// @Description Stores tokens from a completed OAuth exchange. The virtual device needs none.
// @Tags Devices
// @Accept json
// @Produce json
// @Param provider path string true "fitbit or virtual"
// @Param tokens body LinkDeviceRequest false "OAuth tokens"
// @Success 200 {object} responses.SuccessResponse{data=LinkView}
// @Failure 400 {object} responses.ErrorResponse "Unknown provider or missing token"
// @Security BearerAuth
// @Router /me/devices/{provider} [put]
func (dc *DeviceController) LinkDevice(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req LinkDeviceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
			return
		}
	}
	tok := Token{AccessToken: req.AccessToken, RefreshToken: req.RefreshToken}
	if req.ExpiresAt != nil {
		tok.ExpiresAt = *req.ExpiresAt
	}

	link, err := dc.service.Link(c.Request.Context(), userID, c.Param("provider"), tok)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Device linked successfully", link.View())
}

// UnlinkDevice godoc
// @Summary Unlink a device
// @Tags Devices
// @Produce json
// @Param provider path string true "Provider"
// @Success 200 {object} responses.SuccessResponse
// @Failure 404 {object} responses.ErrorResponse "Not linked"
// @Security BearerAuth
// @Router /me/devices/{provider} [delete]
func (dc *DeviceController) UnlinkDevice(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
	if err := dc.service.Unlink(c.Request.Context(), userID, c.Param("provider")); err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Device unlinked successfully", nil)
}

// SyncDevice godoc
// @Summary Sync one device now
// @Description Fetches the day's steps (yesterday by default) and submits them to every eligible competition.
// @Tags Devices
// @Accept json
// @Produce json
// @Param provider path string true "Provider"
// @Param request body SyncDeviceRequest false "Date to sync"
// @Success 200 {object} responses.SuccessResponse{data=SyncResult}
// @Failure 404 {object} responses.ErrorResponse "Not linked"
// @Failure 502 {object} responses.ErrorResponse "Provider failure"
// @Security BearerAuth
// @Router /me/devices/{provider}/sync [post]
func (dc *DeviceController) SyncDevice(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req SyncDeviceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
			return
		}
	}

	result, err := dc.service.Sync(c.Request.Context(), userID, c.Param("provider"), req.Date)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Device synced successfully", result)
}

// GenerateVirtualSteps godoc
// @Summary Generate virtual steps
// @Description Demo path: submits a random (or given) count that overwrites the stored value.
// @Tags Devices
// @Accept json
// @Produce json
// @Param request body GenerateVirtualRequest false "Date and optional count"
// @Success 200 {object} responses.SuccessResponse{data=SyncResult}
// @Security BearerAuth
// @Router /me/devices/virtual/generate [post]
func (dc *DeviceController) GenerateVirtualSteps(c *gin.Context) {
	userID, err := common.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}

	var req GenerateVirtualRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.SendError(c, http.StatusBadRequest, "Invalid request payload", validator.ParseError(err))
			return
		}
	}

	result, err := dc.service.GenerateVirtual(c.Request.Context(), userID, req.Date, req.Steps)
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Virtual steps generated", result)
}

// SyncAllDevices godoc
// @Summary Scheduler entry point
// @Description Syncs every enabled device for yesterday (or ?date=). Guarded by the X-Cron-Secret header.
// @Tags Cron
// @Produce json
// @Param date query string false "Date to sync"
// @Param X-Cron-Secret header string true "Scheduler secret"
// @Success 200 {object} responses.SuccessResponse{data=RunSummary}
// @Failure 401 {object} responses.ErrorResponse "Bad secret"
// @Router /cron/sync-devices [post]
func (dc *DeviceController) SyncAllDevices(c *gin.Context) {
	summary, err := dc.service.SyncAll(c.Request.Context(), c.Query("date"))
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Device sync complete", summary)
}
