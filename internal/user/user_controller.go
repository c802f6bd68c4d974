package user

import (
	"net/http"

	"github.com/DhavalSuthar-24/stepsquad/internal/common"
	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
	"github.com/DhavalSuthar-24/stepsquad/pkg/responses"
	"github.com/gin-gonic/gin"
)

// UserController handles user-related HTTP requests
type UserController struct {
	repo UserRepository
}

// NewUserController creates a new user controller
func NewUserController(repo UserRepository) *UserController {
	return &UserController{repo: repo}
}

// GetMe godoc
// @Summary Current user
// @Description Returns the authenticated user, creating the record on first call.
// @Tags Users
// @Produce json
// @Success 200 {object} User
// @Failure 401 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (uc *UserController) GetMe(c *gin.Context) {
	principal, err := common.GetPrincipal(c)
	if err != nil {
		responses.Unauthorized(c, "User not authenticated")
		return
	}
	u, err := uc.repo.GetUserByID(c.Request.Context(), principal.UserID)
	if err != nil {
		responses.InternalServerError(c, "Failed to load user")
		return
	}
	if u == nil {
		responses.NotFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

// GetAllUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} responses.RowsResponse{rows=[]User}
// @Failure 403 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := uc.repo.GetAllUsers(c.Request.Context())
	if err != nil {
		responses.InternalServerError(c, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, responses.RowsResponse{Rows: users})
}

// GetUserByID godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} User
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /users/{uid} [get]
func (uc *UserController) GetUserByID(c *gin.Context) {
	u, err := uc.repo.GetUserByID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		responses.InternalServerError(c, "Failed to load user")
		return
	}
	if u == nil {
		responses.NotFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Tags Users
// @Produce json
// @Param uid path string true "User ID"
// @Param role query string true "ADMIN or MEMBER"
// @Success 200 {object} User
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /users/{uid} [patch]
func (uc *UserController) UpdateUserRole(c *gin.Context) {
	role, ok := identity.ParseRole(c.Query("role"))
	if !ok {
		responses.BadRequest(c, "role must be ADMIN or MEMBER")
		return
	}
	u, err := uc.repo.SetRole(c.Request.Context(), c.Param("uid"), role)
	if err != nil {
		responses.InternalServerError(c, "Failed to update role")
		return
	}
	if u == nil {
		responses.NotFound(c, "User")
		return
	}
	c.JSON(http.StatusOK, u)
}
