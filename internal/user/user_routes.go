package user

import (
	"github.com/DhavalSuthar-24/stepsquad/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes expects router to already carry the auth middleware.
func RegisterUserRoutes(router *gin.RouterGroup, repo UserRepository) {
	userController := NewUserController(repo)

	router.GET("/me", userController.GetMe)

	adminUsers := router.Group("/users")
	adminUsers.Use(rmiddleware.AdminMiddleware())
	{
		adminUsers.GET("", userController.GetAllUsers)
		adminUsers.GET("/:uid", userController.GetUserByID)
		adminUsers.PATCH("/:uid", userController.UpdateUserRole)
	}
}
