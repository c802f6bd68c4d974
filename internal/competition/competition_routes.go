package competition

import (
	"github.com/DhavalSuthar-24/stepsquad/pkg/rmiddleware"
	"github.com/gin-gonic/gin"
)

// RegisterCompetitionRoutes expects router to already carry the auth middleware.
func RegisterCompetitionRoutes(router *gin.RouterGroup, service *Service) {
	competitionController := NewCompetitionController(service)

	router.GET("/competitions", competitionController.GetAllCompetitions)
	router.GET("/competitions/:comp_id", competitionController.GetCompetitionByID)

	adminRoutes := router.Group("/competitions")
	adminRoutes.Use(rmiddleware.AdminMiddleware())
	{
		adminRoutes.POST("", competitionController.CreateCompetition)
		adminRoutes.PATCH("/:comp_id", competitionController.UpdateCompetition)
		adminRoutes.DELETE("/:comp_id", competitionController.DeleteCompetition)
	}
}
