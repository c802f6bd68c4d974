package steps

import (
	"github.com/gin-gonic/gin"
)

// RegisterStepRoutes expects router to already carry the auth middleware.
func RegisterStepRoutes(router *gin.RouterGroup, engine *Engine) {
	stepController := NewStepController(engine)

	router.POST("/ingest/steps", stepController.IngestSteps)
	router.GET("/me/steps", stepController.GetMySteps)
}
