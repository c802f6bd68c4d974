package device

import (
	"github.com/gin-gonic/gin"
)

// RegisterDeviceRoutes expects router to already carry the auth middleware.
func RegisterDeviceRoutes(router *gin.RouterGroup, service *Service) {
	deviceController := NewDeviceController(service)

	devices := router.Group("/me/devices")
	{
		devices.GET("", deviceController.ListDevices)
		devices.POST("/virtual/generate", deviceController.GenerateVirtualSteps)
		devices.PUT("/:provider", deviceController.LinkDevice)
		devices.DELETE("/:provider", deviceController.UnlinkDevice)
		devices.POST("/:provider/sync", deviceController.SyncDevice)
	}
}

// RegisterCronRoutes mounts scheduler endpoints; guard is the shared-secret
// middleware.
func RegisterCronRoutes(router *gin.RouterGroup, service *Service, guard gin.HandlerFunc) {
	deviceController := NewDeviceController(service)

	cron := router.Group("/cron")
	cron.Use(guard)
	{
		cron.POST("/sync-devices", deviceController.SyncAllDevices)
	}
}
