package team

import (
	"github.com/gin-gonic/gin"
)

// TeamRoutes sets up all team-related routes. router must already carry the
// auth middleware; ownership checks happen in the service.
func TeamRoutes(router *gin.RouterGroup, service *Service) {
	teamController := NewTeamController(service)

	router.GET("/competitions/:comp_id/teams", teamController.GetCompetitionTeams)
	router.GET("/me/teams", teamController.GetMyTeams)

	router.POST("/teams", teamController.CreateTeam)
	router.GET("/teams/:team_id", teamController.GetTeamByID)
	router.PATCH("/teams/:team_id", teamController.RenameTeam)
	router.POST("/teams/:team_id/join", teamController.JoinTeam)
	router.POST("/teams/:team_id/leave", teamController.LeaveTeam)
}
