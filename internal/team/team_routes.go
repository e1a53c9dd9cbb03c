package team

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	mw "github.com/fivestack-gg/fivestack/internal/middleware"
	"github.com/fivestack-gg/fivestack/internal/roster"
	"github.com/fivestack-gg/fivestack/internal/ws"
)

// TeamRoutes sets up all team-related routes
func TeamRoutes(router *gin.RouterGroup, engine *roster.Engine, hub *ws.Hub, jwtSecret string, logger *slog.Logger) {
	teamController := NewTeamController(engine, hub, logger)

	// Public read-only routes
	router.GET("/teams", teamController.ListTeams)
	router.GET("/teams/:team_id", teamController.GetTeam)
	router.GET("/teams/:team_id/events", teamController.StreamTeamEvents)

	// Authenticated roster operations
	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(jwtSecret))
	{
		authRoutes.POST("/teams", teamController.CreateTeam)
		authRoutes.POST("/teams/:team_id/join", teamController.JoinTeam)
		authRoutes.POST("/teams/:team_id/invite", teamController.InviteToTeam)
		authRoutes.POST("/teams/:team_id/leave", teamController.LeaveTeam)
		authRoutes.DELETE("/teams/:team_id", teamController.DisbandTeam)
	}
}
