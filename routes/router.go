package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fivestack-gg/fivestack/config"
	"github.com/fivestack-gg/fivestack/internal/roster"
	"github.com/fivestack-gg/fivestack/internal/team"
	"github.com/fivestack-gg/fivestack/internal/ws"
)

// SetupRoutes assembles the gin engine over the roster engine and hub.
func SetupRoutes(cfg *config.Config, engine *roster.Engine, hub *ws.Hub, logger *slog.Logger) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default()) // allows all origins, GET/POST/PUT

	// Welcome page
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`
			<html>
				<head><title>fivestack</title></head>
				<body style="text-align:center; margin-top: 40px;">
					<h1>fivestack 🎮</h1>
					<p>Find four more. See <a href="/swagger/index.html">the API docs</a>.</p>
				</body>
			</html>
		`))
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	team.TeamRoutes(api, engine, hub, cfg.JWT.AccessTokenSecret, logger)

	return r
}
