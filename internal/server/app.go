package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"healthmate/backend/internal/agent"
	"healthmate/backend/internal/config"
	"healthmate/backend/internal/store"
)

// App wires the router to its collaborators. Both the store and the agent
// invoker are injected so tests run against in-memory instances; there is no
// ambient global state.
type App struct {
	cfg   config.Config
	store store.Store
	ai    agent.Invoker
}

func New(cfg config.Config, st store.Store, ai agent.Invoker) *App {
	return &App{cfg: cfg, store: st, ai: ai}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(requestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", a.health)
	router.POST(a.cfg.APIPrefix+"/auth/token", a.issueToken)

	api := router.Group(a.cfg.APIPrefix)
	if a.cfg.AuthRequired {
		api.Use(a.authMiddleware())
	}

	api.POST("/run_agent", a.runAgent)
	api.GET("/users/:user_id/logs", a.listUserLogs)

	return router
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "healthmate-api",
	})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
