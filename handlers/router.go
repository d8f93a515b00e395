package handlers

import (
	"accident-dashboard-api/config"
	"accident-dashboard-api/middleware"
	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP API is built from.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Cache     *services.CacheService
	Auth      *services.AuthService
	Dataset   *services.DatasetService
	Sessions  *services.SessionStore
	Tasks     *services.TaskClient
	Assistant *services.Assistant
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	router := gin.New()
	router.Use(middleware.RequestLogger(d.Logger), middleware.Recovery(d.Logger), middleware.Metrics())
	router.Use(middleware.SetupCORS(cfg.CORS))

	accidentsH := NewAccidentsHandler(d.Dataset, d.Cache, cfg.Dataset.RootLabel, cfg.Dataset.CacheTTL, d.Logger)
	sessionsH := NewSessionHandler(d.Auth, d.Sessions, accidentsH)
	adminH := NewAdminHandler(d.Auth, d.Dataset)
	tasksH := NewTasksHandler(d.Tasks)
	assistantH := NewAssistantHandler(d.Assistant)

	router.GET("/health", Health(d.Dataset, d.Cache))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/dataset", DatasetWebSocket(d.Cache, d.Auth, d.Dataset, d.Logger))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/accidents", accidentsH.List)
		v1.GET("/accidents/options", accidentsH.Options)
		v1.GET("/accidents/summary", accidentsH.Summary)
		v1.GET("/accidents/export", accidentsH.Export)
		v1.GET("/charts/:view", accidentsH.Chart)

		v1.POST("/sessions", sessionsH.Create)
		session := v1.Group("/session", middleware.RequireAuth(d.Auth))
		session.GET("/filters", sessionsH.GetFilters)
		session.PUT("/filters", sessionsH.PutFilters)
		session.GET("/summary", sessionsH.Summary)
		session.GET("/charts/:view", sessionsH.Chart)

		v1.POST("/admin/login", adminH.Login)
		admin := v1.Group("/admin", middleware.RequireAuth(d.Auth), middleware.RequireRole(services.RoleAdmin))
		admin.POST("/reload", adminH.Reload)

		upstream := v1.Group("", middleware.RateLimit(cfg.Server.UpstreamRPS, cfg.Server.UpstreamBurst, d.Logger))
		upstream.GET("/tasks", tasksH.List)
		upstream.POST("/tasks", tasksH.Create)
		upstream.GET("/tasks/priorities", tasksH.Priorities)
		upstream.POST("/assistant", assistantH.Respond)
		v1.GET("/assistant/models", assistantH.Models)
	}

	return router
}
