package server

import (
	"net/http"

	"taskflow/backend/internal/config"
	"taskflow/backend/internal/handlers"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        cfg.MaxAge,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = cfg.AllowedOrigins
	return c
}

// NewRouter registers the REST API, health and metrics endpoints.
func NewRouter(app *App) *gin.Engine {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), middleware.RecoveryWithLog(), app.Monitor.Middleware(), cors.New(corsConfig(app.Config.CORS)))

	router.GET("/health", app.Monitor.HealthHandler())
	router.GET("/health/live", app.Monitor.LivenessHandler())
	router.GET("/health/ready", app.Monitor.ReadinessHandler())
	router.GET("/metrics", app.Monitor.MetricsHandler())

	api := router.Group("/api")
	if app.RateLimiter != nil {
		api.Use(app.RateLimiter.Middleware())
	}

	authHandler := handlers.NewAuthHandler(app.Auth)
	userHandler := handlers.NewUserHandler(app.Users)
	projectHandler := handlers.NewProjectHandler(app.Projects)
	taskHandler := handlers.NewTaskHandler(app.Tasks)
	commentHandler := handlers.NewCommentHandler(app.Comments)

	public := api.Group("/auth")
	{
		public.POST("/login", authHandler.Login)
		public.POST("/register", authHandler.Register)
		public.POST("/refresh", authHandler.Refresh)
		public.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := api.Group("", middleware.Authenticate(app.Tokens))
	admin := middleware.RequireRoles(models.RoleAdmin)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/auth/change-password", authHandler.ChangePassword)

	users := protected.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/count", userHandler.Count)
		users.GET("/me", userHandler.Me)
		users.GET("/lookup", userHandler.Lookup)
		users.GET("/exists", userHandler.Exists)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.POST("", admin, userHandler.Create)
		users.DELETE("/:id", admin, userHandler.Delete)
		users.POST("/:id/roles", admin, userHandler.AddRole)
		users.DELETE("/:id/roles/:role", admin, userHandler.RemoveRole)
	}

	accounts := protected.Group("/admin/accounts/:username", admin)
	{
		accounts.GET("", authHandler.AccountStatus)
		accounts.POST("/lock", authHandler.LockAccount())
		accounts.POST("/unlock", authHandler.UnlockAccount())
		accounts.POST("/enable", authHandler.EnableAccount())
		accounts.POST("/disable", authHandler.DisableAccount())
		accounts.DELETE("/attempts", authHandler.ResetFailedAttempts())
	}

	projects := protected.Group("/projects")
	{
		projects.GET("", projectHandler.List)
		projects.POST("", projectHandler.Create)
		projects.GET("/count", projectHandler.Count)
		projects.GET("/overdue", projectHandler.Overdue)
		projects.GET("/due", projectHandler.DueBetween)
		projects.GET("/search", projectHandler.Search)
		projects.GET("/statistics", projectHandler.Statistics)
		projects.GET("/:id", projectHandler.Get)
		projects.PUT("/:id", projectHandler.Update)
		projects.PATCH("/:id/status", projectHandler.UpdateStatus)
		projects.DELETE("/:id", projectHandler.Delete)
		projects.GET("/:id/members", projectHandler.Members)
		projects.POST("/:id/members", projectHandler.AddMembers)
		projects.DELETE("/:id/members", projectHandler.RemoveMembers)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/count", taskHandler.Count)
		tasks.GET("/overdue", taskHandler.Overdue)
		tasks.GET("/due", taskHandler.DueBetween)
		tasks.GET("/search", taskHandler.Search)
		tasks.GET("/statistics", taskHandler.Statistics)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
		tasks.PATCH("/:id/priority", taskHandler.UpdatePriority)
		tasks.PUT("/:id/assignee", taskHandler.Assign)
		tasks.DELETE("/:id/assignee", taskHandler.Unassign)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	comments := protected.Group("/comments")
	{
		comments.GET("", commentHandler.List)
		comments.POST("", commentHandler.Create)
		comments.GET("/count", commentHandler.Count)
		comments.GET("/:id", commentHandler.Get)
		comments.PUT("/:id", commentHandler.Update)
		comments.DELETE("/:id", commentHandler.Delete)
		comments.GET("/:id/permissions", commentHandler.Permissions)
	}

	return router
}
