package httpserver

import (
	"context"
	"net/http"
	"time"

	"taskmaster/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Auth     *handler.AuthHandler
	Project  *handler.ProjectHandler
	Task     *handler.TaskHandler
	User     *handler.UserHandler
	Advanced *handler.AdvancedHandler
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	JWTSecret string
	Logger    *zap.Logger
	Readiness []ReadinessCheck

	// Idempotency-Key checks are skipped when nil.
	Idempotency KeyLocker
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(opts.Logger))

	// Health endpoints first
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for _, rc := range opts.Readiness {
			if err := rc.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": rc.Name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	// Protected
	auth := api.Group("/")
	auth.Use(AuthMiddleware(opts.JWTSecret))
	if opts.Idempotency != nil {
		auth.Use(IdempotencyMiddleware(opts.Idempotency))
	}
	{
		auth.GET("/auth/profile", h.Auth.Profile)

		auth.GET("/projects", h.Project.ListProjects)
		auth.POST("/projects", h.Project.CreateProject)
		auth.GET("/projects/:id", h.Project.GetProject)
		auth.PUT("/projects/:id", h.Project.UpdateProject)
		auth.DELETE("/projects/:id", h.Project.DeleteProject)
		auth.POST("/projects/:id/team", h.Project.AddTeamMember)
		auth.DELETE("/projects/:id/team/:userId", h.Project.RemoveTeamMember)
		auth.POST("/projects/:id/milestones", h.Project.AddMilestone)

		auth.GET("/tasks", h.Task.ListTasks)
		auth.POST("/tasks", h.Task.CreateTask)
		auth.GET("/tasks/:id", h.Task.GetTask)
		auth.PUT("/tasks/:id", h.Task.UpdateTask)
		auth.DELETE("/tasks/:id", h.Task.DeleteTask)
		auth.POST("/tasks/:id/comments", h.Task.AddComment)
		auth.POST("/tasks/:id/subtasks", h.Task.AddSubtask)
		auth.PUT("/tasks/:id/subtasks/:subtaskId", h.Task.ToggleSubtask)

		auth.GET("/users", h.User.ListUsers)
		auth.GET("/users/stats", h.User.UserStats)
		auth.GET("/users/:id", h.User.GetUser)

		auth.GET("/advanced/stats", h.Advanced.Statistics)
		auth.GET("/advanced/search", h.Advanced.Search)
		auth.GET("/advanced/performance", h.Advanced.Performance)
	}

	return r
}
