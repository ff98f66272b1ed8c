package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"worktracker/internal/handler"
	"worktracker/pkg/metrics"
	"worktracker/pkg/mq"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Clients    *handler.ClientHandler
	Projects   *handler.ProjectHandler
	Milestones *handler.MilestoneHandler
	Schedules  *handler.ScheduleHandler
	Tasks      *handler.TaskHandler
	Memos      *handler.MemoHandler
	Calendar   *handler.CalendarHandler
}

func NewRouter(h Handlers, logger *zap.Logger, db *pgxpool.Pool, publisher *mq.Publisher, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), latency)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(RequireAuth(jwtSecret))

	api.GET("/clients", h.Clients.ListClients)
	api.POST("/clients", h.Clients.CreateClient)
	api.PUT("/clients/:id", h.Clients.UpdateClient)
	api.DELETE("/clients/:id", h.Clients.DeleteClient)

	api.GET("/projects", h.Projects.ListProjects)
	api.POST("/projects", h.Projects.CreateProject)
	api.PUT("/projects/:id", h.Projects.UpdateProject)
	api.DELETE("/projects/:id", h.Projects.DeleteProject)

	api.GET("/milestones", h.Milestones.ListMilestones)
	api.POST("/milestones", h.Milestones.CreateMilestone)
	api.PUT("/milestones/:id", h.Milestones.UpdateMilestone)
	api.DELETE("/milestones/:id", h.Milestones.DeleteMilestone)
	api.POST("/milestones/:id/toggle-status", h.Milestones.ToggleStatus)
	api.POST("/milestones/:id/toggle-review", h.Milestones.ToggleReview)

	api.GET("/schedules", h.Schedules.ListSchedules)
	api.POST("/schedules", h.Schedules.CreateSchedule)
	api.GET("/schedules/:id", h.Schedules.GetSchedule)
	api.PUT("/schedules/:id", h.Schedules.UpdateSchedule)
	api.DELETE("/schedules/:id", h.Schedules.DeleteSchedule)
	api.POST("/schedules/:id/move", h.Schedules.MoveSchedule)
	api.POST("/schedules/:id/toggle", h.Schedules.ToggleCompletion)
	api.POST("/schedules/:id/dates/:date/toggle", h.Schedules.ToggleDateCompletion)
	api.POST("/schedules/:id/tasks", h.Tasks.CreateTask)

	api.PUT("/tasks/:id", h.Tasks.UpdateTask)
	api.DELETE("/tasks/:id", h.Tasks.DeleteTask)
	api.POST("/tasks/:id/toggle", h.Tasks.ToggleCompletion)

	api.GET("/memos", h.Memos.ListMemos)
	api.PUT("/memos/:date", h.Memos.UpsertMemo)
	api.DELETE("/memos/:date", h.Memos.DeleteMemo)

	api.GET("/calendar", h.Calendar.View)
	api.GET("/calendar/navigate", h.Calendar.Navigate)
	api.GET("/progress", h.Calendar.ProgressSummary)

	return r
}
