package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/model"
	"worktracker/internal/repository"
	"worktracker/internal/service"
	"worktracker/pkg/util"
)

type ScheduleHandler struct {
	scheduler *service.SchedulerService
	store     repository.Store
	guard     *util.OnceGuard
	logger    *zap.Logger
}

func NewScheduleHandler(scheduler *service.SchedulerService, store repository.Store, guard *util.OnceGuard, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, store: store, guard: guard, logger: logger}
}

// ListSchedules returns schedules overlapping [start, end], optionally
// restricted to one client.
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	start, ok := parseDateParam(c, c.Query("start"))
	if !ok {
		return
	}
	end, ok := parseDateParam(c, c.Query("end"))
	if !ok {
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end is before start"})
		return
	}

	var clientID *int64
	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
			return
		}
		clientID = &id
	}

	schedules, err := h.store.Schedules().ListOverlapping(c.Request.Context(), start, end, clientID)
	if err != nil {
		h.logger.Error("ListSchedules: failed",
			zap.String("start", start.String()),
			zap.String("end", end.String()),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// GetSchedule returns one schedule with its task rows.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sched, err := h.store.Schedules().GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	tasks, err := h.store.Tasks().ListBySchedule(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched, "tasks": tasks})
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var in service.ScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("CreateSchedule: malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sched, err := h.scheduler.CreateSchedule(c.Request.Context(), &in)
	if err != nil {
		h.logger.Warn("CreateSchedule: rejected", zap.Error(err))
		respondError(c, err)
		return
	}

	h.logger.Info("CreateSchedule: success", zap.Int64("schedule_id", sched.ID))
	c.JSON(http.StatusCreated, gin.H{"schedule": sched})
}

func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var in service.ScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("UpdateSchedule: malformed body", zap.Int64("schedule_id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sched, err := h.scheduler.UpdateSchedule(c.Request.Context(), id, &in)
	if err != nil {
		h.logger.Warn("UpdateSchedule: rejected", zap.Int64("schedule_id", id), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.scheduler.DeleteSchedule(c.Request.Context(), id); err != nil {
		h.logger.Warn("DeleteSchedule: failed", zap.Int64("schedule_id", id), zap.Error(err))
		respondError(c, err)
		return
	}

	h.logger.Info("DeleteSchedule: success", zap.Int64("schedule_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ScheduleHandler) MoveSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		NewDate model.Date `json:"new_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sched, err := h.scheduler.MoveSchedule(c.Request.Context(), id, req.NewDate)
	if err != nil {
		h.logger.Warn("MoveSchedule: rejected",
			zap.Int64("schedule_id", id),
			zap.String("new_date", req.NewDate.String()),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

// ToggleCompletion flips overall completion. Duplicate submissions inside
// the guard window get a 409 instead of double-toggling.
func (h *ScheduleHandler) ToggleCompletion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if !h.guard.Acquire(ctx, "toggle_schedule", id) {
		c.JSON(http.StatusConflict, gin.H{"error": "toggle already in progress"})
		return
	}
	defer h.guard.Release(ctx, "toggle_schedule", id)

	sched, err := h.scheduler.ToggleScheduleCompletion(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

// ToggleDateCompletion flips one date of a multi-day span.
func (h *ScheduleHandler) ToggleDateCompletion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, c.Param("date"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if !h.guard.Acquire(ctx, "toggle_schedule_date", id) {
		c.JSON(http.StatusConflict, gin.H{"error": "toggle already in progress"})
		return
	}
	defer h.guard.Release(ctx, "toggle_schedule_date", id)

	sched, err := h.scheduler.ToggleScheduleDateCompletion(ctx, id, date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}
