package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/model"
	"worktracker/internal/service"
	"worktracker/pkg/util"
)

type TaskHandler struct {
	scheduler *service.SchedulerService
	guard     *util.OnceGuard
	logger    *zap.Logger
}

func NewTaskHandler(scheduler *service.SchedulerService, guard *util.OnceGuard, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{scheduler: scheduler, guard: guard, logger: logger}
}

type taskRequest struct {
	Content    string      `json:"content"`
	Deadline   *model.Date `json:"deadline,omitempty"`
	OrderIndex int         `json:"order_index"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	scheduleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.scheduler.CreateTask(c.Request.Context(), scheduleID, req.Content, req.Deadline, req.OrderIndex)
	if err != nil {
		h.logger.Warn("CreateTask: rejected", zap.Int64("schedule_id", scheduleID), zap.Error(err))
		respondError(c, err)
		return
	}

	h.logger.Info("CreateTask: success",
		zap.Int64("schedule_id", scheduleID),
		zap.Int64("task_id", task.ID),
	)
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.scheduler.UpdateTask(c.Request.Context(), id, req.Content, req.Deadline, req.OrderIndex)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.scheduler.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *TaskHandler) ToggleCompletion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if !h.guard.Acquire(ctx, "toggle_task", id) {
		c.JSON(http.StatusConflict, gin.H{"error": "toggle already in progress"})
		return
	}
	defer h.guard.Release(ctx, "toggle_task", id)

	task, err := h.scheduler.ToggleTaskCompletion(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}
