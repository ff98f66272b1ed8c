package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/model"
	"worktracker/internal/repository"
	"worktracker/internal/service"
	"worktracker/pkg/util"
)

// MilestoneHandler covers milestone CRUD plus the two lifecycle toggles.
// Status never changes through Update; the toggle endpoints are the only
// way to move a milestone along its cycle.
type MilestoneHandler struct {
	store     repository.Store
	scheduler *service.SchedulerService
	guard     *util.OnceGuard
	logger    *zap.Logger
}

func NewMilestoneHandler(store repository.Store, scheduler *service.SchedulerService, guard *util.OnceGuard, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{store: store, scheduler: scheduler, guard: guard, logger: logger}
}

type milestoneRequest struct {
	ProjectID   int64       `json:"project_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	TargetDate  *model.Date `json:"target_date,omitempty"`
	OrderIndex  int         `json:"order_index"`
}

func (h *MilestoneHandler) ListMilestones(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		milestones, err := h.store.Milestones().ListByProject(ctx, projectID)
		if err != nil {
			h.logger.Error("ListMilestones: failed", zap.Int64("project_id", projectID), zap.Error(err))
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"milestones": milestones})
		return
	}

	milestones, err := h.store.Milestones().List(ctx)
	if err != nil {
		h.logger.Error("ListMilestones: failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// CreateMilestone always starts the milestone at pending.
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Projects().GetByID(ctx, req.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	m := &model.Milestone{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      model.MilestonePending,
		TargetDate:  req.TargetDate,
		OrderIndex:  req.OrderIndex,
	}
	id, err := h.store.Milestones().Insert(ctx, m)
	if err != nil {
		h.logger.Error("CreateMilestone: failed", zap.Error(err))
		respondError(c, err)
		return
	}

	created, err := h.store.Milestones().GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("CreateMilestone: success", zap.Int64("milestone_id", id))
	c.JSON(http.StatusCreated, gin.H{"milestone": created})
}

func (h *MilestoneHandler) UpdateMilestone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.store.Milestones().GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	m.Name = req.Name
	m.Description = req.Description
	m.TargetDate = req.TargetDate
	m.OrderIndex = req.OrderIndex

	if err := h.store.Milestones().Update(ctx, m); err != nil {
		h.logger.Warn("UpdateMilestone: failed", zap.Int64("milestone_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestone": m})
}

func (h *MilestoneHandler) DeleteMilestone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.Milestones().Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("DeleteMilestone: failed", zap.Int64("milestone_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	h.logger.Info("DeleteMilestone: success", zap.Int64("milestone_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ToggleStatus advances the milestone one step along its lifecycle.
func (h *MilestoneHandler) ToggleStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if !h.guard.Acquire(ctx, "toggle_milestone", id) {
		c.JSON(http.StatusConflict, gin.H{"error": "toggle already in progress"})
		return
	}
	defer h.guard.Release(ctx, "toggle_milestone", id)

	m, err := h.scheduler.ToggleMilestoneStatus(ctx, id)
	if err != nil {
		h.logger.Warn("ToggleStatus: rejected", zap.Int64("milestone_id", id), zap.Error(err))
		respondError(c, err)
		return
	}

	h.logger.Info("ToggleStatus: success",
		zap.Int64("milestone_id", id),
		zap.String("status", m.Status),
	)
	c.JSON(http.StatusOK, gin.H{"milestone": m})
}

func (h *MilestoneHandler) ToggleReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if !h.guard.Acquire(ctx, "toggle_review", id) {
		c.JSON(http.StatusConflict, gin.H{"error": "toggle already in progress"})
		return
	}
	defer h.guard.Release(ctx, "toggle_review", id)

	m, err := h.scheduler.ToggleMilestoneReview(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": m})
}
