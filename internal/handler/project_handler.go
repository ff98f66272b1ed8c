package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/model"
	"worktracker/internal/repository"
)

type ProjectHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewProjectHandler(store repository.Store, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, logger: logger}
}

type projectRequest struct {
	ClientID    int64  `json:"client_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	OrderIndex  int    `json:"order_index"`
}

func (req *projectRequest) validate() (string, bool) {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required", false
	}
	if req.Status == "" {
		req.Status = model.ProjectActive
	}
	if !model.ValidProjectStatus(req.Status) {
		return "unknown project status " + strconv.Quote(req.Status), false
	}
	return "", true
}

// ListProjects returns every project, or one client's when ?client_id is
// given.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("client_id"); raw != "" {
		clientID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
			return
		}
		projects, err := h.store.Projects().ListByClient(ctx, clientID)
		if err != nil {
			h.logger.Error("ListProjects: failed", zap.Int64("client_id", clientID), zap.Error(err))
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects})
		return
	}

	projects, err := h.store.Projects().List(ctx)
	if err != nil {
		h.logger.Error("ListProjects: failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if msg, ok := req.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Clients().GetByID(ctx, req.ClientID); err != nil {
		respondError(c, err)
		return
	}

	project := &model.Project{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		OrderIndex:  req.OrderIndex,
	}
	id, err := h.store.Projects().Insert(ctx, project)
	if err != nil {
		h.logger.Error("CreateProject: failed", zap.Error(err))
		respondError(c, err)
		return
	}

	created, err := h.store.Projects().GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("CreateProject: success", zap.Int64("project_id", id))
	c.JSON(http.StatusCreated, gin.H{"project": created})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if msg, ok := req.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	project, err := h.store.Projects().GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	project.Name = req.Name
	project.Description = req.Description
	project.Status = req.Status
	project.OrderIndex = req.OrderIndex

	if err := h.store.Projects().Update(ctx, project); err != nil {
		h.logger.Error("UpdateProject: failed", zap.Int64("project_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject cascades to the project's milestones.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.Projects().Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("DeleteProject: failed", zap.Int64("project_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	h.logger.Info("DeleteProject: success", zap.Int64("project_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
