package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/model"
	"worktracker/internal/repository"
)

type ClientHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewClientHandler(store repository.Store, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{store: store, logger: logger}
}

type clientRequest struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Icon       string `json:"icon"`
	OrderIndex int    `json:"order_index"`
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	clients, err := h.store.Clients().List(c.Request.Context())
	if err != nil {
		h.logger.Error("ListClients: failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	client := &model.Client{
		Name:       req.Name,
		Color:      req.Color,
		Icon:       req.Icon,
		OrderIndex: req.OrderIndex,
	}
	id, err := h.store.Clients().Insert(c.Request.Context(), client)
	if err != nil {
		h.logger.Error("CreateClient: failed", zap.Error(err))
		respondError(c, err)
		return
	}

	created, err := h.store.Clients().GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("CreateClient: success", zap.Int64("client_id", id))
	c.JSON(http.StatusCreated, gin.H{"client": created})
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	client, err := h.store.Clients().GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	client.Name = req.Name
	client.Color = req.Color
	client.Icon = req.Icon
	client.OrderIndex = req.OrderIndex

	if err := h.store.Clients().Update(c.Request.Context(), client); err != nil {
		h.logger.Error("UpdateClient: failed", zap.Int64("client_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// DeleteClient cascades to the client's projects and their milestones.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.Clients().Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("DeleteClient: failed", zap.Int64("client_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	h.logger.Info("DeleteClient: success", zap.Int64("client_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
