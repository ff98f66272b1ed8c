package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/repository"
	"worktracker/internal/service"
)

type MemoHandler struct {
	scheduler *service.SchedulerService
	store     repository.Store
	logger    *zap.Logger
}

func NewMemoHandler(scheduler *service.SchedulerService, store repository.Store, logger *zap.Logger) *MemoHandler {
	return &MemoHandler{scheduler: scheduler, store: store, logger: logger}
}

// ListMemos returns the memos with dates inside [start, end].
func (h *MemoHandler) ListMemos(c *gin.Context) {
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

	memos, err := h.store.Memos().ListBetween(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("ListMemos: failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"memos": memos})
}

// UpsertMemo writes the memo for a date. Content that trims to empty
// deletes it; the response then carries a null memo.
func (h *MemoHandler) UpsertMemo(c *gin.Context) {
	date, ok := parseDateParam(c, c.Param("date"))
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	memo, err := h.scheduler.UpsertDailyMemo(c.Request.Context(), date, req.Content)
	if err != nil {
		h.logger.Error("UpsertMemo: failed", zap.String("date", date.String()), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"memo": memo})
}

func (h *MemoHandler) DeleteMemo(c *gin.Context) {
	date, ok := parseDateParam(c, c.Param("date"))
	if !ok {
		return
	}

	if err := h.scheduler.DeleteDailyMemo(c.Request.Context(), date); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
