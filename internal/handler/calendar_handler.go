package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worktracker/internal/calendar"
	"worktracker/internal/model"
	"worktracker/internal/service"
)

type CalendarHandler struct {
	scheduler *service.SchedulerService
	progress  *service.ProgressService
	logger    *zap.Logger
}

func NewCalendarHandler(scheduler *service.SchedulerService, progress *service.ProgressService, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{scheduler: scheduler, progress: progress, logger: logger}
}

// View returns everything placed on the visible range: per-day events,
// task lane, due tasks and memos, plus the month grid in month mode.
// Defaults are today and week mode.
func (h *CalendarHandler) View(c *gin.Context) {
	ref := model.Today()
	if raw := c.Query("date"); raw != "" {
		var ok bool
		if ref, ok = parseDateParam(c, raw); !ok {
			return
		}
	}

	mode := calendar.ModeWeek
	if raw := c.Query("mode"); raw != "" {
		if !calendar.ValidMode(raw) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be week or month"})
			return
		}
		mode = calendar.Mode(raw)
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

	view, err := h.scheduler.CalendarViewFor(c.Request.Context(), ref, mode, clientID)
	if err != nil {
		h.logger.Error("View: failed",
			zap.String("date", ref.String()),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Navigate resolves the reference date one step forward or backward in the
// given mode. Week mode steps seven days; month mode clamps the day of
// month into the target month.
func (h *CalendarHandler) Navigate(c *gin.Context) {
	ref, ok := parseDateParam(c, c.Query("date"))
	if !ok {
		return
	}

	raw := c.Query("mode")
	if !calendar.ValidMode(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be week or month"})
		return
	}
	mode := calendar.Mode(raw)

	delta, err := strconv.Atoi(c.DefaultQuery("delta", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delta"})
		return
	}

	next := calendar.Navigate(ref, mode, delta)
	c.JSON(http.StatusOK, gin.H{
		"date":  next,
		"range": calendar.RangeFor(next, mode),
	})
}

// ProgressSummary returns the aggregated client progress, overdue groups
// and the upcoming-focus clusters.
func (h *CalendarHandler) ProgressSummary(c *gin.Context) {
	summary, err := h.progress.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("ProgressSummary: failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
