package handler

import (
	"net/http"
	"strconv"

	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdvancedHandler serves statistics and cross-entity search.
type AdvancedHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewAdvancedHandler(svc *service.Service, logger *zap.Logger) *AdvancedHandler {
	return &AdvancedHandler{svc: svc, logger: logger}
}

// Statistics GET /api/advanced/stats?project_id=&time_range=
func (h *AdvancedHandler) Statistics(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}

	q := service.StatsQuery{TimeRange: c.Query("time_range")}
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		q.ProjectID = &id
	}

	stats, err := h.svc.Statistics(c.Request.Context(), uid, q)
	if err != nil {
		writeError(c, h.logger, "Statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Performance GET /api/advanced/performance?time_range=
func (h *AdvancedHandler) Performance(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}

	perf, err := h.svc.Performance(c.Request.Context(), uid, c.Query("time_range"))
	if err != nil {
		writeError(c, h.logger, "Performance", err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

// Search GET /api/advanced/search?q=&type=
func (h *AdvancedHandler) Search(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}

	res, err := h.svc.Search(c.Request.Context(), uid, c.Query("q"), c.Query("type"))
	if err != nil {
		writeError(c, h.logger, "Search", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
