package handler

import (
	"net/http"

	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewUserHandler(svc *service.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type listUsersQuery struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ListUsers GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": err.Error()})
		return
	}

	page, err := h.svc.ListUsers(c.Request.Context(), service.UserQuery{
		Search: q.Search,
		Role:   q.Role,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		writeError(c, h.logger, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UserStats GET /api/users/stats
func (h *UserHandler) UserStats(c *gin.Context) {
	stats, err := h.svc.UserStats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "UserStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetUser GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "GetUser", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
