package handler

import (
	"errors"
	"net/http"
	"strconv"

	"taskmaster/internal/service"
	"taskmaster/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextUserID is the gin context key the auth middleware stores the
// authenticated user id (int64) under.
const ContextUserID = "user_id"

// requesterID reads the user id stored by the auth middleware.
func requesterID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return 0, false
	}
	id, ok := v.(int64)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return id, true
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// bindJSON writes a 400 when the body does not match the request struct.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	var (
		validation *service.ValidationError
		transition *service.InvalidTransitionError
		forbidden  *service.ForbiddenError
		notFound   *service.NotFoundError
		conflict   *service.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": transition.Error(),
			"from":  transition.From,
			"to":    transition.To,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		logger.WithTrace(c.Request.Context(), log).Error(op+": failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
