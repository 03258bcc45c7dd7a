package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"taskmaster/internal/handler"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/trace"
	"taskmaster/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyHeader 客户端为写请求指定的幂等键
const IdempotencyHeader = "Idempotency-Key"

// KeyLocker 由 *util.Deduper 实现
type KeyLocker interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string)
}

var _ KeyLocker = (*util.Deduper)(nil)

// TraceMiddleware 为每个请求注入 trace_id，并回写到响应头
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

// RequestLogMiddleware 记录请求日志与延迟指标
func RequestLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(status), latency)

		logger.Info("HTTP Request",
			zap.String("trace_id", trace.FromContext(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// AuthMiddleware 校验 Bearer JWT，并把 user_id 写入 gin context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		userID, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(handler.ContextUserID, userID)
		c.Next()
	}
}

// IdempotencyMiddleware 同一用户、同一路由重复出现的 Idempotency-Key 返回 409；
// 请求失败时释放该键，允许客户端重试
func IdempotencyMiddleware(locker KeyLocker) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		userID, _ := c.Get(handler.ContextUserID)
		scope := fmt.Sprintf("%v:%s:%s", userID, c.Request.Method, c.Request.URL.Path)
		ctx := c.Request.Context()

		if !locker.AcquireOnce(ctx, scope, key) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			locker.Release(ctx, scope, key)
		}
	}
}
