package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"operation"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 任务状态流转计数
	TaskTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_status_transition_count",
			Help: "Task status transition attempts",
		},
		[]string{"from", "to", "result"}, // result: accepted, rejected
	)

	// 项目进度重算计数
	ProgressRecalculationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_progress_recalculation_count",
			Help: "Project progress recalculations",
		},
		[]string{"status"}, // status: success, failed
	)

	// 事件发布计数
	EventPublishedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_published_count",
			Help: "Domain events handed to the message broker",
		},
		[]string{"routing_key", "status"}, // status: success, failed, dropped
	)
)

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery(operation string) {
	SlowQueryCount.WithLabelValues(operation).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementTaskTransition 记录一次状态流转尝试
func IncrementTaskTransition(from, to string, accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	TaskTransitionCount.WithLabelValues(from, to, result).Inc()
}

// IncrementProgressRecalculation 记录一次进度重算
func IncrementProgressRecalculation(status string) {
	ProgressRecalculationCount.WithLabelValues(status).Inc()
}

// IncrementEventPublished 记录一次事件发布
func IncrementEventPublished(routingKey, status string) {
	EventPublishedCount.WithLabelValues(routingKey, status).Inc()
}
