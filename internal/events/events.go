// Package events 定义发布到 "events" 交换机的领域事件及其发布者
package events

import (
	"encoding/json"
	"time"
)

// 路由键
const (
	ProjectCreated         = "project.created"
	ProjectUpdated         = "project.updated"
	ProjectDeleted         = "project.deleted"
	ProjectProgressUpdated = "project.progress_updated"
	TaskCreated            = "task.created"
	TaskStatusChanged      = "task.status_changed"
	TaskDeleted            = "task.deleted"
)

// Envelope 通用事件外层，Type 与 routing key 一致
type Envelope struct {
	Type       string          `json:"type"`
	TraceID    string          `json:"trace_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope 把 payload 序列化进信封
func NewEnvelope(eventType, traceID string, at time.Time, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:       eventType,
		TraceID:    traceID,
		OccurredAt: at,
		Data:       data,
	}, nil
}

// 项目事件 payload
type ProjectPayload struct {
	ProjectID    int64  `json:"project_id"`
	ActorID      int64  `json:"actor_id"`
	Name         string `json:"name,omitempty"`
	TasksDeleted int64  `json:"tasks_deleted,omitempty"`
}

// 任务事件 payload，From/To 仅在状态变更时出现
type TaskPayload struct {
	TaskID    int64  `json:"task_id"`
	ProjectID int64  `json:"project_id"`
	ActorID   int64  `json:"actor_id"`
	Title     string `json:"title,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// 进度变更 payload
type ProgressPayload struct {
	ProjectID int64 `json:"project_id"`
	Progress  int   `json:"progress"`
}
