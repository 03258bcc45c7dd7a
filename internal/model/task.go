package model

import "time"

// TaskStatus is a node of the task workflow; see package workflow for the edges.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskReview     TaskStatus = "review"
	TaskTesting    TaskStatus = "testing"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskTesting, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

// Task priorities. Tasks use "urgent" where projects use "critical".
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task types.
const (
	TaskTypeFeature       = "feature"
	TaskTypeBug           = "bug"
	TaskTypeImprovement   = "improvement"
	TaskTypeDocumentation = "documentation"
	TaskTypeTesting       = "testing"
)

func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

func ValidTaskType(t string) bool {
	switch t {
	case TaskTypeFeature, TaskTypeBug, TaskTypeImprovement, TaskTypeDocumentation, TaskTypeTesting:
		return true
	}
	return false
}

type Task struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ProjectID      int64      `json:"project_id"`
	AssigneeID     *int64     `json:"assignee_id,omitempty"`
	ReporterID     int64      `json:"reporter_id"`
	Status         TaskStatus `json:"status"`
	Priority       string     `json:"priority"`
	Type           string     `json:"type"`
	EstimatedHours *int       `json:"estimated_hours,omitempty"`
	ActualHours    *int       `json:"actual_hours,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CompletedDate  *time.Time `json:"completed_date,omitempty"`
	Tags           []string   `json:"tags"`
	Comments       []Comment  `json:"comments"`
	Subtasks       []Subtask  `json:"subtasks"`
	Dependencies   []int64    `json:"dependencies"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Subtask struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}
