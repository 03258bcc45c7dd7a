package repository

import (
	"math"
	"time"
)

// TaskFilter selects tasks the user is assigned to or reported.
type TaskFilter struct {
	UserID    int64
	ProjectID *int64
	Status    string
}

// UserFilter drives the active-user listing.
type UserFilter struct {
	Search string
	Role   string
	Limit  int
	Offset int
}

// Trend buckets: tasks are grouped by UTC calendar day or month of creation.
const (
	BucketDay   = "day"
	BucketMonth = "month"
)

// StatsFilter scopes the aggregation queries. Bucket is only read by Trends.
type StatsFilter struct {
	ProjectIDs []int64
	Since      time.Time
	Bucket     string
}

type TaskStatusStat struct {
	Status            string   `json:"status"`
	Count             int      `json:"count"`
	AvgEstimatedHours *float64 `json:"avg_estimated_hours"`
	AvgActualHours    *float64 `json:"avg_actual_hours"`
}

type ProjectStatusStat struct {
	Status      string  `json:"status"`
	Count       int     `json:"count"`
	AvgProgress float64 `json:"avg_progress"`
	TotalBudget float64 `json:"total_budget"`
	TotalSpent  float64 `json:"total_spent"`
}

type WorkloadStat struct {
	UserID              int64    `json:"user_id"`
	Username            string   `json:"username"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	TaskCount           int      `json:"task_count"`
	CompletedTasks      int      `json:"completed_tasks"`
	CompletionRate      float64  `json:"completion_rate"`
	TotalEstimatedHours int      `json:"total_estimated_hours"`
	TotalActualHours    int      `json:"total_actual_hours"`
	Efficiency          *float64 `json:"efficiency"`
}

// TrendPoint counts the tasks created in one period and how many of those
// are completed now.
type TrendPoint struct {
	Period    string `json:"period"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

type ProductivityStat struct {
	UserID         int64   `json:"user_id"`
	Username       string  `json:"username"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`

	// AvgCompletionDays averages completed_date - created_at over the tasks
	// that have a completion date, rounded to two decimals; nil when none do.
	AvgCompletionDays *float64 `json:"avg_completion_days"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// SearchLimit caps each result kind of a search.
const SearchLimit = 20

// Finish derives CompletionRate and Efficiency from the summed counters.
func (s *WorkloadStat) Finish() {
	s.CompletionRate = 0
	if s.TaskCount > 0 {
		s.CompletionRate = float64(s.CompletedTasks) / float64(s.TaskCount) * 100
	}
	s.Efficiency = nil
	if s.TotalActualHours > 0 {
		eff := float64(s.TotalEstimatedHours) / float64(s.TotalActualHours) * 100
		s.Efficiency = &eff
	}
}

// Finish derives CompletionRate and rounds the average completion time.
func (s *ProductivityStat) Finish() {
	s.CompletionRate = 0
	if s.TotalTasks > 0 {
		s.CompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}
	if s.AvgCompletionDays != nil {
		days := math.Round(*s.AvgCompletionDays*100) / 100
		s.AvgCompletionDays = &days
	}
}

// PeriodKey formats t as the period label of bucket.
func PeriodKey(t time.Time, bucket string) string {
	if bucket == BucketMonth {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}
