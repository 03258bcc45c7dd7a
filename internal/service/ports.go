package service

import (
	"context"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// The stores below are implemented by package repository (PostgreSQL) and
// package memstore. Lookups of a missing row return repository.ErrNotFound;
// unique-key clashes return repository.ErrDuplicate.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, f repository.UserFilter) ([]model.User, int, error)
	RoleStats(ctx context.Context) ([]repository.RoleCount, error)
	Search(ctx context.Context, q string) ([]model.User, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, id int64) (*model.Project, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Project, error)
	AccessibleIDs(ctx context.Context, userID int64) ([]int64, error)
	Search(ctx context.Context, ids []int64, q string) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	UpdateProgress(ctx context.Context, id int64, progress int) error
	AddMember(ctx context.Context, projectID int64, m model.TeamMember) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
	// Delete removes the project and everything under it atomically and
	// reports the number of deleted tasks.
	Delete(ctx context.Context, id int64) (int64, error)
}

type MilestoneStore interface {
	Insert(ctx context.Context, m *model.Milestone) error
}

type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id int64) (*model.Task, error)
	List(ctx context.Context, f repository.TaskFilter) ([]model.Task, error)
	Search(ctx context.Context, projectIDs []int64, q string) ([]model.Task, error)
	StatusesByProject(ctx context.Context, projectID int64) ([]model.TaskStatus, error)
	CountInProject(ctx context.Context, projectID int64, ids []int64) (int, error)
	// Update persists status and completed date in the same write, only if
	// the stored status is still prevStatus (repository.ErrConflict otherwise).
	Update(ctx context.Context, t *model.Task, prevStatus model.TaskStatus) error
	Delete(ctx context.Context, id int64) error
	AddComment(ctx context.Context, taskID int64, c *model.Comment) error
	AddSubtask(ctx context.Context, taskID int64, s *model.Subtask) error
	ToggleSubtask(ctx context.Context, taskID, subtaskID int64) (*model.Subtask, error)
}

type StatsStore interface {
	TaskStats(ctx context.Context, f repository.StatsFilter) ([]repository.TaskStatusStat, error)
	ProjectStats(ctx context.Context, f repository.StatsFilter) ([]repository.ProjectStatusStat, error)
	Workload(ctx context.Context, f repository.StatsFilter) ([]repository.WorkloadStat, error)
	Trends(ctx context.Context, f repository.StatsFilter) ([]repository.TrendPoint, error)
	Productivity(ctx context.Context, f repository.StatsFilter) ([]repository.ProductivityStat, error)
}

// EventPublisher delivers domain events. Failures are logged, never returned
// to the caller of a mutation.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Stores bundles the persistence dependencies of Service.
type Stores struct {
	Users      UserStore
	Projects   ProjectStore
	Milestones MilestoneStore
	Tasks      TaskStore
	Stats      StatsStore
}
