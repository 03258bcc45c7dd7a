package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmaster/internal/events"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/workflow"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/rbac"

	"go.uber.org/zap"
)

const maxEstimatedHours = 1000

type CreateTaskInput struct {
	Title          string
	Description    string
	ProjectID      int64
	AssigneeID     *int64
	Priority       string
	Type           string
	EstimatedHours *int
	DueDate        *time.Time
	Tags           []string
	Dependencies   []int64
}

// TaskPatch carries the fields to change; a Status goes through the workflow table.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *model.TaskStatus
	Priority       *string
	Type           *string
	AssigneeID     *int64
	EstimatedHours *int
	ActualHours    *int
	DueDate        *time.Time
	Tags           []string
}

func validateEstimate(h *int) error {
	if h != nil && (*h < 0 || *h > maxEstimatedHours) {
		return invalid("estimated_hours", fmt.Sprintf("must be between 0 and %d", maxEstimatedHours))
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// CreateTask adds a task to a project the requester has access to. The
// requester becomes the reporter and, unless another is given, the assignee.
func (s *Service) CreateTask(ctx context.Context, requester int64, in CreateTaskInput) (*model.Task, error) {
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	description, err := required("description", in.Description)
	if err != nil {
		return nil, err
	}
	if in.ProjectID <= 0 {
		return nil, invalid("project_id", "is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !model.ValidTaskPriority(priority) {
		return nil, invalid("priority", "must be one of low, medium, high, urgent")
	}
	taskType := in.Type
	if taskType == "" {
		taskType = model.TaskTypeFeature
	}
	if !model.ValidTaskType(taskType) {
		return nil, invalid("type", "must be one of feature, bug, improvement, documentation, testing")
	}
	if err := validateEstimate(in.EstimatedHours); err != nil {
		return nil, err
	}

	p, err := s.loadProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionCreateTask, requester, p, nil); err != nil {
		return nil, err
	}

	assignee := requester
	if in.AssigneeID != nil {
		if _, err := s.loadUser(ctx, *in.AssigneeID); err != nil {
			return nil, err
		}
		assignee = *in.AssigneeID
	}

	deps := dedupeIDs(in.Dependencies)
	if len(deps) > 0 {
		n, err := s.tasks.CountInProject(ctx, p.ID, deps)
		if err != nil {
			return nil, fmt.Errorf("check dependencies: %w", err)
		}
		if n != len(deps) {
			return nil, invalid("dependencies", "must reference existing tasks of the same project")
		}
	}

	t := &model.Task{
		Title:          title,
		Description:    description,
		ProjectID:      p.ID,
		AssigneeID:     &assignee,
		ReporterID:     requester,
		Status:         workflow.Initial,
		Priority:       priority,
		Type:           taskType,
		EstimatedHours: in.EstimatedHours,
		DueDate:        in.DueDate,
		Tags:           normalizeTags(in.Tags),
		Comments:       []model.Comment{},
		Subtasks:       []model.Subtask{},
		Dependencies:   deps,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "project", ID: p.ID}
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log(ctx).Info("Task created",
		zap.Int64("task_id", t.ID),
		zap.Int64("project_id", p.ID),
		zap.Int64("reporter_id", requester),
	)
	s.refreshProgress(ctx, p.ID)
	s.emit(ctx, events.TaskCreated, events.TaskPayload{
		TaskID:    t.ID,
		ProjectID: p.ID,
		ActorID:   requester,
		Title:     t.Title,
	})
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, requester, taskID int64) (*model.Task, error) {
	t, p, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionReadTask, requester, p, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks returns tasks assigned to or reported by the requester.
func (s *Service) ListTasks(ctx context.Context, requester int64, projectID *int64, status string) ([]model.Task, error) {
	if status != "" && !model.TaskStatus(status).Valid() {
		return nil, invalid("status", "unknown task status")
	}
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{
		UserID:    requester,
		ProjectID: projectID,
		Status:    status,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a patch. A status change must be an allowed transition;
// otherwise nothing is written and an *InvalidTransitionError is returned.
func (s *Service) UpdateTask(ctx context.Context, requester, taskID int64, patch TaskPatch) (*model.Task, error) {
	t, p, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionUpdateTask, requester, p, t); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if t.Title, err = required("title", *patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		if t.Description, err = required("description", *patch.Description); err != nil {
			return nil, err
		}
	}
	if patch.Priority != nil {
		if !model.ValidTaskPriority(*patch.Priority) {
			return nil, invalid("priority", "must be one of low, medium, high, urgent")
		}
		t.Priority = *patch.Priority
	}
	if patch.Type != nil {
		if !model.ValidTaskType(*patch.Type) {
			return nil, invalid("type", "must be one of feature, bug, improvement, documentation, testing")
		}
		t.Type = *patch.Type
	}
	if patch.EstimatedHours != nil {
		if err := validateEstimate(patch.EstimatedHours); err != nil {
			return nil, err
		}
		t.EstimatedHours = patch.EstimatedHours
	}
	if patch.ActualHours != nil {
		if *patch.ActualHours < 0 {
			return nil, invalid("actual_hours", "must not be negative")
		}
		t.ActualHours = patch.ActualHours
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.Tags != nil {
		t.Tags = normalizeTags(patch.Tags)
	}
	if patch.AssigneeID != nil {
		if _, err := s.loadUser(ctx, *patch.AssigneeID); err != nil {
			return nil, err
		}
		t.AssigneeID = patch.AssigneeID
	}

	from := t.Status
	statusChanged := false
	if patch.Status != nil {
		to := *patch.Status
		if !to.Valid() {
			return nil, invalid("status", "unknown task status")
		}
		ok := workflow.AttemptTransition(t, to, s.now())
		metrics.IncrementTaskTransition(string(from), string(to), ok)
		if !ok {
			s.log(ctx).Info("Task transition rejected",
				zap.Int64("task_id", taskID),
				zap.String("from", string(from)),
				zap.String("to", string(to)),
			)
			return nil, &InvalidTransitionError{From: from, To: to}
		}
		statusChanged = true
	}

	if err := s.tasks.Update(ctx, t, from); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		case errors.Is(err, repository.ErrConflict):
			return nil, s.updateConflict(ctx, taskID, patch.Status)
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	if statusChanged {
		s.refreshProgress(ctx, t.ProjectID)
		s.emit(ctx, events.TaskStatusChanged, events.TaskPayload{
			TaskID:    t.ID,
			ProjectID: t.ProjectID,
			ActorID:   requester,
			From:      string(from),
			To:        string(t.Status),
		})
	}
	return t, nil
}

// updateConflict reports a write that lost against a concurrent status change.
// When the requested status is not reachable from the status now stored, the
// caller gets the transition error it would have got had it read that status.
func (s *Service) updateConflict(ctx context.Context, taskID int64, to *model.TaskStatus) error {
	s.log(ctx).Info("Task update lost to a concurrent status change", zap.Int64("task_id", taskID))
	if to != nil {
		cur, err := s.tasks.FindByID(ctx, taskID)
		if err == nil && !workflow.CanTransition(cur.Status, *to) {
			return &InvalidTransitionError{From: cur.Status, To: *to}
		}
	}
	return &ConflictError{Message: "task was modified concurrently, reload and retry"}
}

func (s *Service) AddComment(ctx context.Context, requester, taskID int64, text string) (*model.Comment, error) {
	text, err := required("text", text)
	if err != nil {
		return nil, err
	}
	t, p, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionUpdateTask, requester, p, t); err != nil {
		return nil, err
	}

	c := &model.Comment{AuthorID: requester, Text: text, CreatedAt: s.now()}
	if err := s.tasks.AddComment(ctx, taskID, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}

func (s *Service) AddSubtask(ctx context.Context, requester, taskID int64, title string) (*model.Subtask, error) {
	title, err := required("title", title)
	if err != nil {
		return nil, err
	}
	t, p, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionUpdateTask, requester, p, t); err != nil {
		return nil, err
	}

	st := &model.Subtask{Title: title, CreatedAt: s.now()}
	if err := s.tasks.AddSubtask(ctx, taskID, st); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, fmt.Errorf("add subtask: %w", err)
	}
	return st, nil
}

func (s *Service) ToggleSubtask(ctx context.Context, requester, taskID, subtaskID int64) (*model.Subtask, error) {
	t, p, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(rbac.ActionUpdateTask, requester, p, t); err != nil {
		return nil, err
	}

	st, err := s.tasks.ToggleSubtask(ctx, taskID, subtaskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "subtask", ID: subtaskID}
		}
		return nil, fmt.Errorf("toggle subtask: %w", err)
	}
	return st, nil
}

// DeleteTask is allowed for the project owner and the task's reporter.
func (s *Service) DeleteTask(ctx context.Context, requester, taskID int64) error {
	t, p, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return err
	}
	if err := authorize(rbac.ActionDeleteTask, requester, p, t); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "task", ID: taskID}
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.log(ctx).Info("Task deleted",
		zap.Int64("task_id", taskID),
		zap.Int64("project_id", t.ProjectID),
	)
	s.refreshProgress(ctx, t.ProjectID)
	s.emit(ctx, events.TaskDeleted, events.TaskPayload{
		TaskID:    taskID,
		ProjectID: t.ProjectID,
		ActorID:   requester,
	})
	return nil
}
