package service

import (
	"context"
	"fmt"

	"taskmaster/internal/events"
	"taskmaster/internal/model"
	"taskmaster/pkg/metrics"

	"go.uber.org/zap"
)

// ComputeProgress returns round(100*completed/total) with halves rounded up,
// or 0 when there are no tasks.
func ComputeProgress(statuses []model.TaskStatus) int {
	total := len(statuses)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, st := range statuses {
		if st == model.TaskCompleted {
			completed++
		}
	}
	// half-up in integers: floor((200c + n) / 2n)
	return (200*completed + total) / (2 * total)
}

// RecalculateProgress derives the project's progress from its tasks and
// stores it. Returns the stored value.
func (s *Service) RecalculateProgress(ctx context.Context, projectID int64) (int, error) {
	statuses, err := s.tasks.StatusesByProject(ctx, projectID)
	if err != nil {
		metrics.IncrementProgressRecalculation("failed")
		return 0, fmt.Errorf("load task statuses: %w", err)
	}

	progress := ComputeProgress(statuses)
	if err := s.projects.UpdateProgress(ctx, projectID, progress); err != nil {
		metrics.IncrementProgressRecalculation("failed")
		return 0, fmt.Errorf("store progress: %w", err)
	}

	metrics.IncrementProgressRecalculation("success")
	s.emit(ctx, events.ProjectProgressUpdated, events.ProgressPayload{
		ProjectID: projectID,
		Progress:  progress,
	})
	return progress, nil
}

// refreshProgress runs after a committed task write. A failure is logged and
// left for the next recalculation to repair.
func (s *Service) refreshProgress(ctx context.Context, projectID int64) {
	progress, err := s.RecalculateProgress(ctx, projectID)
	if err != nil {
		s.log(ctx).Error("Progress recalculation failed",
			zap.Int64("project_id", projectID),
			zap.Error(err),
		)
		return
	}
	s.log(ctx).Debug("Progress recalculated",
		zap.Int64("project_id", projectID),
		zap.Int("progress", progress),
	)
}
