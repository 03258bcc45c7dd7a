package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// StatsRepository runs the aggregation queries behind the statistics endpoint.
type StatsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStatsRepository(db *pgxpool.Pool, logger *zap.Logger) *StatsRepository {
	return &StatsRepository{db: db, logger: logger}
}

// TaskStats groups tasks created since f.Since by status.
func (r *StatsRepository) TaskStats(ctx context.Context, f StatsFilter) ([]TaskStatusStat, error) {
	rows, err := r.db.Query(ctx, `
        SELECT status, COUNT(*), AVG(estimated_hours)::float8, AVG(actual_hours)::float8
        FROM tasks
        WHERE project_id = ANY($1) AND created_at >= $2
        GROUP BY status
        ORDER BY status
    `, f.ProjectIDs, f.Since)
	if err != nil {
		r.logger.Error("Failed to aggregate task stats", zap.Error(err))
		return nil, fmt.Errorf("task stats: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TaskStatusStat, error) {
		var s TaskStatusStat
		err := row.Scan(&s.Status, &s.Count, &s.AvgEstimatedHours, &s.AvgActualHours)
		return s, err
	})
}

// ProjectStats groups the projects by status.
func (r *StatsRepository) ProjectStats(ctx context.Context, f StatsFilter) ([]ProjectStatusStat, error) {
	rows, err := r.db.Query(ctx, `
        SELECT status, COUNT(*), AVG(progress)::float8, SUM(budget_allocated), SUM(budget_spent)
        FROM projects
        WHERE id = ANY($1)
        GROUP BY status
        ORDER BY status
    `, f.ProjectIDs)
	if err != nil {
		r.logger.Error("Failed to aggregate project stats", zap.Error(err))
		return nil, fmt.Errorf("project stats: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProjectStatusStat, error) {
		var s ProjectStatusStat
		err := row.Scan(&s.Status, &s.Count, &s.AvgProgress, &s.TotalBudget, &s.TotalSpent)
		return s, err
	})
}

// Workload summarises assigned tasks per assignee, busiest first.
// Efficiency is estimated/actual in percent and nil while no hours are logged.
func (r *StatsRepository) Workload(ctx context.Context, f StatsFilter) ([]WorkloadStat, error) {
	rows, err := r.db.Query(ctx, `
        SELECT u.id, u.username, u.first_name, u.last_name,
               w.task_count, w.completed_tasks, w.total_estimated, w.total_actual
        FROM (
            SELECT assignee_id,
                   COUNT(*) AS task_count,
                   COUNT(*) FILTER (WHERE status = 'completed') AS completed_tasks,
                   COALESCE(SUM(estimated_hours), 0) AS total_estimated,
                   COALESCE(SUM(actual_hours), 0) AS total_actual
            FROM tasks
            WHERE project_id = ANY($1) AND assignee_id IS NOT NULL
            GROUP BY assignee_id
        ) w
        JOIN users u ON u.id = w.assignee_id
        ORDER BY w.task_count DESC, u.id
    `, f.ProjectIDs)
	if err != nil {
		r.logger.Error("Failed to aggregate workload", zap.Error(err))
		return nil, fmt.Errorf("workload stats: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (WorkloadStat, error) {
		var s WorkloadStat
		err := row.Scan(&s.UserID, &s.Username, &s.FirstName, &s.LastName,
			&s.TaskCount, &s.CompletedTasks, &s.TotalEstimatedHours, &s.TotalActualHours)
		if err != nil {
			return s, err
		}
		s.Finish()
		return s, nil
	})
}

// Trends counts tasks created since f.Since per period, oldest period first.
func (r *StatsRepository) Trends(ctx context.Context, f StatsFilter) ([]TrendPoint, error) {
	format := "YYYY-MM-DD"
	if f.Bucket == BucketMonth {
		format = "YYYY-MM"
	}
	rows, err := r.db.Query(ctx, `
        SELECT to_char(created_at AT TIME ZONE 'UTC', $3) AS period,
               COUNT(*),
               COUNT(*) FILTER (WHERE status = 'completed')
        FROM tasks
        WHERE project_id = ANY($1) AND created_at >= $2
        GROUP BY period
        ORDER BY period
    `, f.ProjectIDs, f.Since, format)
	if err != nil {
		r.logger.Error("Failed to aggregate completion trends", zap.Error(err))
		return nil, fmt.Errorf("completion trends: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TrendPoint, error) {
		var p TrendPoint
		err := row.Scan(&p.Period, &p.Created, &p.Completed)
		return p, err
	})
}

// Productivity summarises tasks created since f.Since per assignee, most
// completed first. The average completion time is in days.
func (r *StatsRepository) Productivity(ctx context.Context, f StatsFilter) ([]ProductivityStat, error) {
	rows, err := r.db.Query(ctx, `
        SELECT u.id, u.username, u.first_name, u.last_name,
               p.total_tasks, p.completed_tasks, p.avg_days
        FROM (
            SELECT assignee_id,
                   COUNT(*) AS total_tasks,
                   COUNT(*) FILTER (WHERE status = 'completed') AS completed_tasks,
                   AVG(EXTRACT(EPOCH FROM (completed_date - created_at)) / 86400)::float8 AS avg_days
            FROM tasks
            WHERE project_id = ANY($1) AND assignee_id IS NOT NULL AND created_at >= $2
            GROUP BY assignee_id
        ) p
        JOIN users u ON u.id = p.assignee_id
        ORDER BY p.completed_tasks DESC, u.id
    `, f.ProjectIDs, f.Since)
	if err != nil {
		r.logger.Error("Failed to aggregate productivity", zap.Error(err))
		return nil, fmt.Errorf("productivity stats: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductivityStat, error) {
		var s ProductivityStat
		err := row.Scan(&s.UserID, &s.Username, &s.FirstName, &s.LastName,
			&s.TotalTasks, &s.CompletedTasks, &s.AvgCompletionDays)
		if err != nil {
			return s, err
		}
		s.Finish()
		return s, nil
	})
}
