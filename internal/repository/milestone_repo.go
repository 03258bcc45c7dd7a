package repository

import (
	"context"
	"fmt"

	"taskmaster/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MilestoneRepository) Insert(ctx context.Context, m *model.Milestone) error {
	r.logger.Debug("Inserting milestone",
		zap.Int64("project_id", m.ProjectID),
		zap.String("name", m.Name),
	)

	query := `
        INSERT INTO milestones (project_id, name, description, due_date, status, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		m.ProjectID,
		m.Name,
		m.Description,
		m.DueDate,
		m.Status,
		m.CompletedAt,
	).Scan(&m.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		r.logger.Error("Failed to insert milestone", zap.Error(err))
		return fmt.Errorf("insert milestone: %w", err)
	}

	r.logger.Info("Milestone inserted successfully",
		zap.Int64("id", m.ID),
		zap.Int64("project_id", m.ProjectID),
	)
	return nil
}

func (r *MilestoneRepository) FindByProjectID(ctx context.Context, projectID int64) ([]model.Milestone, error) {
	return findMilestones(ctx, r.db, projectID)
}

func findMilestones(ctx context.Context, db *pgxpool.Pool, projectID int64) ([]model.Milestone, error) {
	query := `
        SELECT id, project_id, name, description, due_date, status, completed_at
        FROM milestones
        WHERE project_id = $1
        ORDER BY due_date NULLS LAST, id
    `

	rows, err := db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("find milestones: %w", err)
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		var m model.Milestone
		if err := rows.Scan(
			&m.ID,
			&m.ProjectID,
			&m.Name,
			&m.Description,
			&m.DueDate,
			&m.Status,
			&m.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}

	return milestones, rows.Err()
}
