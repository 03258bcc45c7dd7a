package repository

import (
	"context"
	"fmt"

	"taskmaster/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

const projectColumns = `id, name, description, status, priority, start_date, end_date, owner_id, tags, progress,
       budget_allocated, budget_spent, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.Priority,
		&p.StartDate,
		&p.EndDate,
		&p.OwnerID,
		&p.Tags,
		&p.Progress,
		&p.Budget.Allocated,
		&p.Budget.Spent,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Team = []model.TeamMember{}
	p.Milestones = []model.Milestone{}
	return &p, nil
}

// Create inserts the project together with its initial team in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.Int64("owner_id", p.OwnerID),
		zap.String("name", p.Name),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO projects (name, description, status, priority, start_date, end_date, owner_id, tags, progress,
                              budget_allocated, budget_spent)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Status,
		p.Priority,
		p.StartDate,
		p.EndDate,
		p.OwnerID,
		nonNilStrings(p.Tags),
		p.Progress,
		p.Budget.Allocated,
		p.Budget.Spent,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return fmt.Errorf("insert project: %w", err)
	}

	for _, m := range p.Team {
		_, err := tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
			p.ID, m.UserID, m.Role, m.JoinedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert project member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit project: %w", err)
	}

	r.logger.Info("Project inserted successfully",
		zap.Int64("project_id", p.ID),
		zap.Int64("owner_id", p.OwnerID),
	)
	return nil
}

// FindByID loads a project with its team and milestones.
func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}

	teams, err := r.loadTeams(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.Team = teams[id]
	if p.Team == nil {
		p.Team = []model.TeamMember{}
	}

	milestones, err := findMilestones(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	p.Milestones = milestones
	return p, nil
}

// ListForUser returns projects the user owns or is a team member of.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID int64) ([]model.Project, error) {
	query := `
        SELECT ` + projectColumns + `
        FROM projects
        WHERE owner_id = $1
           OR id IN (SELECT project_id FROM project_members WHERE user_id = $1)
        ORDER BY created_at DESC, id DESC
    `
	return r.queryProjects(ctx, query, userID)
}

// AccessibleIDs returns the ids ListForUser would return.
func (r *ProjectRepository) AccessibleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id FROM projects
        WHERE owner_id = $1
           OR id IN (SELECT project_id FROM project_members WHERE user_id = $1)
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("accessible projects: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// Search matches name, description or tags within the given projects.
func (r *ProjectRepository) Search(ctx context.Context, ids []int64, q string) ([]model.Project, error) {
	query := `
        SELECT ` + projectColumns + `
        FROM projects
        WHERE id = ANY($1)
          AND (name ILIKE $2 OR description ILIKE $2
               OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE $2))
        ORDER BY updated_at DESC
        LIMIT $3
    `
	return r.queryProjects(ctx, query, ids, "%"+escapeLike(q)+"%", SearchLimit)
}

func (r *ProjectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	ids := []int64{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	teams, err := r.loadTeams(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if team, ok := teams[projects[i].ID]; ok {
			projects[i].Team = team
		}
	}
	return projects, nil
}

func (r *ProjectRepository) loadTeams(ctx context.Context, ids []int64) (map[int64][]model.TeamMember, error) {
	teams := make(map[int64][]model.TeamMember, len(ids))
	if len(ids) == 0 {
		return teams, nil
	}

	rows, err := r.db.Query(ctx, `
        SELECT project_id, user_id, role, joined_at
        FROM project_members
        WHERE project_id = ANY($1)
        ORDER BY joined_at, user_id
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID int64
		var m model.TeamMember
		if err := rows.Scan(&projectID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		teams[projectID] = append(teams[projectID], m)
	}
	return teams, rows.Err()
}

// Update writes the user-editable columns. progress is never touched here.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET name = $2, description = $3, status = $4, priority = $5, end_date = $6, tags = $7,
            budget_allocated = $8, budget_spent = $9, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Status,
		p.Priority,
		p.EndDate,
		nonNilStrings(p.Tags),
		p.Budget.Allocated,
		p.Budget.Spent,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (r *ProjectRepository) UpdateProgress(ctx context.Context, id int64, progress int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET progress = $2, updated_at = NOW() WHERE id = $1`, id, progress)
	if err != nil {
		r.logger.Error("Failed to update project progress",
			zap.Int64("project_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("update progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember relies on the (project_id, user_id) primary key for uniqueness.
func (r *ProjectRepository) AddMember(ctx context.Context, projectID int64, m model.TeamMember) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
		projectID, m.UserID, m.Role, m.JoinedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrDuplicate
	case isForeignKeyViolation(err):
		return ErrNotFound
	default:
		return fmt.Errorf("insert project member: %w", err)
	}
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("delete project member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the project's tasks and then the project in one transaction
// and returns how many tasks went with it.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tasks, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete project tasks: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit project delete: %w", err)
	}

	r.logger.Info("Project deleted",
		zap.Int64("project_id", id),
		zap.Int64("tasks_deleted", tasks.RowsAffected()),
	)
	return tasks.RowsAffected(), nil
}
