package repository

import (
	"context"
	"errors"
	"fmt"

	"taskmaster/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, title, description, project_id, assignee_id, reporter_id, status, priority, type,
       estimated_hours, actual_hours, due_date, completed_date, tags, created_at, updated_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.ProjectID,
		&t.AssigneeID,
		&t.ReporterID,
		&t.Status,
		&t.Priority,
		&t.Type,
		&t.EstimatedHours,
		&t.ActualHours,
		&t.DueDate,
		&t.CompletedDate,
		&t.Tags,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Comments = []model.Comment{}
	t.Subtasks = []model.Subtask{}
	t.Dependencies = []int64{}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.Int64("project_id", t.ProjectID),
		zap.Int64("reporter_id", t.ReporterID),
		zap.String("title", t.Title),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO tasks (title, description, project_id, assignee_id, reporter_id, status, priority, type,
                           estimated_hours, actual_hours, due_date, completed_date, tags)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		t.Title,
		t.Description,
		t.ProjectID,
		t.AssigneeID,
		t.ReporterID,
		t.Status,
		t.Priority,
		t.Type,
		t.EstimatedHours,
		t.ActualHours,
		t.DueDate,
		t.CompletedDate,
		nonNilStrings(t.Tags),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int64("project_id", t.ProjectID),
		)
		return fmt.Errorf("insert task: %w", err)
	}

	for _, dep := range t.Dependencies {
		if _, err := tx.Exec(ctx,
			`INSERT INTO task_dependencies (task_id, depends_on_task_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			t.ID, dep,
		); err != nil {
			return fmt.Errorf("insert task dependency: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit task: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int64("task_id", t.ID),
		zap.Int64("project_id", t.ProjectID),
	)
	return nil
}

// FindByID loads a task with its comments, subtasks and dependencies.
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}

	comments, err := r.db.Query(ctx,
		`SELECT id, author_id, text, created_at FROM task_comments WHERE task_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	t.Comments, err = pgx.CollectRows(comments, func(row pgx.CollectableRow) (model.Comment, error) {
		var c model.Comment
		err := row.Scan(&c.ID, &c.AuthorID, &c.Text, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan comments: %w", err)
	}

	subtasks, err := r.db.Query(ctx,
		`SELECT id, title, completed, created_at FROM task_subtasks WHERE task_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load subtasks: %w", err)
	}
	t.Subtasks, err = pgx.CollectRows(subtasks, scanSubtask)
	if err != nil {
		return nil, fmt.Errorf("scan subtasks: %w", err)
	}

	deps, err := r.db.Query(ctx,
		`SELECT depends_on_task_id FROM task_dependencies WHERE task_id = $1 ORDER BY depends_on_task_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load dependencies: %w", err)
	}
	t.Dependencies, err = pgx.CollectRows(deps, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan dependencies: %w", err)
	}

	return t, nil
}

func scanSubtask(row pgx.CollectableRow) (model.Subtask, error) {
	var s model.Subtask
	err := row.Scan(&s.ID, &s.Title, &s.Completed, &s.CreatedAt)
	return s, err
}

// List returns tasks the user is assigned to or reported, newest first.
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for user", zap.Int64("user_id", f.UserID))

	args := []any{f.UserID}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE (assignee_id = $1 OR reporter_id = $1)`
	if f.ProjectID != nil {
		args = append(args, *f.ProjectID)
		query += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.queryTasks(ctx, query, args...)
}

// Search matches title, description or tags within the given projects.
func (r *TaskRepository) Search(ctx context.Context, projectIDs []int64, q string) ([]model.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE project_id = ANY($1)
          AND (title ILIKE $2 OR description ILIKE $2
               OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE $2))
        ORDER BY updated_at DESC
        LIMIT $3
    `
	return r.queryTasks(ctx, query, projectIDs, "%"+escapeLike(q)+"%", SearchLimit)
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err))
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// StatusesByProject returns the status of every task in the project.
func (r *TaskRepository) StatusesByProject(ctx context.Context, projectID int64) ([]model.TaskStatus, error) {
	rows, err := r.db.Query(ctx, `SELECT status FROM tasks WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load task statuses: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[model.TaskStatus])
}

// CountInProject counts how many of ids are tasks of the project.
func (r *TaskRepository) CountInProject(ctx context.Context, projectID int64, ids []int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE project_id = $1 AND id = ANY($2)`, projectID, ids,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count project tasks: %w", err)
	}
	return n, nil
}

// Update writes every mutable column, status and completed_date included, in
// a single statement so readers never see one without the other. The row is
// only written while its status still equals prevStatus; otherwise
// ErrConflict is returned and nothing changes.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task, prevStatus model.TaskStatus) error {
	query := `
        UPDATE tasks
        SET title = $2, description = $3, assignee_id = $4, status = $5, priority = $6, type = $7,
            estimated_hours = $8, actual_hours = $9, due_date = $10, completed_date = $11, tags = $12,
            updated_at = NOW()
        WHERE id = $1 AND status = $13
        RETURNING updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.AssigneeID,
		t.Status,
		t.Priority,
		t.Type,
		t.EstimatedHours,
		t.ActualHours,
		t.DueDate,
		t.CompletedDate,
		nonNilStrings(t.Tags),
		prevStatus,
	).Scan(&t.UpdatedAt)
	if err == nil {
		return nil
	}
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to update task",
			zap.Int64("task_id", t.ID),
			zap.Error(err),
		)
		return fmt.Errorf("update task: %w", err)
	}

	// tell a missing task apart from a lost status race
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int64("task_id", id), zap.Error(err))
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) AddComment(ctx context.Context, taskID int64, c *model.Comment) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO task_comments (task_id, author_id, text, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, taskID, c.AuthorID, c.Text, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *TaskRepository) AddSubtask(ctx context.Context, taskID int64, s *model.Subtask) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO task_subtasks (task_id, title, completed, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, taskID, s.Title, s.Completed, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert subtask: %w", err)
	}
	return nil
}

// ToggleSubtask flips completion in place and returns the new row.
func (r *TaskRepository) ToggleSubtask(ctx context.Context, taskID, subtaskID int64) (*model.Subtask, error) {
	rows, err := r.db.Query(ctx, `
        UPDATE task_subtasks
        SET completed = NOT completed
        WHERE id = $1 AND task_id = $2
        RETURNING id, title, completed, created_at
    `, subtaskID, taskID)
	if err != nil {
		return nil, fmt.Errorf("toggle subtask: %w", err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSubtask)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}
