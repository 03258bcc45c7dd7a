package repository

import (
	"context"
	"fmt"
	"time"

	"taskmaster/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, role, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (username, email, password_hash, first_name, last_name, role, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, TRUE)
        RETURNING id, is_active, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Role,
	).Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to insert user", zap.Error(err), zap.String("username", u.Username))
		return fmt.Errorf("insert user: %w", err)
	}

	r.logger.Info("User inserted successfully", zap.Int64("user_id", u.ID))
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of active users and the total match count.
func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]model.User, int, error) {
	where := `WHERE is_active`
	args := []any{}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where += fmt.Sprintf(` AND (username ILIKE $%[1]d OR first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d)`, len(args))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		where += fmt.Sprintf(` AND role = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY first_name, last_name, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// RoleStats counts active users per role.
func (r *UserRepository) RoleStats(ctx context.Context) ([]RoleCount, error) {
	rows, err := r.db.Query(ctx, `
        SELECT role, COUNT(*)
        FROM users
        WHERE is_active
        GROUP BY role
        ORDER BY role
    `)
	if err != nil {
		return nil, fmt.Errorf("user role stats: %w", err)
	}
	defer rows.Close()

	out := []RoleCount{}
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Search matches active users by username, names or email.
func (r *UserRepository) Search(ctx context.Context, q string) ([]model.User, error) {
	users, _, err := r.List(ctx, UserFilter{Search: q, Limit: SearchLimit})
	return users, err
}
