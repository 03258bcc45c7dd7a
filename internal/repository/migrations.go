package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/0001_init.up.sql
var initUp string

// Migrate applies the schema. Every statement is idempotent, so running it
// against an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("Running database migrations")

	if _, err := db.Exec(ctx, initUp); err != nil {
		return fmt.Errorf("apply init migration: %w", err)
	}

	logger.Info("Database migrations finished")
	return nil
}
