package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskmaster/internal/repository"
	"taskmaster/pkg/db"
	"taskmaster/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.LogLevel)
			defer log.Sync()

			ctx := cmd.Context()
			pool, err := db.NewConnection(ctx, cfg.DB, log)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := repository.Migrate(ctx, pool, log); err != nil {
				return err
			}
			log.Info("Migrations applied", zap.String("db", cfg.DB.Name))
			return nil
		},
	}
}
