package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/onlinepoll/internal/config"
)

// Usage: migrations <name>, where name matches the end of a migration file
// such as "create_votes.up", or "all" to apply every up migration.
func main() {
	if len(os.Args) < 2 {
		slog.Error("a migration name is required", "event", "migration_usage")
		os.Exit(2)
	}
	migrationName := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "event", "config_invalid", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		logger.Error("failed to open database", "event", "db_open_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if migrationName == "all" {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("failed to apply migrations", "event", "migration_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied", "event", "migrations_applied")
		return
	}

	file, err := postgres.RunMigration(ctx, db, migrationName)
	if err != nil {
		logger.Error("failed to execute migration", "event", "migration_failed", "name", migrationName, "error", err)
		os.Exit(1)
	}

	logger.Info("migration file executed", "event", "migration_applied", "file", file)
}
