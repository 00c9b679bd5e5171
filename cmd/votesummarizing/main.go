package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/onlinepoll/internal/config"
	"github.com/vncsmyrnk/onlinepoll/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "event", "config_invalid", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	pg := cfg.Postgres
	flag.StringVar(&pg.URL, "db-url", pg.URL, "Database URL, overrides the discrete settings")
	flag.StringVar(&pg.Host, "db-host", pg.Host, "Database host")
	flag.StringVar(&pg.Port, "db-port", pg.Port, "Database port")
	flag.StringVar(&pg.User, "db-user", pg.User, "Database user")
	flag.StringVar(&pg.Password, "db-pass", pg.Password, "Database password")
	flag.StringVar(&pg.DB, "db-name", pg.DB, "Database name")
	timeout := flag.Duration("timeout", 5*time.Minute, "Maximum job duration")
	flag.Parse()

	db, err := sql.Open("postgres", pg.ConnString())
	if err != nil {
		logger.Error("failed to open database", "event", "db_open_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("database unreachable", "event", "db_ping_failed", "error", err)
		os.Exit(1)
	}

	summaryService := services.NewSummaryService(
		postgres.NewPollRepository(db),
		postgres.NewPollResultRepository(db),
		services.WithLogger(logger),
	)

	logger.Info("starting vote summarization job", "event", "summary_started")
	start := time.Now()

	if err := summaryService.SummarizeAllVotes(ctx); err != nil {
		logger.Error("error summarizing votes", "event", "summary_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("vote summarization completed", "event", "summary_completed", "duration", time.Since(start))
}
