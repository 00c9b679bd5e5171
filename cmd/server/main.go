package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	tallycache "github.com/vncsmyrnk/onlinepoll/internal/adapters/cache/memory"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/onlinepoll/internal/config"
	"github.com/vncsmyrnk/onlinepoll/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "event", "server_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("migrations applied", "event", "migrations_applied")
	}

	pollRepo := postgres.NewPollRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	resultRepo := postgres.NewPollResultRepository(db)
	userRepo := postgres.NewUserRepository(db)
	authRepo := postgres.NewAuthRepository(db)

	opts := []services.Option{services.WithLogger(logger)}

	pollService := services.NewPollService(pollRepo, cfg.PollDefaultTTL, opts...)
	tallyService := services.NewTallyService(pollRepo, resultRepo, tallycache.NewTallyCache(), cfg.ResultsCacheTTL, opts...)
	voteService := services.NewVoteService(pollRepo, voteRepo, tallyService, opts...)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, authRepo, google.NewVerifier(), services.AuthConfig{
		JWTSecret:       []byte(cfg.JWTSecret),
		GoogleClientID:  cfg.GoogleClientID,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}, opts...)

	handler := http.NewHandler(
		http.NewPollHandler(pollService),
		http.NewVoteHandler(voteService, tallyService),
		http.NewAuthHandler(authService, cfg.OAuthRedirectURL, http.CookieConfig{
			Domain:          cfg.CookieDomain,
			SameSite:        cfg.CookieSameSite,
			AccessTokenTTL:  cfg.AccessTokenTTL,
			RefreshTokenTTL: cfg.RefreshTokenTTL,
		}),
		http.NewUserHandler(userService),
		authService,
		cfg.CORSOrigins,
	)

	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "event", "server_started", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("gracefully shutting down", "event", "server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
