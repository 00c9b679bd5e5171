package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
type Config struct {
	HTTPAddr       string
	Postgres       PostgresConfig
	MigrateOnStart bool

	JWTSecret        string
	GoogleClientID   string
	OAuthRedirectURL string
	CookieDomain     string
	CookieSameSite   http.SameSite
	CORSOrigins      []string

	ResultsCacheTTL time.Duration
	PollDefaultTTL  time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LogLevel slog.Level
}

type PostgresConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

// ConnString prefers DATABASE_URL and falls back to the discrete settings.
func (p PostgresConfig) ConnString() string {
	if p.URL != "" {
		return p.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.DB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	duration := func(name string, fallback time.Duration) time.Duration {
		d, err := envDuration(name, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	sameSite, err := parseSameSite(os.Getenv("COOKIE_SAMESITE"))
	if err != nil {
		errs = append(errs, err)
	}
	level, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		errs = append(errs, err)
	}

	cfg := Config{
		HTTPAddr: envString("HTTP_ADDR", "0.0.0.0:8080"),
		Postgres: PostgresConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     envString("POSTGRES_HOST", "localhost"),
			Port:     envString("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
		},
		MigrateOnStart: envBool("MIGRATE_ON_START", false),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		OAuthRedirectURL: envString("OAUTH_REDIRECT_URL", "/"),
		CookieDomain:     os.Getenv("COOKIE_DOMAIN"),
		CookieSameSite:   sameSite,
		CORSOrigins:      envList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		ResultsCacheTTL: duration("RESULTS_CACHE_TTL", time.Minute),
		PollDefaultTTL:  duration("POLL_DEFAULT_TTL", 7*24*time.Hour),
		AccessTokenTTL:  duration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		LogLevel: level,
	}

	return cfg, errors.Join(errs...)
}

// ValidateServer checks the settings only the API server needs.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func (c Config) Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func envString(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return fallback, fmt.Errorf("%s: must not be negative", name)
	}
	return d, nil
}

func envList(name string, fallback []string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func parseSameSite(raw string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteLaxMode, fmt.Errorf("COOKIE_SAMESITE: unknown value %q", raw)
	}
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(raw) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
