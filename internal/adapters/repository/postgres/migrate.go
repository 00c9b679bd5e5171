package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every up migration in file name order. Migrations are
// idempotent, so running it against an up to date schema is harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := migrationNames(".up.sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := execMigration(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}

// RunMigration executes the single migration file whose name ends with
// name + ".sql", for example "create_votes.down".
func RunMigration(ctx context.Context, db *sql.DB, name string) (string, error) {
	pattern, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(name)))
	if err != nil {
		return "", fmt.Errorf("invalid migration name: %w", err)
	}

	names, err := migrationNames(".sql")
	if err != nil {
		return "", err
	}
	for _, file := range names {
		if pattern.MatchString(file) {
			return file, execMigration(ctx, db, file)
		}
	}
	return "", fmt.Errorf("migration %q not found", name)
}

func migrationNames(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func execMigration(ctx context.Context, db *sql.DB, name string) error {
	content, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return wrapErr("failed to execute migration "+name, err)
	}
	return nil
}
