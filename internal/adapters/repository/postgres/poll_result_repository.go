package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type pollResultRepository struct {
	db *sql.DB
}

func NewPollResultRepository(db *sql.DB) ports.PollResultRepository {
	return &pollResultRepository{
		db: db,
	}
}

func (r *pollResultRepository) LedgerVersion(ctx context.Context, pollID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE((SELECT version FROM poll_tally_versions WHERE poll_id = $1), 0)`
	var version int64
	if err := r.db.QueryRowContext(ctx, query, pollID).Scan(&version); err != nil {
		return 0, wrapErr("failed to read tally version", err)
	}
	return version, nil
}

// ComputeTally reads the version and the counts from one repeatable read
// snapshot, so they always describe the same ledger state.
func (r *pollResultRepository) ComputeTally(ctx context.Context, pollID uuid.UUID) (*domain.Tally, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	tally := &domain.Tally{
		PollID: pollID,
		Counts: make(map[uuid.UUID]int64),
	}

	versionQuery := `SELECT COALESCE((SELECT version FROM poll_tally_versions WHERE poll_id = $1), 0)`
	if err := tx.QueryRowContext(ctx, versionQuery, pollID).Scan(&tally.Version); err != nil {
		return nil, wrapErr("failed to read tally version", err)
	}

	countQuery := `
		SELECT option_id, COUNT(*)
		FROM votes
		WHERE poll_id = $1
		GROUP BY option_id
	`
	rows, err := tx.QueryContext(ctx, countQuery, pollID)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("failed to count votes for poll %s", pollID), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			optionID uuid.UUID
			count    int64
		)
		if err := rows.Scan(&optionID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		tally.Counts[optionID] = count
		tally.TotalVotes += count
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating vote counts", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("failed to commit transaction", err)
	}
	return tally, nil
}

// SaveSnapshot upserts the per-option counts. A snapshot never replaces one
// computed from a newer ledger version.
func (r *pollResultRepository) SaveSnapshot(ctx context.Context, tally *domain.Tally) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO poll_results (poll_id, option_id, vote_count, version, last_updated_at)
		SELECT o.poll_id, o.id, $3, $4, $5
		FROM poll_options o
		WHERE o.poll_id = $1 AND o.id = $2
		ON CONFLICT (poll_id, option_id) DO UPDATE
		SET vote_count = EXCLUDED.vote_count,
		    version = EXCLUDED.version,
		    last_updated_at = EXCLUDED.last_updated_at
		WHERE poll_results.version <= EXCLUDED.version
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return wrapErr("failed to prepare snapshot statement", err)
	}
	defer stmt.Close()

	for optionID, count := range tally.Counts {
		if _, err := stmt.ExecContext(ctx, tally.PollID, optionID, count, tally.Version, tally.ComputedAt); err != nil {
			return wrapErr(fmt.Sprintf("failed to summarize votes for poll %s", tally.PollID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit snapshot", err)
	}
	return nil
}
