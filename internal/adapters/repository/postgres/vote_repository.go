package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// Append records the vote and bumps the poll's ledger version in one
// transaction. The shared lock on the poll row orders it against poll
// updates, so the expiry checked here is the one in force at commit.
func (r *voteRepository) Append(ctx context.Context, vote *domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var expiresAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT expires_at FROM polls WHERE id = $1 FOR SHARE`, vote.PollID).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPollNotFound
		}
		return wrapErr("failed to lock poll", err)
	}
	if !vote.CreatedAt.Before(expiresAt) {
		return domain.ErrPollExpired
	}

	query := `
		INSERT INTO votes (id, poll_id, option_id, user_id, voter_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, query, vote.ID, vote.PollID, vote.OptionID, vote.UserID, vote.VoterIP, vote.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return domain.ErrAlreadyVoted
	case isForeignKeyViolation(err, "votes_option_fk"):
		return domain.ErrInvalidOption
	case isForeignKeyViolation(err, ""):
		return domain.ErrUnauthorized
	case err != nil:
		return wrapErr("failed to save vote", err)
	}

	bump := `
		INSERT INTO poll_tally_versions (poll_id, version) VALUES ($1, 1)
		ON CONFLICT (poll_id) DO UPDATE SET version = poll_tally_versions.version + 1
	`
	if _, err := tx.ExecContext(ctx, bump, vote.PollID); err != nil {
		return wrapErr("failed to bump tally version", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit vote", err)
	}
	return nil
}

func (r *voteRepository) GetUserVote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Vote, error) {
	query := `
		SELECT id, poll_id, option_id, user_id, voter_ip, created_at
		FROM votes
		WHERE poll_id = $1 AND user_id = $2
	`
	var vote domain.Vote
	err := r.db.QueryRowContext(ctx, query, pollID, userID).Scan(
		&vote.ID, &vote.PollID, &vote.OptionID, &vote.UserID, &vote.VoterIP, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, wrapErr(fmt.Sprintf("failed to get vote of user %s", userID), err)
	}
	vote.CreatedAt = vote.CreatedAt.UTC()
	return &vote, nil
}
