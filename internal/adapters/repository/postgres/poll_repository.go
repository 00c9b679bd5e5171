package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (id, title, description, owner_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	owner := uuid.NullUUID{UUID: poll.OwnerID, Valid: poll.OwnerID != uuid.Nil}
	_, err = tx.ExecContext(ctx, queryPoll, poll.ID, poll.Title, poll.Description, owner, poll.CreatedAt, poll.ExpiresAt)
	if err != nil {
		return wrapErr("failed to insert poll", err)
	}

	queryOption := `
		INSERT INTO poll_options (id, poll_id, text, position, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return wrapErr("failed to prepare option statement", err)
	}
	defer stmt.Close()

	for i, opt := range poll.Options {
		_, err = stmt.ExecContext(ctx, opt.ID, poll.ID, opt.Text, i, opt.CreatedAt)
		if err != nil {
			return wrapErr("failed to insert option", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit transaction", err)
	}

	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	queryPoll := `
		SELECT id, title, description, owner_id, created_at, expires_at
		FROM polls
		WHERE id = $1
	`

	poll, err := scanPoll(r.db.QueryRowContext(ctx, queryPoll, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, wrapErr("failed to get poll", err)
	}

	if err := r.attachOptions(ctx, []*domain.Poll{poll}); err != nil {
		return nil, err
	}
	return poll, nil
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	query := `
		SELECT id, title, description, owner_id, created_at, expires_at
		FROM polls
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to get all polls", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

// List orders polls by their last summarized vote count, newest first on
// ties.
func (r *pollRepository) List(ctx context.Context, filter ports.PollFilter) ([]*domain.Poll, error) {
	query := `
		SELECT p.id, p.title, p.description, p.owner_id, p.created_at, p.expires_at
		FROM polls p
		LEFT JOIN poll_results pr ON p.id = pr.poll_id
		WHERE ($1::timestamptz IS NULL OR p.expires_at > $1)
		  AND ($2::text = '' OR p.title ILIKE '%' || $2 || '%')
		GROUP BY p.id
		ORDER BY COALESCE(SUM(pr.vote_count), 0) DESC, p.created_at DESC
		LIMIT NULLIF($3::int, 0) OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, filter.ActiveAt, escapeLike(filter.Query), filter.Limit, filter.Offset)
	if err != nil {
		return nil, wrapErr("failed to list polls", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

func (r *pollRepository) Update(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := lockUnvotedPoll(ctx, tx, poll.ID); err != nil {
		return err
	}

	query := `
		UPDATE polls SET title = $2, description = $3, expires_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, poll.ID, poll.Title, poll.Description, poll.ExpiresAt); err != nil {
		return wrapErr("failed to update poll", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit transaction", err)
	}
	return nil
}

func (r *pollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := lockUnvotedPoll(ctx, tx, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id); err != nil {
		return wrapErr("failed to delete poll", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit transaction", err)
	}
	return nil
}

// lockUnvotedPoll takes the poll row lock that vote appends share, then
// refuses if any vote was already recorded.
func lockUnvotedPoll(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM polls WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPollNotFound
		}
		return wrapErr("failed to lock poll", err)
	}

	var voted bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM votes WHERE poll_id = $1)`, id).Scan(&voted)
	if err != nil {
		return wrapErr("failed to check poll votes", err)
	}
	if voted {
		return domain.ErrPollLocked
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var (
		poll  domain.Poll
		owner uuid.NullUUID
	)
	if err := row.Scan(&poll.ID, &poll.Title, &poll.Description, &owner, &poll.CreatedAt, &poll.ExpiresAt); err != nil {
		return nil, err
	}
	poll.OwnerID = owner.UUID
	poll.CreatedAt = poll.CreatedAt.UTC()
	poll.ExpiresAt = poll.ExpiresAt.UTC()
	return &poll, nil
}

func (r *pollRepository) scanPolls(ctx context.Context, rows *sql.Rows) ([]*domain.Poll, error) {
	polls := []*domain.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("error iterating polls", err)
	}
	rows.Close()

	if err := r.attachOptions(ctx, polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// attachOptions loads the options of every poll in one query.
func (r *pollRepository) attachOptions(ctx context.Context, polls []*domain.Poll) error {
	if len(polls) == 0 {
		return nil
	}

	ids := make([]string, len(polls))
	byID := make(map[uuid.UUID]*domain.Poll, len(polls))
	for i, p := range polls {
		ids[i] = p.ID.String()
		byID[p.ID] = p
	}

	queryOptions := `
		SELECT id, poll_id, text, created_at
		FROM poll_options
		WHERE poll_id = ANY($1::uuid[])
		ORDER BY poll_id, position
	`
	rows, err := r.db.QueryContext(ctx, queryOptions, pq.Array(ids))
	if err != nil {
		return wrapErr("failed to get poll options", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt domain.PollOption
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		opt.CreatedAt = opt.CreatedAt.UTC()
		if p, ok := byID[opt.PollID]; ok {
			p.Options = append(p.Options, opt)
		}
	}
	if err := rows.Err(); err != nil {
		return wrapErr("error iterating options", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}
