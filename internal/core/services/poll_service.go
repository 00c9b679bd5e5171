package services

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

const (
	pollsPageSize       = 10
	DefaultPollTTL      = 7 * 24 * time.Hour
	maxTitleLength      = 255
	maxOptionTextLength = 255
)

type pollService struct {
	repo       ports.PollRepository
	defaultTTL time.Duration
	clock      ports.Clock
	logger     *slog.Logger
}

func NewPollService(repo ports.PollRepository, defaultTTL time.Duration, opts ...Option) ports.PollService {
	o := newOptions(opts)
	if defaultTTL <= 0 {
		defaultTTL = DefaultPollTTL
	}
	return &pollService{
		repo:       repo,
		defaultTTL: defaultTTL,
		clock:      o.clock,
		logger:     o.logger,
	}
}

func (s *pollService) Create(ctx context.Context, identity *domain.Identity, input ports.CreatePollInput) (*domain.Poll, error) {
	if err := domain.Authorize(identity, domain.ActionCreatePoll, nil); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, domain.NewValidationError("title is too long")
	}
	if len(input.Options) < 2 {
		return nil, domain.NewValidationError("at least two options are required")
	}

	pollID := uuid.New()
	now := s.clock.Now().UTC()

	expiresAt := now.Add(s.defaultTTL)
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(now) {
			return nil, domain.NewValidationError("expires_at must be in the future")
		}
		expiresAt = input.ExpiresAt.UTC()
	}

	poll := &domain.Poll{
		ID:          pollID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     identity.UserID,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	for _, optText := range input.Options {
		optText = strings.TrimSpace(optText)
		if optText == "" {
			continue
		}
		if len(optText) > maxOptionTextLength {
			return nil, domain.NewValidationError("option text is too long")
		}
		poll.Options = append(poll.Options, domain.PollOption{
			ID:        uuid.New(),
			PollID:    pollID,
			Text:      optText,
			CreatedAt: now,
		})
	}

	if len(poll.Options) < 2 {
		return nil, domain.NewValidationError("at least two valid options are required")
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		return nil, err
	}

	s.logger.Info("poll created",
		"event", "poll_created",
		"poll_id", poll.ID,
		"owner_id", poll.OwnerID,
		"options", len(poll.Options),
		"expires_at", poll.ExpiresAt,
	)
	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	return s.repo.GetByID(ctx, pollID)
}

func (s *pollService) ListPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > math.MaxInt/pollsPageSize {
		return nil, domain.NewValidationError("page is out of range")
	}

	filter := ports.PollFilter{
		Limit:  pollsPageSize,
		Offset: (page - 1) * pollsPageSize,
		Query:  strings.TrimSpace(input.Query),
	}
	if !input.IncludeExpired {
		now := s.clock.Now().UTC()
		filter.ActiveAt = &now
	}

	polls, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if polls == nil {
		polls = []*domain.Poll{}
	}
	return polls, nil
}

func (s *pollService) Update(ctx context.Context, identity *domain.Identity, id string, input ports.UpdatePollInput) (*domain.Poll, error) {
	poll, err := s.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(identity, domain.ActionUpdatePoll, poll); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.NewValidationError("title is required")
		}
		if len(title) > maxTitleLength {
			return nil, domain.NewValidationError("title is too long")
		}
		poll.Title = title
	}
	if input.Description != nil {
		poll.Description = strings.TrimSpace(*input.Description)
	}
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(s.clock.Now()) {
			return nil, domain.NewValidationError("expires_at must be in the future")
		}
		poll.ExpiresAt = input.ExpiresAt.UTC()
	}

	if err := s.repo.Update(ctx, poll); err != nil {
		return nil, err
	}

	s.logger.Info("poll updated",
		"event", "poll_updated",
		"poll_id", poll.ID,
		"user_id", identity.UserID,
	)
	return poll, nil
}

func (s *pollService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	poll, err := s.GetPoll(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.Authorize(identity, domain.ActionDeletePoll, poll); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, poll.ID); err != nil {
		return err
	}

	s.logger.Info("poll deleted",
		"event", "poll_deleted",
		"poll_id", poll.ID,
		"user_id", identity.UserID,
	)
	return nil
}
