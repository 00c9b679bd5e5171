package domain

import (
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Options     []PollOption `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type PollOption struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether votes are still accepted at t.
// A poll closes at its expiry instant: t == ExpiresAt is already closed.
func (p *Poll) IsActive(t time.Time) bool {
	return t.Before(p.ExpiresAt)
}

// Option returns the option with the given id, if it belongs to this poll.
func (p *Poll) Option(id uuid.UUID) (PollOption, bool) {
	for _, opt := range p.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return PollOption{}, false
}
