package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote is an immutable ledger entry. (UserID, PollID) is unique.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	UserID    uuid.UUID `json:"user_id"`
	VoterIP   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
