package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is an authenticated caller as established by an access token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
