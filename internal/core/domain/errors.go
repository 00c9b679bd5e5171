package domain

import "errors"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidPollID = errors.New("invalid poll id")
	ErrInvalidOption = errors.New("invalid option for this poll")
	ErrPollExpired   = errors.New("poll has expired")
	ErrAlreadyVoted  = errors.New("user has already voted")
	ErrVoteNotFound  = errors.New("user did not vote on this poll")
	ErrPollLocked    = errors.New("poll cannot be changed after votes were cast")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("not allowed to perform this action")

	// ErrUnavailable marks a transient store failure. Callers may retry.
	ErrUnavailable = errors.New("service temporarily unavailable")

	ErrValidation = errors.New("invalid request")
	ErrInternal   = errors.New("internal server error")
)

// ValidationError carries a user-facing message and unwraps to ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}
