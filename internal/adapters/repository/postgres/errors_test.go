package postgres

import (
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

func TestWrapErr(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"bad connection", driver.ErrBadConn, true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapErr("op", tt.err)
			assert.Equal(t, tt.unavailable, errors.Is(err, domain.ErrUnavailable))
		})
	}
}

func TestConstraintHelpers(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))

	fk := &pq.Error{Code: "23503", Constraint: "votes_option_fk"}
	assert.True(t, isForeignKeyViolation(fk, "votes_option_fk"))
	assert.True(t, isForeignKeyViolation(fk, ""))
	assert.False(t, isForeignKeyViolation(fk, "votes_user_id_fkey"))
}
