package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{domain.ErrPollNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrVoteNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidOption, http.StatusBadRequest, "invalid_option"},
	{domain.ErrPollExpired, http.StatusGone, "poll_expired"},
	{domain.ErrAlreadyVoted, http.StatusConflict, "duplicate_vote"},
	{domain.ErrPollLocked, http.StatusConflict, "poll_locked"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{domain.ErrInvalidPollID, http.StatusBadRequest, "invalid_request"},
	{domain.ErrValidation, http.StatusBadRequest, "invalid_request"},
	{domain.ErrEmailTaken, http.StatusConflict, "conflict"},
}

// writeError maps err onto a stable code and status. Messages of unmapped
// errors never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			msg = vErr.Msg
		}
		if m.status == http.StatusServiceUnavailable {
			slog.WarnContext(r.Context(), "store unavailable",
				"event", "http_unavailable",
				"request_id", middleware.GetReqID(r.Context()),
				"error", err,
			)
		}
		writeJSON(w, m.status, errorBody{Error: errorDetail{Code: m.code, Message: msg}})
		return
	}

	slog.ErrorContext(r.Context(), "request failed",
		"event", "http_internal_error",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Code: "internal", Message: domain.ErrInternal.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "event", "http_encode_failed", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("invalid request body")
	}
	return nil
}
