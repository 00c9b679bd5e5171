package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type updatePollRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Admin only. expires_at defaults to seven days from now.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400,401,403
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input := ports.CreatePollInput{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
		ExpiresAt:   req.ExpiresAt,
	}

	poll, err := h.service.Create(r.Context(), IdentityFrom(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, poll)
}

// ListPolls godoc
// @Summary      Lists polls
// @Description  Ten polls per page, most voted first. Expired polls are hidden unless include_expired=true.
// @Tags         polls
// @Produce      json
// @Param        page             query  int     false  "page number, starting at 1"
// @Param        q                query  string  false  "title filter"
// @Param        include_expired  query  bool    false  "include closed polls"
// @Success      200
// @Router       /api/polls [get]
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, r, invalidQuery("page"))
			return
		}
		page = n
	}

	var includeExpired bool
	if v := query.Get("include_expired"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, invalidQuery("include_expired"))
			return
		}
		includeExpired = b
	}

	polls, err := h.service.ListPolls(r.Context(), ports.ListPollsInput{
		Page:           page,
		Query:          query.Get("q"),
		IncludeExpired: includeExpired,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, polls)
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// UpdatePoll godoc
// @Summary      Updates a poll
// @Description  Owner or admin. Rejected once the poll has votes.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      401,403,404,409
// @Router       /api/polls/{id} [patch]
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	var req updatePollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	poll, err := h.service.Update(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "id"), ports.UpdatePollInput{
		Title:       req.Title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
