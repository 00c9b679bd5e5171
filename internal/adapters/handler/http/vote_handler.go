package http

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	tally   ports.TallyService
}

func NewVoteHandler(service ports.VoteService, tally ports.TallyService) *VoteHandler {
	return &VoteHandler{
		service: service,
		tally:   tally,
	}
}

type voteRequest struct {
	OptionID *uuid.UUID `json:"option_id"`
	// Accepted for clients that send camelCase bodies.
	OptionIDCamel *uuid.UUID `json:"optionId"`
}

func (req voteRequest) optionID() (uuid.UUID, bool) {
	switch {
	case req.OptionID != nil:
		return *req.OptionID, true
	case req.OptionIDCamel != nil:
		return *req.OptionIDCamel, true
	}
	return uuid.Nil, false
}

// VoteOnPoll godoc
// @Summary      Casts the caller's vote
// @Description  One vote per user and poll. Votes cannot be changed.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400,401,404,409,410
// @Router       /api/polls/{id}/votes [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	optionID, ok := req.optionID()
	if !ok {
		writeError(w, r, domain.NewValidationError("option_id is required"))
		return
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	identity := IdentityFrom(r.Context())
	if err := domain.Authorize(identity, domain.ActionCastVote, nil); err != nil {
		writeError(w, r, err)
		return
	}

	vote, err := h.service.Vote(r.Context(), ports.VoteInput{
		PollID:   pollID,
		OptionID: optionID,
		UserID:   identity.UserID,
		VoterIP:  ip,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, vote)
}

func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	vote, err := h.service.GetUserVote(r.Context(), pollID, IdentityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, vote)
}

// Results godoc
// @Summary      Returns the poll's current tally
// @Description  Public. Every option is listed, including those without votes.
// @Tags         votes
// @Produce      json
// @Success      200
// @Failure      404
// @Router       /api/polls/{id}/results [get]
func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := h.tally.GetResults(r.Context(), pollID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func pollIDParam(r *http.Request) (uuid.UUID, error) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidPollID
	}
	return pollID, nil
}

func invalidQuery(name string) error {
	return domain.NewValidationError("invalid query parameter: " + name)
}
