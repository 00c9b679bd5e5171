package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tally is the derived per-option vote count of one poll. Version is the
// ledger version the counts were computed from.
type Tally struct {
	PollID     uuid.UUID
	Counts     map[uuid.UUID]int64
	TotalVotes int64
	Version    int64
	ComputedAt time.Time
}

type PollOptionStats struct {
	OptionID   uuid.UUID `json:"option_id"`
	Text       string    `json:"text"`
	VoteCount  int64     `json:"votes"`
	Percentage float64   `json:"percentage"`
}

type PollResults struct {
	PollID     uuid.UUID         `json:"poll_id"`
	Options    []PollOptionStats `json:"options"`
	TotalVotes int64             `json:"total_votes"`
	ComputedAt time.Time         `json:"computed_at"`
}

// NewPollResults projects a tally onto the poll's options. Options without
// votes are reported with a zero count, in poll option order.
func NewPollResults(poll *Poll, tally *Tally) *PollResults {
	res := &PollResults{
		PollID:     poll.ID,
		Options:    make([]PollOptionStats, 0, len(poll.Options)),
		ComputedAt: tally.ComputedAt,
	}
	for _, opt := range poll.Options {
		res.TotalVotes += tally.Counts[opt.ID]
	}
	for _, opt := range poll.Options {
		count := tally.Counts[opt.ID]
		percentage := 0.0
		if res.TotalVotes > 0 {
			percentage = (float64(count) / float64(res.TotalVotes)) * 100
		}
		res.Options = append(res.Options, PollOptionStats{
			OptionID:   opt.ID,
			Text:       opt.Text,
			VoteCount:  count,
			Percentage: percentage,
		})
	}
	return res
}
