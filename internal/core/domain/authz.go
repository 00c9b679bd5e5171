package domain

type Action string

const (
	ActionViewPoll    Action = "poll:view"
	ActionViewResults Action = "poll:results"
	ActionCreatePoll  Action = "poll:create"
	ActionUpdatePoll  Action = "poll:update"
	ActionDeletePoll  Action = "poll:delete"
	ActionCastVote    Action = "vote:cast"
)

// Authorize decides whether identity may perform action on poll. identity is
// nil for anonymous callers; poll may be nil for actions without a target.
func Authorize(identity *Identity, action Action, poll *Poll) error {
	switch action {
	case ActionViewPoll, ActionViewResults:
		return nil
	}

	if identity == nil {
		return ErrUnauthorized
	}

	switch action {
	case ActionCastVote:
		return nil
	case ActionCreatePoll:
		if identity.IsAdmin() {
			return nil
		}
	case ActionUpdatePoll, ActionDeletePoll:
		if identity.IsAdmin() {
			return nil
		}
		if poll != nil && poll.OwnerID == identity.UserID {
			return nil
		}
	}
	return ErrForbidden
}
