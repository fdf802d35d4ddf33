// Package lifecycle holds the event approval state machine and the idea
// review state machine.  Both are pure: callers load the entity, ask for
// the transition and persist the result.
package lifecycle

import (
	"fmt"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

// Action names a requested lifecycle transition.
type Action string

const (
	ActionSubmit   Action = "submitForApproval"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionResubmit Action = "resubmit"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

type edge struct {
	from   model.EventStatus
	action Action
}

var eventTransitions = map[edge]model.EventStatus{
	{model.EventDraft, ActionSubmit}:            model.EventPendingApproval,
	{model.EventPendingApproval, ActionApprove}: model.EventPublished,
	{model.EventPendingApproval, ActionReject}:  model.EventRejected,
	{model.EventRejected, ActionResubmit}:       model.EventPendingApproval,
	{model.EventPublished, ActionComplete}:      model.EventCompleted,
	{model.EventPublished, ActionCancel}:        model.EventCancelled,
	{model.EventPendingApproval, ActionCancel}:  model.EventCancelled,
}

// Next returns the state reached by applying action in state from, or an
// InvalidTransition error naming both.
func Next(from model.EventStatus, action Action) (model.EventStatus, error) {
	to, ok := eventTransitions[edge{from, action}]
	if !ok {
		return from, InvalidTransition(string(from), string(action))
	}
	return to, nil
}

// Allowed lists the actions legal in state s.
func Allowed(s model.EventStatus) []Action {
	var out []Action
	for _, a := range []Action{ActionSubmit, ActionApprove, ActionReject, ActionResubmit, ActionComplete, ActionCancel} {
		if _, ok := eventTransitions[edge{s, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}

// InvalidTransition builds the error returned for an illegal transition.
func InvalidTransition(current, requested string) *apperr.Error {
	return apperr.WithMetadata(apperr.CodeInvalidTransition,
		fmt.Sprintf("cannot %s an event in state %s", requested, current),
		map[string]string{"current": current, "requested": requested})
}

var ideaTransitions = map[model.IdeaStatus][]model.IdeaStatus{
	model.IdeaSubmitted:    {model.IdeaUnderReview, model.IdeaApproved, model.IdeaRejected},
	model.IdeaUnderReview:  {model.IdeaApproved, model.IdeaRejected},
	model.IdeaApproved:     {model.IdeaImplementing, model.IdeaRejected},
	model.IdeaImplementing: {model.IdeaCompleted},
}

// NextIdea validates an idea status change requested by a club admin.
func NextIdea(from, to model.IdeaStatus) error {
	for _, s := range ideaTransitions[from] {
		if s == to {
			return nil
		}
	}
	return apperr.WithMetadata(apperr.CodeInvalidTransition,
		fmt.Sprintf("cannot move idea from %s to %s", from, to),
		map[string]string{"current": string(from), "requested": string(to)})
}
