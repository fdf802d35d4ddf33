package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

func TestNextFollowsTransitionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from   model.EventStatus
		action Action
		want   model.EventStatus
	}{
		{model.EventDraft, ActionSubmit, model.EventPendingApproval},
		{model.EventPendingApproval, ActionApprove, model.EventPublished},
		{model.EventPendingApproval, ActionReject, model.EventRejected},
		{model.EventRejected, ActionResubmit, model.EventPendingApproval},
		{model.EventPublished, ActionComplete, model.EventCompleted},
		{model.EventPublished, ActionCancel, model.EventCancelled},
		{model.EventPendingApproval, ActionCancel, model.EventCancelled},
	}
	for _, tc := range cases {
		got, err := Next(tc.from, tc.action)
		if err != nil {
			t.Fatalf("Next(%s, %s) error: %v", tc.from, tc.action, err)
		}
		if got != tc.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", tc.from, tc.action, got, tc.want)
		}
	}
}

func TestNextRejectsIllegalTransitions(t *testing.T) {
	t.Parallel()

	illegal := []struct {
		from   model.EventStatus
		action Action
	}{
		{model.EventDraft, ActionApprove},
		{model.EventDraft, ActionCancel},
		{model.EventPublished, ActionApprove},
		{model.EventPublished, ActionSubmit},
		{model.EventRejected, ActionApprove},
		{model.EventCancelled, ActionCancel},
		{model.EventCompleted, ActionCancel},
		{model.EventCancelled, ActionResubmit},
	}
	for _, tc := range illegal {
		got, err := Next(tc.from, tc.action)
		if !errors.Is(err, apperr.New(apperr.CodeInvalidTransition, "")) {
			t.Fatalf("Next(%s, %s) err = %v, want InvalidTransition", tc.from, tc.action, err)
		}
		if got != tc.from {
			t.Fatalf("Next(%s, %s) changed state to %s", tc.from, tc.action, got)
		}
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			t.Fatalf("expected *apperr.Error, got %T", err)
		}
		if ae.Metadata["current"] != string(tc.from) || ae.Metadata["requested"] != string(tc.action) {
			t.Fatalf("metadata = %v, want current=%s requested=%s", ae.Metadata, tc.from, tc.action)
		}
	}
}

func TestAllowedForPendingApproval(t *testing.T) {
	t.Parallel()

	got := Allowed(model.EventPendingApproval)
	want := []Action{ActionApprove, ActionReject, ActionCancel}
	if len(got) != len(want) {
		t.Fatalf("Allowed = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allowed = %v, want %v", got, want)
		}
	}
	if len(Allowed(model.EventCancelled)) != 0 {
		t.Fatal("cancelled events must be terminal")
	}
}

func TestNextIdea(t *testing.T) {
	t.Parallel()

	if err := NextIdea(model.IdeaSubmitted, model.IdeaApproved); err != nil {
		t.Fatalf("submitted -> approved: %v", err)
	}
	if err := NextIdea(model.IdeaApproved, model.IdeaImplementing); err != nil {
		t.Fatalf("approved -> implementing: %v", err)
	}
	if err := NextIdea(model.IdeaRejected, model.IdeaApproved); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("rejected -> approved err = %v, want InvalidTransition", err)
	}
	if err := NextIdea(model.IdeaSubmitted, model.IdeaCompleted); err == nil {
		t.Fatal("expected submitted -> completed to fail")
	}
}

func TestCompleteIfEnded(t *testing.T) {
	t.Parallel()

	end := time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &model.Event{Status: model.EventPublished, EndDateTime: &end}
	if CompleteIfEnded(e, end) {
		t.Fatal("event must not complete at its end instant")
	}
	if !CompleteIfEnded(e, end.Add(time.Second)) {
		t.Fatal("expected completion after end")
	}
	if e.Status != model.EventCompleted {
		t.Fatalf("status = %s, want COMPLETED", e.Status)
	}
	draft := &model.Event{Status: model.EventDraft, EndDateTime: &end}
	if CompleteIfEnded(draft, end.Add(time.Hour)) {
		t.Fatal("only published events complete")
	}
}
