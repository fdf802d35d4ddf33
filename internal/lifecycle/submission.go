package lifecycle

import (
	"time"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

// Submission carries the scheduling data required to request approval.
type Submission struct {
	HallID          *uint64
	StartDateTime   *time.Time
	EndDateTime     *time.Time
	MaxParticipants *uint32
}

// ValidateSubmission checks the required fields of a submitForApproval or
// resubmit request.  The schedule must lie strictly in the future.
func ValidateSubmission(s Submission, now time.Time) error {
	switch {
	case s.HallID == nil || *s.HallID == 0:
		return apperr.Validation("hall_id", "hall_id is required")
	case s.StartDateTime == nil:
		return apperr.Validation("start_date_time", "start_date_time is required")
	case s.EndDateTime == nil:
		return apperr.Validation("end_date_time", "end_date_time is required")
	case s.MaxParticipants == nil || *s.MaxParticipants == 0:
		return apperr.Validation("max_participants", "max_participants must be greater than zero")
	}
	return ValidateSchedule(*s.StartDateTime, *s.EndDateTime, now)
}

// ValidateSchedule enforces start < end with both strictly after now.
func ValidateSchedule(start, end, now time.Time) error {
	if !start.Before(end) {
		return apperr.Validation("end_date_time", "end_date_time must be after start_date_time")
	}
	if !start.After(now) {
		return apperr.Validation("start_date_time", "start_date_time must be in the future")
	}
	return nil
}

// ValidateTeamBounds checks the team size settings of a team event.
func ValidateTeamBounds(isTeam bool, min, max *uint32) error {
	if !isTeam {
		return nil
	}
	if min == nil || max == nil {
		return apperr.Validation("min_team_members", "team events require min_team_members and max_team_members")
	}
	if *min == 0 {
		return apperr.Validation("min_team_members", "min_team_members must be at least 1")
	}
	if *min > *max {
		return apperr.Validation("max_team_members", "min_team_members must not exceed max_team_members")
	}
	return nil
}

// ValidateTopic enforces the topic-mode shape: no schedule, hall or
// capacity until the topic is promoted.
func ValidateTopic(e *model.Event) error {
	if !e.AcceptsIdeas {
		return apperr.Validation("accepts_ideas", "topic must accept ideas")
	}
	switch {
	case e.StartDateTime != nil:
		return apperr.Validation("start_date_time", "topics cannot have a start time")
	case e.EndDateTime != nil:
		return apperr.Validation("end_date_time", "topics cannot have an end time")
	case e.HallID != nil:
		return apperr.Validation("hall_id", "topics cannot have a hall")
	case e.MaxParticipants != nil:
		return apperr.Validation("max_participants", "topics cannot have a participant limit")
	}
	return nil
}

// Apply copies the submission onto the event and resolves it to event
// mode.
func Apply(e *model.Event, s Submission) {
	e.HallID = s.HallID
	e.StartDateTime = s.StartDateTime
	e.EndDateTime = s.EndDateTime
	e.MaxParticipants = s.MaxParticipants
	e.AcceptsIdeas = false
	e.IdeaSubmissionDeadline = nil
}

// CompleteIfEnded applies the lazy PUBLISHED -> COMPLETED transition and
// reports whether the event changed.
func CompleteIfEnded(e *model.Event, now time.Time) bool {
	if e.Status != model.EventPublished || e.EndDateTime == nil {
		return false
	}
	if now.After(*e.EndDateTime) {
		e.Status = model.EventCompleted
		return true
	}
	return false
}
