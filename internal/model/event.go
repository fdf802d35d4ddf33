package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft           EventStatus = "DRAFT"
	EventPendingApproval EventStatus = "PENDING_APPROVAL"
	EventPublished       EventStatus = "PUBLISHED"
	EventRejected        EventStatus = "REJECTED"
	EventCompleted       EventStatus = "COMPLETED"
	EventCancelled       EventStatus = "CANCELLED"
)

// ApprovalStatus records the outcome of the super admin review.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// EventType classifies an event for listings.
type EventType string

const (
	TypeWorkshop    EventType = "WORKSHOP"
	TypeSeminar     EventType = "SEMINAR"
	TypeCompetition EventType = "COMPETITION"
	TypeHackathon   EventType = "HACKATHON"
	TypeConference  EventType = "CONFERENCE"
	TypeNetworking  EventType = "NETWORKING"
	TypeSocial      EventType = "SOCIAL"
	TypeSports      EventType = "SPORTS"
	TypeCultural    EventType = "CULTURAL"
	TypeTechnical   EventType = "TECHNICAL"
	TypeOther       EventType = "OTHER"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case TypeWorkshop, TypeSeminar, TypeCompetition, TypeHackathon, TypeConference,
		TypeNetworking, TypeSocial, TypeSports, TypeCultural, TypeTechnical, TypeOther:
		return true
	}
	return false
}

// Event is either a topic collecting ideas (AcceptsIdeas=true) or a
// concrete scheduled event.  A topic has no schedule, hall or capacity;
// promotion to a concrete event is one-way.
//
// Nullable columns are pointers so that nil means "not set".  A nil
// MaxParticipants means unlimited.
type Event struct {
	ID                     uint64         `json:"id"`                                 // events.id
	Title                  string         `json:"title"`                              // events.title
	Description            string         `json:"description"`                        // events.description
	ClubID                 uint64         `json:"club_id"`                            // events.club_id
	Type                   EventType      `json:"type"`                               // events.type
	Location               string         `json:"location,omitempty"`                 // events.location
	ImageURL               string         `json:"image_url,omitempty"`                // events.image_url, opaque media URL
	AcceptsIdeas           bool           `json:"accepts_ideas"`                      // events.accepts_ideas
	IdeaSubmissionDeadline *time.Time     `json:"idea_submission_deadline,omitempty"` // events.idea_submission_deadline
	StartDateTime          *time.Time     `json:"start_date_time,omitempty"`          // events.start_at
	EndDateTime            *time.Time     `json:"end_date_time,omitempty"`            // events.end_at
	RegistrationDeadline   *time.Time     `json:"registration_deadline,omitempty"`    // events.registration_deadline
	HallID                 *uint64        `json:"hall_id,omitempty"`                  // events.hall_id
	MaxParticipants        *uint32        `json:"max_participants,omitempty"`         // events.max_participants
	RegistrationFeeCents   uint32         `json:"registration_fee_cents"`             // events.registration_fee_cents
	IsTeamEvent            bool           `json:"is_team_event"`                      // events.is_team_event
	MinTeamMembers         *uint32        `json:"min_team_members,omitempty"`         // events.min_team_members
	MaxTeamMembers         *uint32        `json:"max_team_members,omitempty"`         // events.max_team_members
	Status                 EventStatus    `json:"status"`                             // events.status
	ApprovalStatus         ApprovalStatus `json:"approval_status"`                    // events.approval_status
	RejectionReason        *string        `json:"rejection_reason,omitempty"`         // events.rejection_reason
	ApprovedByID           *uint64        `json:"approved_by_id,omitempty"`           // events.approved_by_id
	ApprovedByName         *string        `json:"approved_by_name,omitempty"`         // events.approved_by_name
	ApprovalDate           *time.Time     `json:"approval_date,omitempty"`            // events.approval_date
	SourceIdeaID           *uint64        `json:"source_idea_id,omitempty"`           // events.source_idea_id
	CreatedBy              uint64         `json:"created_by"`                         // events.created_by
	CreatedAt              time.Time      `json:"created_at"`                         // events.created_at
	UpdatedAt              time.Time      `json:"updated_at"`                         // events.updated_at
}

// Window returns the scheduled interval and false when the event has no
// complete schedule yet.
func (e *Event) Window() (Window, bool) {
	if e.StartDateTime == nil || e.EndDateTime == nil {
		return Window{}, false
	}
	return Window{Start: *e.StartDateTime, End: *e.EndDateTime}, true
}

// RegistrationCloses returns the instant after which registration is no
// longer accepted: the registration deadline when it precedes the start,
// otherwise the start itself.
func (e *Event) RegistrationCloses() (time.Time, bool) {
	if e.StartDateTime == nil {
		return time.Time{}, false
	}
	closes := *e.StartDateTime
	if e.RegistrationDeadline != nil && e.RegistrationDeadline.Before(closes) {
		closes = *e.RegistrationDeadline
	}
	return closes, true
}

// HoldsHall reports whether the event currently blocks its hall.
func (s EventStatus) HoldsHall() bool {
	return s == EventPublished || s == EventPendingApproval
}
