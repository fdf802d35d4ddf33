package model

import "time"

// IdeaStatus tracks an idea through club admin review.
type IdeaStatus string

const (
	IdeaSubmitted    IdeaStatus = "SUBMITTED"
	IdeaUnderReview  IdeaStatus = "UNDER_REVIEW"
	IdeaApproved     IdeaStatus = "APPROVED"
	IdeaImplementing IdeaStatus = "IMPLEMENTING"
	IdeaCompleted    IdeaStatus = "COMPLETED"
	IdeaRejected     IdeaStatus = "REJECTED"
)

// Idea is a student proposal submitted against a topic.
type Idea struct {
	ID              uint64     `json:"id"`               // ideas.id
	EventID         uint64     `json:"event_id"`         // ideas.event_id (the topic)
	StudentID       uint64     `json:"student_id"`       // ideas.student_id
	Title           string     `json:"title"`            // ideas.title
	Description     string     `json:"description"`      // ideas.description
	ExpectedOutcome string     `json:"expected_outcome"` // ideas.expected_outcome
	Status          IdeaStatus `json:"status"`           // ideas.status
	CreatedAt       time.Time  `json:"created_at"`       // ideas.created_at
	UpdatedAt       time.Time  `json:"updated_at"`       // ideas.updated_at
}
