// Package queue defines the notification payloads exchanged over the message
// broker, the RabbitMQ publisher and the audit consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQueueName is the durable queue lifecycle notifications are sent to.
const DefaultQueueName = "club.events"

// Kind names a notification.
type Kind string

const (
	KindSubmitted   Kind = "event.submitted"
	KindApproved    Kind = "event.approved"
	KindPublished   Kind = "event.published"
	KindRejected    Kind = "event.rejected"
	KindResubmitted Kind = "event.resubmitted"
	KindCancelled   Kind = "event.cancelled"
	KindCompleted   Kind = "event.completed"
	KindReminder    Kind = "event.reminder"
)

// Notification is published whenever an event changes state and once per
// participant for the daily reminder.  It carries enough information for
// downstream consumers to log or notify without querying the database.
type Notification struct {
	ID              string    `json:"id"`                          // unique message id
	Kind            Kind      `json:"kind"`                        // what happened
	EventID         uint64    `json:"event_id"`                    // affected event
	Title           string    `json:"title"`                       // event title at the time of the change
	Status          string    `json:"status"`                      // event status after the change
	ActorID         uint64    `json:"actor_id,omitempty"`          // caller who made the change
	Reason          string    `json:"reason,omitempty"`            // rejection reason
	RecipientUserID uint64    `json:"recipient_user_id,omitempty"` // reminder target
	StartsAt        string    `json:"starts_at,omitempty"`         // RFC3339 start, when scheduled
	OccurredAt      time.Time `json:"occurred_at"`                 // UTC time of the change
}

// NewNotification stamps a fresh id and the occurrence time.
func NewNotification(kind Kind, eventID uint64, title, status string, at time.Time) Notification {
	return Notification{
		ID:         uuid.NewString(),
		Kind:       kind,
		EventID:    eventID,
		Title:      title,
		Status:     status,
		OccurredAt: at.UTC(),
	}
}
