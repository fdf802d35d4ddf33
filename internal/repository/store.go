package repository

import (
	"context"
	"time"

	"github.com/iliyamo/club-event-engine/internal/model"
)

// Store opens units of work.  Write runs fn inside a transaction that is
// committed when fn returns nil and rolled back otherwise.  Read runs fn
// against a consistent read-only view.
type Store interface {
	Read(ctx context.Context, fn func(tx Tx) error) error
	Write(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the per-entity repositories bound to one unit of work.
type Tx interface {
	Halls() HallRepository
	Events() EventRepository
	Ideas() IdeaRepository
	Registrations() RegistrationRepository
	Teams() TeamRepository
}

// HallRepository persists halls.
type HallRepository interface {
	// List returns every hall ordered by capacity then id.
	List(ctx context.Context) ([]model.Hall, error)
	GetByID(ctx context.Context, id uint64) (*model.Hall, error)
	// Lock reads the hall and holds a write lock on it until the unit of
	// work ends.  Booking checks for the hall serialize on this lock.
	Lock(ctx context.Context, id uint64) (*model.Hall, error)
	Create(ctx context.Context, h *model.Hall) error
	UpdateCapacity(ctx context.Context, id uint64, capacity uint32) error
}

// EventFilter narrows event listings.  Zero values mean no filter.
type EventFilter struct {
	Statuses     []model.EventStatus
	ClubID       uint64
	AcceptsIdeas *bool
	StartFrom    *time.Time
	StartBefore  *time.Time
}

// EventRepository persists events and topics.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	// GetByID loads an event; forUpdate holds a write lock on the row.
	GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, f EventFilter) ([]model.Event, error)
	// Bookings returns the events holding hallID (PUBLISHED or
	// PENDING_APPROVAL) whose window overlaps w.
	Bookings(ctx context.Context, hallID uint64, w model.Window) ([]model.Booking, error)
}

// IdeaRepository persists ideas.
type IdeaRepository interface {
	Create(ctx context.Context, i *model.Idea) error
	GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.Idea, error)
	UpdateStatus(ctx context.Context, id uint64, status model.IdeaStatus) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Idea, error)
	CountByStudent(ctx context.Context, eventID, studentID uint64) (int, error)
	DeleteByEvent(ctx context.Context, eventID uint64) error
}

// RegistrationRepository persists individual registrations.
type RegistrationRepository interface {
	Create(ctx context.Context, r *model.Registration) error
	GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.Registration, error)
	UpdateStatus(ctx context.Context, id uint64, status model.RegistrationStatus) error
	// FindActive returns the registration of userID on eventID that is not
	// CANCELLED or WITHDRAWN, or ErrNotFound.
	FindActive(ctx context.Context, eventID, userID uint64) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Registration, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Registration, error)
	CountAccepted(ctx context.Context, eventID uint64) (int, error)
	// CancelRegistered moves every REGISTERED row of the event to CANCELLED
	// and returns the number of rows changed.
	CancelRegistered(ctx context.Context, eventID uint64) (int64, error)
}

// TeamRepository persists team registrations and their members.
type TeamRepository interface {
	Create(ctx context.Context, t *model.TeamRegistration) error
	GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.TeamRegistration, error)
	UpdateStatus(ctx context.Context, id uint64, status model.RegistrationStatus) error
	FindActiveByLeader(ctx context.Context, eventID, leaderID uint64) (*model.TeamRegistration, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.TeamRegistration, error)
	ListByLeader(ctx context.Context, leaderID uint64) ([]model.TeamRegistration, error)
	// AcceptedRollNumbers returns the roll numbers of every member of an
	// accepted team on the event.
	AcceptedRollNumbers(ctx context.Context, eventID uint64) ([]string, error)
	// SumAcceptedMembers counts the seats held by accepted teams.
	SumAcceptedMembers(ctx context.Context, eventID uint64) (int, error)
	CancelRegistered(ctx context.Context, eventID uint64) (int64, error)
}
