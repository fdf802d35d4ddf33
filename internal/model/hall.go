package model

import "time"

// Hall is a bookable venue.  Halls are created by facilities staff and
// are immutable afterwards except for capacity corrections.
type Hall struct {
	ID              uint64    `json:"id"`               // halls.id
	Name            string    `json:"name"`             // halls.name
	Location        string    `json:"location"`         // halls.location
	SeatingCapacity uint32    `json:"seating_capacity"` // halls.seating_capacity, always > 0
	CreatedAt       time.Time `json:"created_at"`       // halls.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // halls.updated_at
}

// Booking is a hall reservation derived from an event that holds the hall
// (status PUBLISHED or PENDING_APPROVAL).  It is not stored on its own.
type Booking struct {
	EventID uint64      `json:"event_id"`
	HallID  uint64      `json:"hall_id"`
	Window  Window      `json:"window"`
	Status  EventStatus `json:"status"`
}
