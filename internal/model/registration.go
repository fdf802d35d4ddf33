package model

import "time"

// RegistrationStatus is shared by individual and team registrations.
type RegistrationStatus string

const (
	RegRegistered RegistrationStatus = "REGISTERED"
	RegAttended   RegistrationStatus = "ATTENDED"
	RegNoShow     RegistrationStatus = "NO_SHOW"
	RegCancelled  RegistrationStatus = "CANCELLED"
	RegWithdrawn  RegistrationStatus = "WITHDRAWN"
)

// AcceptedStatuses are the statuses that consume capacity.
var AcceptedStatuses = []RegistrationStatus{RegRegistered, RegAttended, RegNoShow}

// Accepted reports whether the registration counts against capacity.
func (s RegistrationStatus) Accepted() bool {
	return s == RegRegistered || s == RegAttended || s == RegNoShow
}

// PaymentStatus records whether a fee is owed.
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "NOT_REQUIRED"
	PaymentPending     PaymentStatus = "PENDING"
	PaymentPaid        PaymentStatus = "PAID"
)

// Registration is an individual sign-up for a published event.
type Registration struct {
	ID            uint64             `json:"id"`             // registrations.id
	EventID       uint64             `json:"event_id"`       // registrations.event_id
	UserID        uint64             `json:"user_id"`        // registrations.user_id
	RollNumber    string             `json:"roll_number"`    // registrations.roll_number
	Notes         string             `json:"notes"`          // registrations.notes
	Status        RegistrationStatus `json:"status"`         // registrations.status
	PaymentStatus PaymentStatus      `json:"payment_status"` // registrations.payment_status
	RegisteredAt  time.Time          `json:"registered_at"`  // registrations.registered_at
	UpdatedAt     time.Time          `json:"updated_at"`     // registrations.updated_at
}

// TeamMember is one entry of a team's ordered member list.
type TeamMember struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"rollnumber"`
}

// TeamRegistration is a team sign-up.  Each member consumes one seat.
type TeamRegistration struct {
	ID            uint64             `json:"id"`             // team_registrations.id
	EventID       uint64             `json:"event_id"`       // team_registrations.event_id
	TeamName      string             `json:"team_name"`      // team_registrations.team_name
	LeaderUserID  uint64             `json:"leader_user_id"` // team_registrations.leader_user_id
	Members       []TeamMember       `json:"members"`        // team_members rows ordered by position
	Status        RegistrationStatus `json:"status"`         // team_registrations.status
	PaymentStatus PaymentStatus      `json:"payment_status"` // team_registrations.payment_status
	RegisteredAt  time.Time          `json:"registered_at"`  // team_registrations.registered_at
	UpdatedAt     time.Time          `json:"updated_at"`     // team_registrations.updated_at
}

// Size is the number of seats the team consumes.
func (t *TeamRegistration) Size() int { return len(t.Members) }

// Role names carried in the identity token.
const (
	RoleStudent    = "STUDENT"
	RoleClubAdmin  = "CLUB_ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Caller is the authenticated identity supplied with every mutating call.
type Caller struct {
	UserID uint64
	Role   string
	Name   string
}
