// Package registration holds the pure rules of the registration ledger:
// team shape, roll number uniqueness, payment status and capacity.
package registration

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

// NormalizeRoll trims and upper-cases a roll number for comparison.
func NormalizeRoll(roll string) string {
	return strings.ToUpper(strings.TrimSpace(roll))
}

// CheckOpen fails with EventNotOpen unless e is published and registration
// has not closed at now.
func CheckOpen(e *model.Event, now time.Time) error {
	if e.Status != model.EventPublished {
		return apperr.WithMetadata(apperr.CodeEventNotOpen, "event is not open for registration",
			map[string]string{"status": string(e.Status)})
	}
	closes, ok := e.RegistrationCloses()
	if !ok || !now.Before(closes) {
		return apperr.WithMetadata(apperr.CodeEventNotOpen, "registration has closed",
			map[string]string{"closes_at": closes.UTC().Format(time.RFC3339)})
	}
	return nil
}

// CheckMode fails with WrongEventMode when the request kind does not match
// the event.
func CheckMode(e *model.Event, team bool) error {
	if e.IsTeamEvent == team {
		return nil
	}
	if e.IsTeamEvent {
		return apperr.WithMetadata(apperr.CodeWrongEventMode, "event only accepts team registrations",
			map[string]string{"mode": "team"})
	}
	return apperr.WithMetadata(apperr.CodeWrongEventMode, "event only accepts individual registrations",
		map[string]string{"mode": "individual"})
}

// CheckTeamSize enforces min <= size <= max and names the violated bound.
func CheckTeamSize(e *model.Event, size int) error {
	if e.MinTeamMembers != nil && size < int(*e.MinTeamMembers) {
		return apperr.WithMetadata(apperr.CodeInvalidTeamSize,
			fmt.Sprintf("team needs at least %d members, got %d", *e.MinTeamMembers, size),
			map[string]string{"bound": "min", "limit": strconv.Itoa(int(*e.MinTeamMembers)), "size": strconv.Itoa(size)})
	}
	if e.MaxTeamMembers != nil && size > int(*e.MaxTeamMembers) {
		return apperr.WithMetadata(apperr.CodeInvalidTeamSize,
			fmt.Sprintf("team allows at most %d members, got %d", *e.MaxTeamMembers, size),
			map[string]string{"bound": "max", "limit": strconv.Itoa(int(*e.MaxTeamMembers)), "size": strconv.Itoa(size)})
	}
	return nil
}

// CheckRollNumbers fails with DuplicateRollNumber when two members share a
// roll number or a member's roll number is already taken on the event.
func CheckRollNumbers(members []model.TeamMember, taken []string) error {
	seen := make(map[string]struct{}, len(members)+len(taken))
	for _, r := range taken {
		seen[NormalizeRoll(r)] = struct{}{}
	}
	inTeam := make(map[string]struct{}, len(members))
	for _, m := range members {
		key := NormalizeRoll(m.RollNumber)
		if key == "" {
			return apperr.Validation("members.roll_number", "every member needs a roll number")
		}
		if _, dup := inTeam[key]; dup {
			return duplicateRoll(key, "team")
		}
		inTeam[key] = struct{}{}
		if _, dup := seen[key]; dup {
			return duplicateRoll(key, "event")
		}
	}
	return nil
}

func duplicateRoll(roll, scope string) error {
	return apperr.WithMetadata(apperr.CodeDuplicateRollNumber,
		fmt.Sprintf("roll number %s is already registered", roll),
		map[string]string{"roll_number": roll, "scope": scope})
}

// CheckCapacity fails with EventFull when adding seats to current would
// exceed the event limit.  A nil limit is unlimited.
func CheckCapacity(e *model.Event, current, seats int) error {
	if e.MaxParticipants == nil {
		return nil
	}
	limit := int(*e.MaxParticipants)
	if current+seats > limit {
		return apperr.WithMetadata(apperr.CodeEventFull, "event is full", map[string]string{
			"limit":     strconv.Itoa(limit),
			"current":   strconv.Itoa(current),
			"requested": strconv.Itoa(seats),
		})
	}
	return nil
}

// PaymentFor returns the initial payment status for a fee.
func PaymentFor(feeCents uint32) model.PaymentStatus {
	if feeCents == 0 {
		return model.PaymentNotRequired
	}
	return model.PaymentPending
}

// AttendanceStatus maps a presence flag to a registration status.
func AttendanceStatus(present bool) model.RegistrationStatus {
	if present {
		return model.RegAttended
	}
	return model.RegNoShow
}

// CanRecordAttendance reports whether attendance may be set on a
// registration in status s.  Cancelled and withdrawn records are final.
func CanRecordAttendance(s model.RegistrationStatus) bool {
	return s.Accepted()
}

// Count derives the participant count from the records: one seat per
// accepted individual registration plus the size of every accepted team.
func Count(regs []model.Registration, teams []model.TeamRegistration) int {
	n := 0
	for _, r := range regs {
		if r.Status.Accepted() {
			n++
		}
	}
	for i := range teams {
		if teams[i].Status.Accepted() {
			n += teams[i].Size()
		}
	}
	return n
}

// Summary is the live participant view of an event.
type Summary struct {
	EventID   uint64  `json:"event_id"`
	Current   int     `json:"current"`
	Max       *uint32 `json:"max,omitempty"`
	Remaining *int    `json:"remaining,omitempty"`
	Full      bool    `json:"full"`
}

// Summarize builds a Summary from a derived count.
func Summarize(e *model.Event, current int) Summary {
	s := Summary{EventID: e.ID, Current: current, Max: e.MaxParticipants}
	if e.MaxParticipants != nil {
		rem := int(*e.MaxParticipants) - current
		if rem < 0 {
			rem = 0
		}
		s.Remaining = &rem
		s.Full = rem == 0
	}
	return s
}
