package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/lifecycle"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/registration"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

// RegistrationService is the registration ledger for published events.
// Every check-then-write runs inside one unit of work that holds the event
// row lock, so the capacity and duplicate checks cannot race.
type RegistrationService struct {
	store repository.Store
	log   *zerolog.Logger
	now   func() time.Time
}

// NewRegistrationService wires a RegistrationService.  A nil now uses
// time.Now.
func NewRegistrationService(store repository.Store, log *zerolog.Logger, now func() time.Time) *RegistrationService {
	if store == nil || log == nil {
		panic("nil dependency passed to NewRegistrationService")
	}
	if now == nil {
		now = time.Now
	}
	return &RegistrationService{store: store, log: log, now: now}
}

// IndividualInput is a single-student registration request.
type IndividualInput struct {
	EventID    uint64
	RollNumber string
	Notes      string
}

// RegisterIndividual registers the caller on an individual event.
func (s *RegistrationService) RegisterIndividual(ctx context.Context, caller model.Caller, in IndividualInput) (*model.Registration, error) {
	roll := strings.TrimSpace(in.RollNumber)
	if roll == "" {
		return nil, apperr.Validation("roll_number", "roll_number is required")
	}
	now := s.now()
	var out *model.Registration
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, in.EventID, true)
		if err != nil {
			return notFound(err, "event", in.EventID)
		}
		if err := registration.CheckMode(e, false); err != nil {
			return err
		}
		if err := registration.CheckOpen(e, now); err != nil {
			return err
		}
		existing, err := tx.Registrations().FindActive(ctx, e.ID, caller.UserID)
		switch {
		case err == nil:
			return duplicateRegistration(e.ID, existing.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		current, err := acceptedSeats(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		if err := registration.CheckCapacity(e, current, 1); err != nil {
			return err
		}
		reg := &model.Registration{
			EventID:       e.ID,
			UserID:        caller.UserID,
			RollNumber:    registration.NormalizeRoll(roll),
			Notes:         strings.TrimSpace(in.Notes),
			Status:        model.RegRegistered,
			PaymentStatus: registration.PaymentFor(e.RegistrationFeeCents),
		}
		if err := tx.Registrations().Create(ctx, reg); err != nil {
			return conflictAsDuplicate(err, e.ID)
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "register")
	}
	s.log.Info().Uint64("registration_id", out.ID).Uint64("event_id", in.EventID).Uint64("user_id", caller.UserID).Msg("registration created")
	return out, nil
}

// TeamInput is a team registration request.  The caller is the leader and
// is expected to appear in Members.
type TeamInput struct {
	EventID  uint64
	TeamName string
	Members  []model.TeamMember
}

// RegisterTeam registers a team led by the caller.  Each member consumes
// one seat.
func (s *RegistrationService) RegisterTeam(ctx context.Context, caller model.Caller, in TeamInput) (*model.TeamRegistration, error) {
	name := strings.TrimSpace(in.TeamName)
	if name == "" {
		return nil, apperr.Validation("team_name", "team_name is required")
	}
	members := make([]model.TeamMember, len(in.Members))
	for i, m := range in.Members {
		members[i] = model.TeamMember{
			Name:       strings.TrimSpace(m.Name),
			Email:      strings.TrimSpace(m.Email),
			RollNumber: registration.NormalizeRoll(m.RollNumber),
		}
		if members[i].Name == "" {
			return nil, apperr.Validation("members.name", "every member needs a name")
		}
	}
	now := s.now()
	var out *model.TeamRegistration
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, in.EventID, true)
		if err != nil {
			return notFound(err, "event", in.EventID)
		}
		if err := registration.CheckMode(e, true); err != nil {
			return err
		}
		if err := registration.CheckOpen(e, now); err != nil {
			return err
		}
		if err := registration.CheckTeamSize(e, len(members)); err != nil {
			return err
		}
		taken, err := tx.Teams().AcceptedRollNumbers(ctx, e.ID)
		if err != nil {
			return err
		}
		if err := registration.CheckRollNumbers(members, taken); err != nil {
			return err
		}
		existing, err := tx.Teams().FindActiveByLeader(ctx, e.ID, caller.UserID)
		switch {
		case err == nil:
			return duplicateRegistration(e.ID, existing.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		current, err := acceptedSeats(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		if err := registration.CheckCapacity(e, current, len(members)); err != nil {
			return err
		}
		team := &model.TeamRegistration{
			EventID:       e.ID,
			TeamName:      name,
			LeaderUserID:  caller.UserID,
			Members:       members,
			Status:        model.RegRegistered,
			PaymentStatus: registration.PaymentFor(e.RegistrationFeeCents),
		}
		if err := tx.Teams().Create(ctx, team); err != nil {
			return conflictAsDuplicate(err, e.ID)
		}
		out = team
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "register team")
	}
	s.log.Info().Uint64("team_id", out.ID).Uint64("event_id", in.EventID).Int("members", out.Size()).Msg("team registered")
	return out, nil
}

// SetAttendance records presence on an individual registration.  Setting
// the status it already has is a no-op.
func (s *RegistrationService) SetAttendance(ctx context.Context, caller model.Caller, id uint64, present bool) (*model.Registration, error) {
	target := registration.AttendanceStatus(present)
	var out *model.Registration
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		reg, err := tx.Registrations().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "registration", id)
		}
		out = reg
		if reg.Status == target {
			return nil
		}
		if !registration.CanRecordAttendance(reg.Status) {
			return lifecycle.InvalidTransition(string(reg.Status), string(target))
		}
		if err := tx.Registrations().UpdateStatus(ctx, id, target); err != nil {
			return err
		}
		reg.Status = target
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "set attendance")
	}
	s.log.Info().Uint64("registration_id", id).Str("status", string(out.Status)).Uint64("recorded_by", caller.UserID).Msg("attendance recorded")
	return out, nil
}

// SetTeamAttendance records presence for a whole team.
func (s *RegistrationService) SetTeamAttendance(ctx context.Context, caller model.Caller, id uint64, present bool) (*model.TeamRegistration, error) {
	target := registration.AttendanceStatus(present)
	var out *model.TeamRegistration
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		team, err := tx.Teams().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "team registration", id)
		}
		out = team
		if team.Status == target {
			return nil
		}
		if !registration.CanRecordAttendance(team.Status) {
			return lifecycle.InvalidTransition(string(team.Status), string(target))
		}
		if err := tx.Teams().UpdateStatus(ctx, id, target); err != nil {
			return err
		}
		team.Status = target
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "set team attendance")
	}
	s.log.Info().Uint64("team_id", id).Str("status", string(out.Status)).Uint64("recorded_by", caller.UserID).Msg("team attendance recorded")
	return out, nil
}

// Withdraw lets a student withdraw their own REGISTERED registration.  The
// seat is released.
func (s *RegistrationService) Withdraw(ctx context.Context, caller model.Caller, id uint64) (*model.Registration, error) {
	var out *model.Registration
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		reg, err := tx.Registrations().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "registration", id)
		}
		if reg.UserID != caller.UserID {
			return apperr.New(apperr.CodeForbidden, "only the registrant may withdraw")
		}
		if reg.Status != model.RegRegistered {
			return lifecycle.InvalidTransition(string(reg.Status), string(model.RegWithdrawn))
		}
		if err := tx.Registrations().UpdateStatus(ctx, id, model.RegWithdrawn); err != nil {
			return err
		}
		reg.Status = model.RegWithdrawn
		out = reg
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "withdraw")
	}
	s.log.Info().Uint64("registration_id", id).Uint64("user_id", caller.UserID).Msg("registration withdrawn")
	return out, nil
}

// CancelTeam lets the team leader cancel a REGISTERED team.
func (s *RegistrationService) CancelTeam(ctx context.Context, caller model.Caller, id uint64) (*model.TeamRegistration, error) {
	var out *model.TeamRegistration
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		team, err := tx.Teams().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "team registration", id)
		}
		if team.LeaderUserID != caller.UserID {
			return apperr.New(apperr.CodeForbidden, "only the team leader may cancel the team")
		}
		if team.Status != model.RegRegistered {
			return lifecycle.InvalidTransition(string(team.Status), string(model.RegCancelled))
		}
		if err := tx.Teams().UpdateStatus(ctx, id, model.RegCancelled); err != nil {
			return err
		}
		team.Status = model.RegCancelled
		out = team
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "cancel team")
	}
	s.log.Info().Uint64("team_id", id).Uint64("leader_id", caller.UserID).Msg("team cancelled")
	return out, nil
}

// Participants derives the live participant summary from the records.
func (s *RegistrationService) Participants(ctx context.Context, eventID uint64) (registration.Summary, error) {
	var sum registration.Summary
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, eventID, false)
		if err != nil {
			return notFound(err, "event", eventID)
		}
		regs, err := tx.Registrations().ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		teams, err := tx.Teams().ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		sum = registration.Summarize(e, registration.Count(regs, teams))
		return nil
	})
	if err != nil {
		return registration.Summary{}, storeErr(s.log, err, "participants")
	}
	return sum, nil
}

// ListRegistrations returns every individual registration of an event.
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID uint64) ([]model.Registration, error) {
	var out []model.Registration
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		if _, err := tx.Events().GetByID(ctx, eventID, false); err != nil {
			return notFound(err, "event", eventID)
		}
		regs, err := tx.Registrations().ListByEvent(ctx, eventID)
		out = regs
		return err
	})
	if err != nil {
		return nil, storeErr(s.log, err, "list registrations")
	}
	return out, nil
}

// ListTeams returns every team registration of an event.
func (s *RegistrationService) ListTeams(ctx context.Context, eventID uint64) ([]model.TeamRegistration, error) {
	var out []model.TeamRegistration
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		if _, err := tx.Events().GetByID(ctx, eventID, false); err != nil {
			return notFound(err, "event", eventID)
		}
		teams, err := tx.Teams().ListByEvent(ctx, eventID)
		out = teams
		return err
	})
	if err != nil {
		return nil, storeErr(s.log, err, "list teams")
	}
	return out, nil
}

// MyRegistrations groups a student's individual and led team registrations.
type MyRegistrations struct {
	Registrations []model.Registration     `json:"registrations"`
	Teams         []model.TeamRegistration `json:"teams"`
}

// ListMyRegistrations returns the caller's registrations, newest first.
func (s *RegistrationService) ListMyRegistrations(ctx context.Context, caller model.Caller) (MyRegistrations, error) {
	var out MyRegistrations
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		regs, err := tx.Registrations().ListByUser(ctx, caller.UserID)
		if err != nil {
			return err
		}
		teams, err := tx.Teams().ListByLeader(ctx, caller.UserID)
		if err != nil {
			return err
		}
		out = MyRegistrations{Registrations: regs, Teams: teams}
		return nil
	})
	if err != nil {
		return MyRegistrations{}, storeErr(s.log, err, "list my registrations")
	}
	return out, nil
}

// acceptedSeats counts the seats held on eventID by accepted individual and
// team registrations.
func acceptedSeats(ctx context.Context, tx repository.Tx, eventID uint64) (int, error) {
	regs, err := tx.Registrations().CountAccepted(ctx, eventID)
	if err != nil {
		return 0, err
	}
	members, err := tx.Teams().SumAcceptedMembers(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return regs + members, nil
}

func duplicateRegistration(eventID, existingID uint64) error {
	return apperr.WithMetadata(apperr.CodeDuplicateRegistration, "already registered for this event",
		map[string]string{
			"event_id":        strconv.FormatUint(eventID, 10),
			"registration_id": strconv.FormatUint(existingID, 10),
		})
}

func conflictAsDuplicate(err error, eventID uint64) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperr.WithMetadata(apperr.CodeDuplicateRegistration, "already registered for this event",
			map[string]string{"event_id": strconv.FormatUint(eventID, 10)})
	}
	return err
}
