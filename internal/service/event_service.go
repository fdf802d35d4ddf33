package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/allocation"
	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/lifecycle"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/proposal"
	"github.com/iliyamo/club-event-engine/internal/queue"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

// DefaultIdeaLimit is the number of ideas a student may submit per topic.
const DefaultIdeaLimit = 2

// EventOptions tunes an EventService.  Zero values take the defaults.
type EventOptions struct {
	Policy    proposal.Policy
	IdeaLimit int
	Now       func() time.Time
}

// EventService drives topics, ideas and the event approval lifecycle.
type EventService struct {
	store     repository.Store
	resolver  *allocation.Resolver
	notifier  Notifier
	log       *zerolog.Logger
	policy    proposal.Policy
	ideaLimit int
	now       func() time.Time
}

// NewEventService wires an EventService and panics if a required
// dependency is nil.  notifier may be nil.
func NewEventService(store repository.Store, resolver *allocation.Resolver, notifier Notifier, log *zerolog.Logger, opts EventOptions) *EventService {
	if store == nil || resolver == nil || log == nil {
		panic("nil dependency passed to NewEventService")
	}
	opts.Policy = proposal.NewPolicy(opts.Policy.Grace, opts.Policy.Location)
	if opts.IdeaLimit <= 0 {
		opts.IdeaLimit = DefaultIdeaLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &EventService{
		store:     store,
		resolver:  resolver,
		notifier:  notifier,
		log:       log,
		policy:    opts.Policy,
		ideaLimit: opts.IdeaLimit,
		now:       opts.Now,
	}
}

// EventInput carries the fields a club admin sets when creating a topic or
// an event.
type EventInput struct {
	Title                  string
	Description            string
	ClubID                 uint64
	Type                   model.EventType
	Location               string
	ImageURL               string
	IdeaSubmissionDeadline *time.Time
	StartDateTime          *time.Time
	EndDateTime            *time.Time
	RegistrationDeadline   *time.Time
	HallID                 *uint64
	MaxParticipants        *uint32
	RegistrationFeeCents   uint32
	IsTeamEvent            bool
	MinTeamMembers         *uint32
	MaxTeamMembers         *uint32
}

func (in EventInput) toEvent(caller model.Caller, acceptsIdeas bool) (*model.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	if in.ClubID == 0 {
		return nil, apperr.Validation("club_id", "club_id is required")
	}
	typ := in.Type
	if typ == "" {
		typ = model.TypeOther
	}
	if !typ.Valid() {
		return nil, apperr.Validation("type", fmt.Sprintf("unknown event type %q", in.Type))
	}
	if err := lifecycle.ValidateTeamBounds(in.IsTeamEvent, in.MinTeamMembers, in.MaxTeamMembers); err != nil {
		return nil, err
	}
	e := &model.Event{
		Title:                  title,
		Description:            strings.TrimSpace(in.Description),
		ClubID:                 in.ClubID,
		Type:                   typ,
		Location:               strings.TrimSpace(in.Location),
		ImageURL:               in.ImageURL,
		AcceptsIdeas:           acceptsIdeas,
		IdeaSubmissionDeadline: in.IdeaSubmissionDeadline,
		StartDateTime:          in.StartDateTime,
		EndDateTime:            in.EndDateTime,
		RegistrationDeadline:   in.RegistrationDeadline,
		HallID:                 in.HallID,
		MaxParticipants:        in.MaxParticipants,
		RegistrationFeeCents:   in.RegistrationFeeCents,
		IsTeamEvent:            in.IsTeamEvent,
		Status:                 model.EventDraft,
		ApprovalStatus:         model.ApprovalPending,
		CreatedBy:              caller.UserID,
	}
	if !in.IsTeamEvent {
		e.MinTeamMembers, e.MaxTeamMembers = nil, nil
	} else {
		e.MinTeamMembers, e.MaxTeamMembers = in.MinTeamMembers, in.MaxTeamMembers
	}
	return e, nil
}

// CreateTopic creates an event in idea-collection mode.
func (s *EventService) CreateTopic(ctx context.Context, caller model.Caller, in EventInput) (*model.Event, error) {
	e, err := in.toEvent(caller, true)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateTopic(e); err != nil {
		return nil, err
	}
	if e.RegistrationDeadline != nil {
		return nil, apperr.Validation("registration_deadline", "topics cannot have a registration deadline")
	}
	err = s.store.Write(ctx, func(tx repository.Tx) error {
		return tx.Events().Create(ctx, e)
	})
	if err != nil {
		return nil, storeErr(s.log, err, "create topic")
	}
	s.log.Info().Uint64("event_id", e.ID).Uint64("club_id", e.ClubID).Msg("topic created")
	return e, nil
}

// CreateEvent creates a concrete event in DRAFT.  The schedule must lie in
// the future; a hall, when given, must exist and seat MaxParticipants.
func (s *EventService) CreateEvent(ctx context.Context, caller model.Caller, in EventInput) (*model.Event, error) {
	e, err := in.toEvent(caller, false)
	if err != nil {
		return nil, err
	}
	e.IdeaSubmissionDeadline = nil
	if e.StartDateTime == nil {
		return nil, apperr.Validation("start_date_time", "start_date_time is required")
	}
	if e.EndDateTime == nil {
		return nil, apperr.Validation("end_date_time", "end_date_time is required")
	}
	if err := lifecycle.ValidateSchedule(*e.StartDateTime, *e.EndDateTime, s.now()); err != nil {
		return nil, err
	}
	if e.MaxParticipants != nil && *e.MaxParticipants == 0 {
		return nil, apperr.Validation("max_participants", "max_participants must be greater than zero")
	}
	err = s.store.Write(ctx, func(tx repository.Tx) error {
		if e.HallID != nil {
			h, err := tx.Halls().GetByID(ctx, *e.HallID)
			if err != nil {
				return hallInputErr(err, *e.HallID)
			}
			if err := checkHallFits(h, e.MaxParticipants); err != nil {
				return err
			}
		}
		return tx.Events().Create(ctx, e)
	})
	if err != nil {
		return nil, storeErr(s.log, err, "create event")
	}
	s.log.Info().Uint64("event_id", e.ID).Uint64("club_id", e.ClubID).Msg("event created")
	return e, nil
}

// GetEvent loads an event, completing it first when its end has passed.
func (s *EventService) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	var e *model.Event
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		got, err := tx.Events().GetByID(ctx, id, false)
		e = got
		return notFound(err, "event", id)
	})
	if err != nil {
		return nil, storeErr(s.log, err, "get event")
	}
	return s.completeIfEnded(ctx, e)
}

// EventQuery filters ListEvents.
type EventQuery struct {
	Status model.EventStatus
	ClubID uint64
}

// ListEvents returns events ordered by start time, completing any that
// have ended.
func (s *EventService) ListEvents(ctx context.Context, q EventQuery) ([]model.Event, error) {
	f := repository.EventFilter{ClubID: q.ClubID}
	if q.Status != "" {
		// PUBLISHED rows past their end are reported as COMPLETED, so a
		// COMPLETED query must also see them.
		f.Statuses = []model.EventStatus{q.Status}
		if q.Status == model.EventCompleted {
			f.Statuses = append(f.Statuses, model.EventPublished)
		}
	}
	var events []model.Event
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		got, err := tx.Events().List(ctx, f)
		events = got
		return err
	})
	if err != nil {
		return nil, storeErr(s.log, err, "list events")
	}
	out := make([]model.Event, 0, len(events))
	for i := range events {
		e, err := s.completeIfEnded(ctx, &events[i])
		if err != nil {
			return nil, err
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// ListActiveTopics returns the topics open for ideas at the current time.
func (s *EventService) ListActiveTopics(ctx context.Context) ([]model.Event, error) {
	accepts := true
	var topics []model.Event
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		got, err := tx.Events().List(ctx, repository.EventFilter{AcceptsIdeas: &accepts})
		topics = got
		return err
	})
	if err != nil {
		return nil, storeErr(s.log, err, "list topics")
	}
	return s.policy.FilterActive(topics, s.now()), nil
}

// completeIfEnded persists the lazy PUBLISHED -> COMPLETED transition.
func (s *EventService) completeIfEnded(ctx context.Context, e *model.Event) (*model.Event, error) {
	now := s.now()
	snapshot := *e
	if !lifecycle.CompleteIfEnded(&snapshot, now) {
		return e, nil
	}
	var out *model.Event
	changed := false
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		cur, err := tx.Events().GetByID(ctx, e.ID, true)
		if err != nil {
			return notFound(err, "event", e.ID)
		}
		out = cur
		if !lifecycle.CompleteIfEnded(cur, now) {
			return nil
		}
		changed = true
		return tx.Events().Update(ctx, cur)
	})
	if err != nil {
		return nil, storeErr(s.log, err, "complete event")
	}
	if changed {
		s.log.Info().Uint64("event_id", out.ID).Msg("event completed after end time")
		s.notify(ctx, queue.KindCompleted, out, 0, "")
	}
	return out, nil
}

// SuggestHall asks the allocation resolver for the best free hall.
func (s *EventService) SuggestHall(ctx context.Context, capacity uint32, w model.Window) (allocation.Suggestion, error) {
	return s.resolver.Suggest(ctx, allocation.Request{Capacity: capacity, Window: w})
}

// SubmitForApproval moves a DRAFT event to PENDING_APPROVAL with the given
// hall and schedule.
func (s *EventService) SubmitForApproval(ctx context.Context, caller model.Caller, id uint64, sub lifecycle.Submission) (*model.Event, error) {
	e, err := s.submit(ctx, id, sub, lifecycle.ActionSubmit)
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint64("event_id", id).Uint64("hall_id", *e.HallID).Msg("event submitted for approval")
	s.notify(ctx, queue.KindSubmitted, e, caller.UserID, "")
	return e, nil
}

// Resubmit moves a REJECTED event back to PENDING_APPROVAL.  The previous
// rejection reason stays visible until the next decision.
func (s *EventService) Resubmit(ctx context.Context, caller model.Caller, id uint64, sub lifecycle.Submission) (*model.Event, error) {
	e, err := s.submit(ctx, id, sub, lifecycle.ActionResubmit)
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint64("event_id", id).Uint64("hall_id", *e.HallID).Msg("event resubmitted")
	s.notify(ctx, queue.KindResubmitted, e, caller.UserID, "")
	return e, nil
}

func (s *EventService) submit(ctx context.Context, id uint64, sub lifecycle.Submission, action lifecycle.Action) (*model.Event, error) {
	now := s.now()
	var out *model.Event
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "event", id)
		}
		next, err := lifecycle.Next(e.Status, action)
		if err != nil {
			return err
		}
		if err := lifecycle.ValidateSubmission(sub, now); err != nil {
			return err
		}
		if err := lifecycle.ValidateTeamBounds(e.IsTeamEvent, e.MinTeamMembers, e.MaxTeamMembers); err != nil {
			return err
		}
		w := model.Window{Start: *sub.StartDateTime, End: *sub.EndDateTime}
		h, err := tx.Halls().Lock(ctx, *sub.HallID)
		if err != nil {
			return hallInputErr(err, *sub.HallID)
		}
		if err := checkHallFits(h, sub.MaxParticipants); err != nil {
			return err
		}
		bookings, err := tx.Events().Bookings(ctx, h.ID, w)
		if err != nil {
			return err
		}
		if allocation.Conflicts(bookings, w, e.ID) {
			return schedulingConflict(h.ID, w)
		}
		lifecycle.Apply(e, sub)
		e.Status = next
		e.ApprovalStatus = model.ApprovalPending
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, string(action))
	}
	return out, nil
}

// Approve publishes a pending event.  The hall row is locked and the
// booking re-checked so that two overlapping approvals on one hall cannot
// both commit.
func (s *EventService) Approve(ctx context.Context, caller model.Caller, id uint64, approverName string) (*model.Event, error) {
	now := s.now()
	var out *model.Event
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "event", id)
		}
		next, err := lifecycle.Next(e.Status, lifecycle.ActionApprove)
		if err != nil {
			return err
		}
		w, ok := e.Window()
		if !ok || e.HallID == nil {
			return apperr.Validation("hall_id", "event has no hall or schedule to approve")
		}
		if err := lifecycle.ValidateSchedule(w.Start, w.End, now); err != nil {
			return err
		}
		h, err := tx.Halls().Lock(ctx, *e.HallID)
		if err != nil {
			return hallInputErr(err, *e.HallID)
		}
		if err := checkHallFits(h, e.MaxParticipants); err != nil {
			return err
		}
		bookings, err := tx.Events().Bookings(ctx, h.ID, w)
		if err != nil {
			return err
		}
		if allocation.Conflicts(published(bookings), w, e.ID) {
			return schedulingConflict(h.ID, w)
		}
		e.Status = next
		e.ApprovalStatus = model.ApprovalApproved
		e.RejectionReason = nil
		stampDecision(e, caller, approverName, now)
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "approve")
	}
	s.log.Info().Uint64("event_id", id).Uint64("hall_id", *out.HallID).Uint64("approver_id", caller.UserID).Msg("event approved")
	s.notify(ctx, queue.KindApproved, out, caller.UserID, "")
	s.notify(ctx, queue.KindPublished, out, caller.UserID, "")
	return out, nil
}

// Reject declines a pending event with a reason.  The hall is released.
func (s *EventService) Reject(ctx context.Context, caller model.Caller, id uint64, reason, approverName string) (*model.Event, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason", "a rejection reason is required")
	}
	now := s.now()
	var out *model.Event
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "event", id)
		}
		next, err := lifecycle.Next(e.Status, lifecycle.ActionReject)
		if err != nil {
			return err
		}
		e.Status = next
		e.ApprovalStatus = model.ApprovalRejected
		e.RejectionReason = &reason
		stampDecision(e, caller, approverName, now)
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "reject")
	}
	s.log.Info().Uint64("event_id", id).Uint64("approver_id", caller.UserID).Msg("event rejected")
	s.notify(ctx, queue.KindRejected, out, caller.UserID, reason)
	return out, nil
}

// Complete closes a published event whose end time has passed.
func (s *EventService) Complete(ctx context.Context, caller model.Caller, id uint64) (*model.Event, error) {
	now := s.now()
	var out *model.Event
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "event", id)
		}
		next, err := lifecycle.Next(e.Status, lifecycle.ActionComplete)
		if err != nil {
			return err
		}
		if e.EndDateTime == nil || !now.After(*e.EndDateTime) {
			return apperr.Validation("end_date_time", "event has not ended yet")
		}
		e.Status = next
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "complete")
	}
	s.log.Info().Uint64("event_id", id).Msg("event completed")
	s.notify(ctx, queue.KindCompleted, out, caller.UserID, "")
	return out, nil
}

// Cancel cancels a pending or published event, releasing its hall and
// cancelling every REGISTERED individual and team registration.
func (s *EventService) Cancel(ctx context.Context, caller model.Caller, id uint64) (*model.Event, error) {
	var (
		out         *model.Event
		regs, teams int64
	)
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "event", id)
		}
		next, err := lifecycle.Next(e.Status, lifecycle.ActionCancel)
		if err != nil {
			return err
		}
		e.Status = next
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		if regs, err = tx.Registrations().CancelRegistered(ctx, id); err != nil {
			return err
		}
		if teams, err = tx.Teams().CancelRegistered(ctx, id); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, storeErr(s.log, err, "cancel")
	}
	s.log.Info().Uint64("event_id", id).Int64("registrations_cancelled", regs).Int64("teams_cancelled", teams).Msg("event cancelled")
	s.notify(ctx, queue.KindCancelled, out, caller.UserID, "")
	return out, nil
}

// RemoveTopic deletes an unpublished (DRAFT or REJECTED) topic and its
// ideas.
func (s *EventService) RemoveTopic(ctx context.Context, caller model.Caller, id uint64) error {
	err := s.store.Write(ctx, func(tx repository.Tx) error {
		e, err := tx.Events().GetByID(ctx, id, true)
		if err != nil {
			return notFound(err, "event", id)
		}
		if e.Status != model.EventDraft && e.Status != model.EventRejected {
			return lifecycle.InvalidTransition(string(e.Status), "remove")
		}
		if !e.AcceptsIdeas {
			return apperr.Validation("id", "only topics can be removed")
		}
		ideas, err := tx.Ideas().ListByEvent(ctx, id)
		if err != nil {
			return err
		}
		for _, idea := range ideas {
			if idea.Status == model.IdeaImplementing || idea.Status == model.IdeaCompleted {
				return apperr.WithMetadata(apperr.CodeInvalidTransition, "topic has a promoted idea", map[string]string{
					"current":   string(e.Status),
					"requested": "remove",
					"idea_id":   strconv.FormatUint(idea.ID, 10),
				})
			}
		}
		if err := tx.Ideas().DeleteByEvent(ctx, id); err != nil {
			return err
		}
		return notFound(tx.Events().Delete(ctx, id), "event", id)
	})
	if err != nil {
		return storeErr(s.log, err, "remove topic")
	}
	s.log.Info().Uint64("event_id", id).Uint64("removed_by", caller.UserID).Msg("topic removed")
	return nil
}

func (s *EventService) notify(ctx context.Context, kind queue.Kind, e *model.Event, actor uint64, reason string) {
	n := queue.NewNotification(kind, e.ID, e.Title, string(e.Status), s.now())
	n.ActorID = actor
	n.Reason = reason
	if e.StartDateTime != nil {
		n.StartsAt = e.StartDateTime.UTC().Format(time.RFC3339)
	}
	emit(ctx, s.notifier, s.log, n)
}

// published keeps the bookings that are already committed.
func published(bookings []model.Booking) []model.Booking {
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == model.EventPublished {
			out = append(out, b)
		}
	}
	return out
}

func stampDecision(e *model.Event, caller model.Caller, approverName string, at time.Time) {
	name := strings.TrimSpace(approverName)
	if name == "" {
		name = caller.Name
	}
	approverID := caller.UserID
	e.ApprovedByID = &approverID
	if name != "" {
		e.ApprovedByName = &name
	} else {
		e.ApprovedByName = nil
	}
	decided := at.UTC()
	e.ApprovalDate = &decided
}

func checkHallFits(h *model.Hall, maxParticipants *uint32) error {
	if maxParticipants == nil || h.SeatingCapacity >= *maxParticipants {
		return nil
	}
	return apperr.WithMetadata(apperr.CodeValidation,
		fmt.Sprintf("%s seats %d, fewer than max_participants %d", h.Name, h.SeatingCapacity, *maxParticipants),
		map[string]string{"field": "max_participants", "limit": strconv.FormatUint(uint64(h.SeatingCapacity), 10)})
}

func hallInputErr(err error, hallID uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.WithMetadata(apperr.CodeValidation, fmt.Sprintf("hall %d does not exist", hallID),
			map[string]string{"field": "hall_id"})
	}
	return err
}

func schedulingConflict(hallID uint64, w model.Window) error {
	return apperr.WithMetadata(apperr.CodeSchedulingConflict, "hall is already booked for an overlapping interval",
		map[string]string{
			"hall_id": strconv.FormatUint(hallID, 10),
			"start":   w.Start.UTC().Format(time.RFC3339),
			"end":     w.End.UTC().Format(time.RFC3339),
		})
}
