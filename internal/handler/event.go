package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/lifecycle"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/proposal"
	"github.com/iliyamo/club-event-engine/internal/service"
)

// EventHandler serves topics, ideas and the event lifecycle.
type EventHandler struct {
	events *service.EventService
	loc    *time.Location
	log    *zerolog.Logger
}

// NewEventHandler constructs an EventHandler and panics if any dependency is
// nil.  loc resolves deadlines sent without a zone.
func NewEventHandler(events *service.EventService, loc *time.Location, log *zerolog.Logger) *EventHandler {
	if events == nil || log == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{events: events, loc: loc, log: log}
}

// eventRequest is shared by topic and event creation.
type eventRequest struct {
	Title                  string     `json:"title" validate:"required"`
	Description            string     `json:"description"`
	ClubID                 uint64     `json:"club_id" validate:"gt=0"`
	Type                   string     `json:"type"`
	Location               string     `json:"location"`
	ImageURL               string     `json:"image_url" validate:"omitempty,url"`
	IdeaSubmissionDeadline string     `json:"idea_submission_deadline"`
	StartDateTime          *time.Time `json:"start_date_time"`
	EndDateTime            *time.Time `json:"end_date_time"`
	RegistrationDeadline   *time.Time `json:"registration_deadline"`
	HallID                 *uint64    `json:"hall_id"`
	MaxParticipants        *uint32    `json:"max_participants" validate:"omitempty,gt=0"`
	RegistrationFeeCents   uint32     `json:"registration_fee_cents"`
	IsTeamEvent            bool       `json:"is_team_event"`
	MinTeamMembers         *uint32    `json:"min_team_members" validate:"omitempty,gt=0"`
	MaxTeamMembers         *uint32    `json:"max_team_members" validate:"omitempty,gt=0"`
}

func (r eventRequest) input(loc *time.Location) (service.EventInput, error) {
	in := service.EventInput{
		Title:                r.Title,
		Description:          r.Description,
		ClubID:               r.ClubID,
		Type:                 model.EventType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Location:             r.Location,
		ImageURL:             r.ImageURL,
		StartDateTime:        r.StartDateTime,
		EndDateTime:          r.EndDateTime,
		RegistrationDeadline: r.RegistrationDeadline,
		HallID:               r.HallID,
		MaxParticipants:      r.MaxParticipants,
		RegistrationFeeCents: r.RegistrationFeeCents,
		IsTeamEvent:          r.IsTeamEvent,
		MinTeamMembers:       r.MinTeamMembers,
		MaxTeamMembers:       r.MaxTeamMembers,
	}
	if strings.TrimSpace(r.IdeaSubmissionDeadline) != "" {
		d, ok := proposal.ParseDeadline(r.IdeaSubmissionDeadline, loc)
		if !ok {
			return service.EventInput{}, apperr.Validation("idea_submission_deadline",
				"idea_submission_deadline must be ISO-8601 or DD/MM/YYYY")
		}
		in.IdeaSubmissionDeadline = &d
	}
	return in, nil
}

type submissionRequest struct {
	HallID          *uint64    `json:"hall_id" validate:"required"`
	StartDateTime   *time.Time `json:"start_date_time" validate:"required,future"`
	EndDateTime     *time.Time `json:"end_date_time" validate:"required"`
	MaxParticipants *uint32    `json:"max_participants" validate:"required,gt=0"`
}

func (r submissionRequest) submission() lifecycle.Submission {
	return lifecycle.Submission{
		HallID:          r.HallID,
		StartDateTime:   r.StartDateTime,
		EndDateTime:     r.EndDateTime,
		MaxParticipants: r.MaxParticipants,
	}
}

type decisionRequest struct {
	ApprovedByName string `json:"approved_by_name"`
}

type rejectRequest struct {
	Reason         string `json:"reason" validate:"required"`
	ApprovedByName string `json:"approved_by_name"`
}

var listableStatuses = map[model.EventStatus]bool{
	model.EventDraft:           true,
	model.EventPendingApproval: true,
	model.EventPublished:       true,
	model.EventRejected:        true,
	model.EventCompleted:       true,
	model.EventCancelled:       true,
}

// ListEvents handles GET /v1/events?status=&club_id=.
func (h *EventHandler) ListEvents(c echo.Context) error {
	status := model.EventStatus(strings.ToUpper(c.QueryParam("status")))
	if status != "" && !listableStatuses[status] {
		return fail(c, h.log, apperr.Validation("status", "unknown status"))
	}
	clubID, err := queryUint(c, "club_id")
	if err != nil {
		return fail(c, h.log, err)
	}
	events, err := h.events.ListEvents(c.Request().Context(), service.EventQuery{Status: status, ClubID: clubID})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	e, err := h.events.GetEvent(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, e)
}

// CreateEvent handles POST /v1/events and creates a DRAFT event.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req eventRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	in, err := req.input(h.loc)
	if err != nil {
		return fail(c, h.log, err)
	}
	e, err := h.events.CreateEvent(c.Request().Context(), who, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// SubmitForApproval handles POST /v1/events/:id/submit-for-approval.
func (h *EventHandler) SubmitForApproval(c echo.Context) error {
	return h.submit(c, h.events.SubmitForApproval)
}

// Resubmit handles POST /v1/events/:id/resubmit.
func (h *EventHandler) Resubmit(c echo.Context) error {
	return h.submit(c, h.events.Resubmit)
}

type submitFunc func(ctx context.Context, who model.Caller, id uint64, sub lifecycle.Submission) (*model.Event, error)

func (h *EventHandler) submit(c echo.Context, fn submitFunc) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req submissionRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	e, err := fn(c.Request().Context(), who, id, req.submission())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Approve handles POST /v1/events/:id/approve.  The approver name is the
// body field when given, else the token's name claim.
func (h *EventHandler) Approve(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req decisionRequest // body is optional
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	e, err := h.events.Approve(c.Request().Context(), who, id, req.ApprovedByName)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Reject handles POST /v1/events/:id/reject.
func (h *EventHandler) Reject(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req rejectRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	e, err := h.events.Reject(c.Request().Context(), who, id, req.Reason, req.ApprovedByName)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Complete handles POST /v1/events/:id/complete.
func (h *EventHandler) Complete(c echo.Context) error {
	return h.transition(c, h.events.Complete)
}

// Cancel handles POST /v1/events/:id/cancel.
func (h *EventHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.events.Cancel)
}

type transitionFunc func(ctx context.Context, who model.Caller, id uint64) (*model.Event, error)

func (h *EventHandler) transition(c echo.Context, fn transitionFunc) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	e, err := fn(c.Request().Context(), who, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, e)
}
