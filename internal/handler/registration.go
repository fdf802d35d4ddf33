package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/service"
)

// RegistrationHandler serves the registration ledger.
type RegistrationHandler struct {
	regs *service.RegistrationService
	log  *zerolog.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler and panics if any
// dependency is nil.
func NewRegistrationHandler(regs *service.RegistrationService, log *zerolog.Logger) *RegistrationHandler {
	if regs == nil || log == nil {
		panic("nil dependency passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{regs: regs, log: log}
}

type registerRequest struct {
	EventID    uint64 `json:"event_id" validate:"gt=0"`
	RollNumber string `json:"roll_number" validate:"rollnumber"`
	Notes      string `json:"notes"`
}

type registerTeamRequest struct {
	EventID  uint64             `json:"event_id" validate:"gt=0"`
	TeamName string             `json:"team_name" validate:"required"`
	Members  []model.TeamMember `json:"members" validate:"required,min=1,dive"`
}

type attendanceRequest struct {
	Present *bool `json:"present" validate:"required"`
}

// Register handles POST /v1/event-registrations/register.
func (h *RegistrationHandler) Register(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	reg, err := h.regs.RegisterIndividual(c.Request().Context(), who, service.IndividualInput{
		EventID:    req.EventID,
		RollNumber: req.RollNumber,
		Notes:      req.Notes,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// RegisterTeam handles POST /v1/team-registrations/register.  The caller
// becomes the team leader.
func (h *RegistrationHandler) RegisterTeam(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req registerTeamRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	team, err := h.regs.RegisterTeam(c.Request().Context(), who, service.TeamInput{
		EventID:  req.EventID,
		TeamName: req.TeamName,
		Members:  req.Members,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, team)
}

// Withdraw handles POST /v1/event-registrations/:id/withdraw.
func (h *RegistrationHandler) Withdraw(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	reg, err := h.regs.Withdraw(c.Request().Context(), who, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, reg)
}

// CancelTeam handles POST /v1/team-registrations/:id/cancel.
func (h *RegistrationHandler) CancelTeam(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	team, err := h.regs.CancelTeam(c.Request().Context(), who, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, team)
}

// SetAttendance handles PATCH /v1/event-registrations/:id/attendance.
func (h *RegistrationHandler) SetAttendance(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req attendanceRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	reg, err := h.regs.SetAttendance(c.Request().Context(), who, id, *req.Present)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, reg)
}

// SetTeamAttendance handles PATCH /v1/team-registrations/:id/attendance.
func (h *RegistrationHandler) SetTeamAttendance(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req attendanceRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	team, err := h.regs.SetTeamAttendance(c.Request().Context(), who, id, *req.Present)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, team)
}

// Participants handles GET /v1/events/:id/participants.
func (h *RegistrationHandler) Participants(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	sum, err := h.regs.Participants(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// ListRegistrations handles GET /v1/events/:id/registrations.
func (h *RegistrationHandler) ListRegistrations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	regs, err := h.regs.ListRegistrations(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": regs})
}

// ListTeams handles GET /v1/events/:id/teams.
func (h *RegistrationHandler) ListTeams(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	teams, err := h.regs.ListTeams(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": teams})
}

// ListMine handles GET /v1/my-registrations.
func (h *RegistrationHandler) ListMine(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	mine, err := h.regs.ListMyRegistrations(c.Request().Context(), who)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, mine)
}
