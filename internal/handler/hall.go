package handler // handler package contains hall registry handlers

import (
	"net/http" // http defines status code constants
	"strconv"  // strconv parses the capacity query
	"time"     // time zone for date-only query values

	"github.com/labstack/echo/v4" // echo framework supplies request context
	"github.com/rs/zerolog"       // zerolog logs unexpected failures

	"github.com/iliyamo/club-event-engine/internal/apperr"   // coded domain errors
	"github.com/iliyamo/club-event-engine/internal/hall"     // hall registry
	"github.com/iliyamo/club-event-engine/internal/model"    // time window type
	"github.com/iliyamo/club-event-engine/internal/proposal" // lenient date parsing
	"github.com/iliyamo/club-event-engine/internal/service"  // hall suggestion
)

// HallHandler exposes the hall registry and the allocation resolver.
type HallHandler struct {
	halls  *hall.Registry
	events *service.EventService
	loc    *time.Location
	log    *zerolog.Logger
}

// NewHallHandler constructs a HallHandler and panics if any dependency is nil.
func NewHallHandler(halls *hall.Registry, events *service.EventService, loc *time.Location, log *zerolog.Logger) *HallHandler {
	if halls == nil || events == nil || log == nil {
		panic("nil dependency passed to NewHallHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HallHandler{halls: halls, events: events, loc: loc, log: log}
}

type createHallRequest struct {
	Name            string `json:"name" validate:"required"`
	Location        string `json:"location"`
	SeatingCapacity uint32 `json:"seating_capacity" validate:"gt=0"`
}

type capacityRequest struct {
	SeatingCapacity uint32 `json:"seating_capacity" validate:"gt=0"`
}

// ListHalls handles GET /v1/halls.
func (h *HallHandler) ListHalls(c echo.Context) error {
	halls, err := h.halls.ListHalls(c.Request().Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": halls})
}

// SuggestHall handles GET /v1/halls/suggest?capacity=&start=&end= and
// returns the best-fit free hall or the reason none is available.
func (h *HallHandler) SuggestHall(c echo.Context) error {
	capacity, err := strconv.ParseUint(c.QueryParam("capacity"), 10, 32)
	if err != nil || capacity == 0 {
		return fail(c, h.log, apperr.Validation("capacity", "capacity must be a positive integer"))
	}
	start, ok := proposal.ParseDeadline(c.QueryParam("start"), h.loc)
	if !ok {
		return fail(c, h.log, apperr.Validation("start", "start must be an ISO-8601 time"))
	}
	end, ok := proposal.ParseDeadline(c.QueryParam("end"), h.loc)
	if !ok {
		return fail(c, h.log, apperr.Validation("end", "end must be an ISO-8601 time"))
	}
	s, err := h.events.SuggestHall(c.Request().Context(), uint32(capacity), model.Window{Start: start, End: end})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// CreateHall handles POST /v1/halls.
func (h *HallHandler) CreateHall(c echo.Context) error {
	var req createHallRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	created, err := h.halls.CreateHall(c.Request().Context(), req.Name, req.Location, req.SeatingCapacity)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// CorrectCapacity handles PATCH /v1/halls/:id/capacity.
func (h *HallHandler) CorrectCapacity(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req capacityRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	updated, err := h.halls.CorrectCapacity(c.Request().Context(), id, req.SeatingCapacity)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, updated)
}
