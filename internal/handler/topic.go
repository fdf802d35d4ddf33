package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/service"
)

type ideaRequest struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	ExpectedOutcome string `json:"expected_outcome"`
}

type ideaStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=UNDER_REVIEW APPROVED REJECTED COMPLETED"`
}

// CreateTopic handles POST /v1/topics and opens a topic for ideas.
func (h *EventHandler) CreateTopic(c echo.Context) error {
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
	topic, err := h.events.CreateTopic(c.Request().Context(), who, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, topic)
}

// RemoveTopic handles DELETE /v1/topics/:id.
func (h *EventHandler) RemoveTopic(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.events.RemoveTopic(c.Request().Context(), who, id); err != nil {
		return fail(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListActiveTopics handles GET /v1/topics/active.
func (h *EventHandler) ListActiveTopics(c echo.Context) error {
	topics, err := h.events.ListActiveTopics(c.Request().Context())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": topics})
}

// SubmitIdea handles POST /v1/topics/:id/ideas.
func (h *EventHandler) SubmitIdea(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req ideaRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	idea, err := h.events.SubmitIdea(c.Request().Context(), who, id, service.IdeaInput{
		Title:           req.Title,
		Description:     req.Description,
		ExpectedOutcome: req.ExpectedOutcome,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, idea)
}

// ListIdeas handles GET /v1/topics/:id/ideas.
func (h *EventHandler) ListIdeas(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	ideas, err := h.events.ListIdeas(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ideas})
}

// UpdateIdeaStatus handles PATCH /v1/ideas/:id/status.
func (h *EventHandler) UpdateIdeaStatus(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	var req ideaStatusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.log, err)
	}
	idea, err := h.events.UpdateIdeaStatus(c.Request().Context(), who, id, model.IdeaStatus(req.Status))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, idea)
}

// PromoteIdea handles POST /v1/ideas/:id/promote.
func (h *EventHandler) PromoteIdea(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.log, err)
	}
	e, err := h.events.PromoteIdea(c.Request().Context(), who, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, e)
}
