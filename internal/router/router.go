package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/club-event-engine/internal/handler" // HTTP handlers
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Events        *handler.EventHandler
	Registrations *handler.RegistrationHandler
	Halls         *handler.HallHandler
	Health        echo.HandlerFunc
	// HallCache wraps GET /v1/halls; nil disables caching.
	HallCache echo.MiddlewareFunc
}

// Register mounts every route on e.  jwtSecret verifies access tokens on the
// protected groups.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	RegisterPublic(e, h)
	RegisterStudent(e, h, jwtSecret)
	RegisterClubAdmin(e, h, jwtSecret)
	RegisterSuperAdmin(e, h, jwtSecret)
}

// RegisterPublic registers the unauthenticated read endpoints.
func RegisterPublic(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health)

	var hallMW []echo.MiddlewareFunc
	if h.HallCache != nil {
		hallMW = append(hallMW, h.HallCache)
	}
	e.GET("/v1/halls", h.Halls.ListHalls, hallMW...)
	e.GET("/v1/halls/suggest", h.Halls.SuggestHall)

	e.GET("/v1/events", h.Events.ListEvents)
	e.GET("/v1/events/:id", h.Events.GetEvent)
	e.GET("/v1/events/:id/participants", h.Registrations.Participants)
	e.GET("/v1/topics/active", h.Events.ListActiveTopics)
}
