package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-event-engine/internal/middleware"
	"github.com/iliyamo/club-event-engine/internal/model"
)

// RegisterStudent registers student-scoped endpoints under /v1.  All routes
// require a valid JWT and the STUDENT role.  Ownership of a registration is
// checked in the service.
func RegisterStudent(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	g.POST("/topics/:id/ideas", h.Events.SubmitIdea)

	g.POST("/event-registrations/register", h.Registrations.Register)
	g.POST("/event-registrations/:id/withdraw", h.Registrations.Withdraw)
	g.POST("/team-registrations/register", h.Registrations.RegisterTeam)
	g.POST("/team-registrations/:id/cancel", h.Registrations.CancelTeam)
	g.GET("/my-registrations", h.Registrations.ListMine)
}
