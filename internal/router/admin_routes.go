package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-event-engine/internal/middleware"
	"github.com/iliyamo/club-event-engine/internal/model"
)

// RegisterClubAdmin registers the club administration endpoints.  Super
// admins may use them as well.
func RegisterClubAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClubAdmin, model.RoleSuperAdmin),
	)

	// ---- Topics and ideas ----
	g.POST("/topics", h.Events.CreateTopic)
	g.DELETE("/topics/:id", h.Events.RemoveTopic)
	g.GET("/topics/:id/ideas", h.Events.ListIdeas)
	g.PATCH("/ideas/:id/status", h.Events.UpdateIdeaStatus)
	g.POST("/ideas/:id/promote", h.Events.PromoteIdea)

	// ---- Event lifecycle ----
	g.POST("/events", h.Events.CreateEvent)
	g.POST("/events/:id/submit-for-approval", h.Events.SubmitForApproval)
	g.POST("/events/:id/resubmit", h.Events.Resubmit)
	g.POST("/events/:id/complete", h.Events.Complete)
	g.POST("/events/:id/cancel", h.Events.Cancel)

	// ---- Registrations ----
	g.GET("/events/:id/registrations", h.Registrations.ListRegistrations)
	g.GET("/events/:id/teams", h.Registrations.ListTeams)
	g.PATCH("/event-registrations/:id/attendance", h.Registrations.SetAttendance)
	g.PATCH("/team-registrations/:id/attendance", h.Registrations.SetTeamAttendance)
}

// RegisterSuperAdmin registers the approval and hall management endpoints.
func RegisterSuperAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSuperAdmin),
	)
	g.POST("/events/:id/approve", h.Events.Approve)
	g.POST("/events/:id/reject", h.Events.Reject)

	g.POST("/halls", h.Halls.CreateHall)
	g.PATCH("/halls/:id/capacity", h.Halls.CorrectCapacity)
}
