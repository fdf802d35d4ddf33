package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/club-event-engine/internal/apperr" // coded errors for the response envelope
)

// RequireRole returns a middleware function that enforces that the
// authenticated caller has one of the specified roles.  The roles should
// correspond to the values carried in the JWT's "role" claim (STUDENT,
// CLUB_ADMIN, SUPER_ADMIN).  It assumes JWTAuth has already run.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] {
				return abort(c, apperr.CodeForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
