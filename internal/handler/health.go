package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the dependency check
	"net/http" // net/http provides status codes
	"time"     // time sets the check deadline

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health returns a health-check handler for load balancers and monitoring.
// When ping is non-nil it pings the backing store and reports 503 on
// failure; otherwise it always answers "ok".
func Health(ping func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "store": "unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
