package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings" // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/club-event-engine/internal/apperr" // coded errors for the response envelope
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the caller identity into the request context.  Tokens are issued
// by the campus identity service; the provided secret must match the one it
// signs with.  Handlers read the identity through CallerFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return abort(c, apperr.CodeUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HMAC signatures are accepted.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return abort(c, apperr.CodeUnauthorized, "invalid token")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return abort(c, apperr.CodeUnauthorized, "invalid claims")
			}
			if claims["sub"] == nil {
				return abort(c, apperr.CodeUnauthorized, "token has no subject")
			}

			// Store the subject, role and optional display name.  Type
			// assertions are left to CallerFrom.
			c.Set(ctxUserID, claims["sub"])
			c.Set(ctxRole, claims["role"])
			if name, ok := claims["name"].(string); ok {
				c.Set(ctxName, name)
			}
			return next(c)
		}
	}
}

// abort writes the standard error envelope for failures raised before a
// handler runs.
func abort(c echo.Context, code apperr.Code, message string) error {
	return c.JSON(code.HTTPStatus(), echo.Map{
		"error": echo.Map{"code": code, "message": message},
	})
}
