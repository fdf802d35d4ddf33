package middleware

// identity.go holds the context keys JWTAuth writes and the helpers that read
// them back, for handlers (CallerFrom) and for the rate limiter key (userID).

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-event-engine/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxName   = "name"
)

// ErrNoCaller is returned by CallerFrom when the context carries no usable
// identity.
var ErrNoCaller = errors.New("invalid user_id in context")

// CallerFrom builds the caller identity stored by JWTAuth.  The subject may
// arrive as a JSON number or a string depending on the issuer.
func CallerFrom(c echo.Context) (model.Caller, error) {
	var id uint64
	switch t := c.Get(ctxUserID).(type) {
	case uint64:
		id = t
	case int:
		id = uint64(t)
	case int64:
		id = uint64(t)
	case float64:
		id = uint64(t)
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return model.Caller{}, ErrNoCaller
		}
		id = n
	default:
		return model.Caller{}, ErrNoCaller
	}
	if id == 0 {
		return model.Caller{}, ErrNoCaller
	}
	role, _ := c.Get(ctxRole).(string)
	name, _ := c.Get(ctxName).(string)
	return model.Caller{UserID: id, Role: role, Name: name}, nil
}

// userID returns the caller id as a string for keys, or "anon" when the
// request is unauthenticated.
func userID(c echo.Context) string {
	caller, err := CallerFrom(c)
	if err != nil {
		return "anon"
	}
	return strconv.FormatUint(caller.UserID, 10)
}
