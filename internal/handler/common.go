package handler // handler defines http handlers

import (
	"errors"   // errors.As for coded errors
	"net/http" // http defines status code constants
	"strconv"  // strconv parses path parameters

	"github.com/labstack/echo/v4" // echo defines request context types
	"github.com/rs/zerolog"       // zerolog logs unexpected failures

	"github.com/iliyamo/club-event-engine/internal/apperr"     // coded domain errors
	"github.com/iliyamo/club-event-engine/internal/middleware" // caller identity from the JWT
	"github.com/iliyamo/club-event-engine/internal/model"      // caller type
	"github.com/iliyamo/club-event-engine/internal/utils"      // validation error formatting
)

// errorBody is the JSON envelope returned for every failure.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    apperr.Code       `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// fail writes err in the error envelope.  Coded errors keep their message
// and metadata; anything else is logged and reported as an internal error.
func fail(c echo.Context, log *zerolog.Logger, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    apperr.CodeUnknown,
			Message: "internal error",
		}})
	}
	if ae.Code == apperr.CodeUnavailable {
		log.Warn().Err(ae.Cause).Str("path", c.Path()).Msg(ae.Message)
	}
	return c.JSON(ae.Code.HTTPStatus(), errorBody{Error: errorDetail{
		Code:    ae.Code,
		Message: ae.Message,
		Details: ae.Metadata,
	}})
}

// bind decodes the JSON body into dst and runs the registered validator.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.New(apperr.CodeValidation, "invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		fields := utils.FormatValidationErrors(err)
		if len(fields) == 0 {
			return apperr.Wrap(apperr.CodeValidation, "invalid request body", err)
		}
		return apperr.WithMetadata(apperr.CodeValidation, "request validation failed", fields)
	}
	return nil
}

// caller returns the authenticated identity of the request.
func caller(c echo.Context) (model.Caller, error) {
	who, err := middleware.CallerFrom(c)
	if err != nil {
		return model.Caller{}, apperr.New(apperr.CodeUnauthorized, "unauthorized")
	}
	return who, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, "invalid "+name)
	}
	return id, nil
}

// queryUint parses an optional numeric query parameter; empty yields 0.
func queryUint(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation(name, "invalid "+name)
	}
	return n, nil
}
