// Package apperr provides coded domain errors shared by the services and
// the HTTP layer.
package apperr

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeForbidden  Code = "FORBIDDEN"

	// Transport errors raised before a service is reached
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeRateLimited  Code = "RATE_LIMITED"

	// Lifecycle errors
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeSchedulingConflict Code = "SCHEDULING_CONFLICT"
	CodeTopicClosed        Code = "TOPIC_CLOSED"
	CodeIdeaLimitReached   Code = "IDEA_LIMIT_REACHED"

	// Registration errors
	CodeEventFull             Code = "EVENT_FULL"
	CodeEventNotOpen          Code = "EVENT_NOT_OPEN"
	CodeDuplicateRegistration Code = "DUPLICATE_REGISTRATION"
	CodeInvalidTeamSize       Code = "INVALID_TEAM_SIZE"
	CodeDuplicateRollNumber   Code = "DUPLICATE_ROLL_NUMBER"
	CodeWrongEventMode        Code = "WRONG_EVENT_MODE"

	// Infrastructure errors
	CodeUnavailable Code = "UNAVAILABLE"
)

// HTTPStatus maps the code to the status returned at the API boundary.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeInvalidTeamSize, CodeDuplicateRollNumber, CodeWrongEventMode:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInvalidTransition, CodeSchedulingConflict, CodeEventFull, CodeDuplicateRegistration,
		CodeEventNotOpen, CodeTopicClosed, CodeIdeaLimitReached:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
