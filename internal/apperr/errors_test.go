package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodeEventFull, "event is full", map[string]string{"limit": "1"})
	if !errors.Is(err, New(CodeEventFull, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, New(CodeDuplicateRegistration, "")) {
		t.Fatal("unexpected match for different code")
	}
}

func TestCodeOfFollowsWrappedChain(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("approve: %w", New(CodeSchedulingConflict, "hall booked"))
	if got := CodeOf(err); got != CodeSchedulingConflict {
		t.Fatalf("CodeOf = %q, want %q", got, CodeSchedulingConflict)
	}
	if got := CodeOf(errors.New("boom")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, CodeUnknown)
	}
}

func TestHTTPStatusMapsKnownCodes(t *testing.T) {
	t.Parallel()

	cases := map[Code]int{
		CodeValidation:            http.StatusBadRequest,
		CodeInvalidTeamSize:       http.StatusBadRequest,
		CodeNotFound:              http.StatusNotFound,
		CodeForbidden:             http.StatusForbidden,
		CodeUnauthorized:          http.StatusUnauthorized,
		CodeRateLimited:           http.StatusTooManyRequests,
		CodeInvalidTransition:     http.StatusConflict,
		CodeEventFull:             http.StatusConflict,
		CodeDuplicateRegistration: http.StatusConflict,
		CodeUnavailable:           http.StatusServiceUnavailable,
		CodeUnknown:               http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatus(New(code, "x")); got != want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestFromContextProducesRetryableUnavailable(t *testing.T) {
	t.Parallel()

	err := FromContext(context.DeadlineExceeded, "hall registry timed out")
	if !Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected cause to be preserved")
	}
	plain := errors.New("disk")
	if got := FromContext(plain, "x"); got != plain {
		t.Fatalf("FromContext changed non-context error: %v", got)
	}
}

func TestErrorFallsBackToCode(t *testing.T) {
	t.Parallel()

	if got := (&Error{Code: CodeNotFound}).Error(); got != string(CodeNotFound) {
		t.Fatalf("Error() = %q, want %q", got, CodeNotFound)
	}
}
