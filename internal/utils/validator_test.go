package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type memberInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"rollnumber"`
}

type teamInput struct {
	TeamName string        `json:"team_name" validate:"required"`
	Start    *time.Time    `json:"start_date_time" validate:"omitempty,future"`
	Members  []memberInput `json:"members" validate:"required,dive"`
}

func TestValidatorReportsJSONFieldPaths(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	past := time.Now().Add(-time.Hour)
	err := v.Validate(teamInput{
		Start: &past,
		Members: []memberInput{
			{Name: "Asha", Email: "asha@campus.edu", RollNumber: "21BCS001"},
			{Name: "Ravi", Email: "not-an-email", RollNumber: "   "},
		},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	got := FormatValidationErrors(err)
	for _, field := range []string{"team_name", "start_date_time", "members[1].email", "members[1].roll_number"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("missing %q in %v", field, got)
		}
	}
	if len(got) != 4 {
		t.Fatalf("len(errors) = %d, want 4: %v", len(got), got)
	}
}

func TestValidatorAcceptsFutureStart(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	future := time.Now().Add(time.Hour)
	err := v.Validate(teamInput{
		TeamName: "Byte Knights",
		Start:    &future,
		Members:  []memberInput{{Name: "Asha", Email: "asha@campus.edu", RollNumber: "21BCS001"}},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFormatValidationErrorsIgnoresOtherErrors(t *testing.T) {
	t.Parallel()

	if got := FormatValidationErrors(errors.New("boom")); len(got) != 0 {
		t.Fatalf("FormatValidationErrors = %v, want empty", got)
	}
}

func TestNewAccessTokenClaims(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("s3cret", 42, "SUPER_ADMIN", "Dr. Rao", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (any, error) { return []byte("s3cret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != float64(42) {
		t.Fatalf("sub = %v, want 42", claims["sub"])
	}
	if claims["role"] != "SUPER_ADMIN" || claims["name"] != "Dr. Rao" {
		t.Fatalf("claims = %v", claims)
	}
	if !tok.Exp.After(time.Now()) {
		t.Fatalf("Exp = %v, want future", tok.Exp)
	}
}
