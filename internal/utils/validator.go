package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator and satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator returns a Validator with the custom tags registered.  Field
// names in errors follow the json tag so clients see the names they sent.
func NewValidator() *Validator {
	v := &Validator{validate: validator.New(), now: time.Now}
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.validate.RegisterValidation("future", v.validateFuture)
	_ = v.validate.RegisterValidation("rollnumber", validateRollNumber)
	return v
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

func (v *Validator) validateFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(v.now())
}

func validateRollNumber(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// FormatValidationErrors converts validation errors to a field -> message map.
// Errors that are not validator.ValidationErrors yield an empty map.
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, e := range verrs {
		field := fieldPath(e.Namespace())
		switch e.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", e.Field())
		case "email":
			out[field] = "invalid email format"
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
		case "gt", "gte":
			out[field] = fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
		case "future":
			out[field] = fmt.Sprintf("%s must be in the future", e.Field())
		case "rollnumber":
			out[field] = "roll number must not be blank"
		default:
			out[field] = fmt.Sprintf("%s is invalid", e.Field())
		}
	}
	return out
}

// fieldPath drops the root struct name: "registerTeamRequest.members[1].email"
// becomes "members[1].email".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
