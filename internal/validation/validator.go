// Package validation wraps go-playground/validator and turns its errors into
// field-keyed messages for API responses.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates request and domain structs.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports fields by their JSON tag names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s and returns a map of field to message, or nil if valid.
func (val *Validator) Struct(s any) map[string]string {
	return ToDetails(val.v.Struct(s))
}

// Var validates a single value against a tag and returns the message, or "".
func (val *Validator) Var(value any, tag string) string {
	err := val.v.Var(value, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return formatFieldError(verrs[0])
	}
	return "is invalid"
}

// ToDetails converts decode and validation errors into a map[field]message.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return map[string]string{ute.Field: "has an invalid type"}
	}
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", param)
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", param)
	case "ulid":
		return "Must be a valid id."
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return fmt.Sprintf("Failed '%s' validation with parameter '%s'.", fe.Tag(), param)
		}
		return fmt.Sprintf("Failed '%s' validation.", fe.Tag())
	}
}
