// Package validate wraps go-playground/validator so every feature reports
// field violations in the same shape.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError describes one violated field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Issue   string `json:"issue"`
	Message string `json:"message"`
}

// Error carries every violation found in a payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// Has reports whether field is among the violations.
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Field builds a single-violation error.
func Field(field, issue, message string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Issue: issue, Message: message}}}
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails on an empty tag or nil func
	_ = val.RegisterValidation("notblank", validators.NotBlank)
	return val
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &Error{}
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out.Fields = append(out.Fields, toFieldError(field, fe))
	}
	return out
}

// Var validates a single value against tag, reporting it as field.
func Var(field string, value any, tag string) error {
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return &Error{Fields: []FieldError{toFieldError(field, fieldErrs[0])}}
}

// DecodeJSON decodes body into dst and validates it. Decode failures are
// reported as field violations too.
func DecodeJSON(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Field("body", "invalid_json", "Request body must be a single JSON object")
	}
	return Struct(dst)
}

func toFieldError(field string, fe validator.FieldError) FieldError {
	switch fe.Tag() {
	case "required", "notblank":
		return FieldError{Field: field, Issue: "required", Message: field + " is required"}
	case "min":
		if fe.Kind() == reflect.Slice {
			return FieldError{Field: field, Issue: "too_small", Message: "Select at least " + fe.Param()}
		}
		return FieldError{Field: field, Issue: "too_small", Message: field + " must be at least " + fe.Param() + " characters"}
	case "max":
		return FieldError{Field: field, Issue: "too_big", Message: field + " must be at most " + fe.Param() + " characters"}
	case "email":
		return FieldError{Field: field, Issue: "invalid_email", Message: "Invalid email address"}
	case "oneof":
		return FieldError{Field: field, Issue: "invalid_enum", Message: field + " must be one of: " + fe.Param()}
	case "uuid", "uuid4":
		return FieldError{Field: field, Issue: "invalid_id", Message: field + " must be a valid id"}
	default:
		return FieldError{Field: field, Issue: fe.Tag(), Message: field + " is invalid"}
	}
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return Field(field, "invalid_type", "Expected "+typeErr.Type.String()+", received "+typeErr.Value)
	}
	return Field("body", "invalid_json", "Request body must be a JSON object")
}
