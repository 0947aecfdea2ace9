package analyses

import (
	"errors"

	"filmdecks-backend/internal/shared/validate"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNotScored = errors.New("analysis has no result yet")
)

type (
	// FieldError describes one violated field constraint.
	FieldError = validate.FieldError
	// ValidationError carries every violation found in a payload.
	ValidationError = validate.Error
)
