package leads

import "errors"

var (
	ErrNotFound     = errors.New("lead not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("admin role required")
)
