package domain

import "errors"

// Error kinds surfaced by the use cases. Callers match them with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateEntry  = errors.New("an entry already exists for this day")
	ErrNotFound        = errors.New("entry not found")
	ErrForbidden       = errors.New("entry belongs to another user")
	ErrExternalService = errors.New("analysis service failure")
	ErrInternal        = errors.New("internal error")
)
