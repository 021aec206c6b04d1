package domain

import "errors"

// Error kinds shared by services and handlers. Services wrap them with
// fmt.Errorf("%w: ...") to attach a caller-facing message.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
)
