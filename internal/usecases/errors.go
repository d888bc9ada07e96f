package usecases

import "errors"

var (
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ForbiddenError carries the detail shown to the caller.
type ForbiddenError struct {
	Detail string
}

func (e *ForbiddenError) Error() string { return e.Detail }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }
