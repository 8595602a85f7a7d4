package notification

import "errors"

var (
	// ErrInvalidArgument means a required payload field is missing.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden means the caller may not trigger this fan-out.
	ErrForbidden = errors.New("forbidden")
	// ErrInternal wraps storage failures that abort a fan-out.
	ErrInternal = errors.New("internal error")
)
