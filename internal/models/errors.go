package models

import "errors"

// Domain failure kinds. Services return these, usually wrapped with context,
// so handlers can map a failure to an HTTP status with errors.Is instead of
// matching message strings.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrValidation         = errors.New("validation failed")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
