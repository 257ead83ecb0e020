package domain

import "errors"

// Sentinels returned (wrapped with %w) by services and stores. The HTTP layer
// maps each one onto a status code; anything else is a 500.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
