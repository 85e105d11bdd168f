// Package apperr defines sentinel errors shared across service and API layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrInvalidName   = errors.New("invalid name")
)
