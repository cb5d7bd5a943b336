package library

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when no book with the requested id exists.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidStatus is returned when a status is neither available nor borrowed.
	ErrInvalidStatus = errors.New("status must be 'available' or 'borrowed'")

	// ErrBadRequest marks malformed or missing input.
	ErrBadRequest = errors.New("bad request")

	// ErrAccountNotFound is returned by account lookups that match no row.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when provisioning a duplicate username.
	ErrAccountExists = errors.New("account already exists")
)
