package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyOwned    = errors.New("product already owned")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict means a concurrent write invalidated a conditional update.
	// Services retry it internally; it only escapes once retries are exhausted.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrDependency marks failures of an external collaborator (the balance authority).
	ErrDependency        = errors.New("dependency failure")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
