package domain

import "errors"

var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrForbidden indicates that the principal may not perform the action.
	ErrForbidden = errors.New("action forbidden")
	// ErrDuplicateReport indicates an open report already exists for the
	// same ad and reporter.
	ErrDuplicateReport = errors.New("open report already exists for this ad and reporter")
	// ErrRepository indicates a generic data persistence error.
	ErrRepository = errors.New("repository error")
)
