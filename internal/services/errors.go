package services

import "errors"

// Ownership and state errors returned before any pipeline work starts.
// Nothing is persisted when one of these comes back.
var (
	ErrCvNotFound  = errors.New("cv not found")
	ErrCvNotOwned  = errors.New("cv not owned by user")
	ErrCvNotParsed = errors.New("cv has not been parsed yet")
	ErrJdNotFound  = errors.New("jd not found")
	ErrJdNotOwned  = errors.New("jd not owned by user")

	ErrEvaluationNotFound = errors.New("evaluation not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
