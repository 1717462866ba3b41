package domain

import "errors"

var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPersistence        = errors.New("session persistence failed")
	ErrDeserialization    = errors.New("malformed payload")
	ErrNoSession          = errors.New("no stored session")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ValidationError is a rejection reported by the backend, carrying a message
// meant for display next to a form.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
