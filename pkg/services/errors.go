package services

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectNotFound is returned when no project matches the given name or id
	ErrProjectNotFound = errors.New("project not found")

	// ErrSceneNotFound is returned when no scene matches the given id
	ErrSceneNotFound = errors.New("scene not found")

	// ErrObjectNotFound is returned when no scene object matches the given id
	ErrObjectNotFound = errors.New("object not found")

	// ErrUserNotFound is returned when no user matches the given id or name
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on login with an unknown username or wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken is returned when registering a username that already exists
	ErrUsernameTaken = errors.New("username already exists")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
