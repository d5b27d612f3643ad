package services

import (
	"errors"
	"fmt"

	"github.com/ilng/roster/internal/store"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an id does not resolve.
	ErrNotFound = store.ErrNotFound
	// ErrConflict marks a request that contradicts the current state.
	ErrConflict = errors.New("conflict")

	ErrAlreadyOnDuty    = fmt.Errorf("%w: already on duty", ErrConflict)
	ErrNotOnDuty        = fmt.Errorf("%w: not currently on duty", ErrConflict)
	ErrInvalidPromotion = fmt.Errorf("%w: cannot promote to same or lower rank", ErrConflict)

	ErrInvalidRank = fmt.Errorf("%w: invalid rank", ErrValidation)

	// ErrInvalidCredentials covers unknown users, accounts without a
	// password and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is inactive")
)

// ValidationError reports a problem with one input field. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
