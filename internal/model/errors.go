package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the aggregate, the managers and the service.
var (
	// ErrInvalidInput is matched by every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is the generic kind behind ErrEventNotFound and ErrSessionNotFound.
	ErrNotFound        = errors.New("not found")
	ErrEventNotFound   = fmt.Errorf("event %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	ErrNotAuthorized = errors.New("only the event organizer may perform this action")
	ErrAlreadyMember = errors.New("already joined this event")
	ErrEventFull     = errors.New("event is full")

	// ErrOrganizerJoin is an ErrAlreadyMember: the organizer is never on the roster.
	ErrOrganizerJoin = fmt.Errorf("organizer cannot join their own event: %w", ErrAlreadyMember)

	// ErrConflict is returned when a concurrent writer changed the event first.
	// Callers may retry.
	ErrConflict = errors.New("event was modified concurrently")

	// ErrUnavailable wraps unexpected persistence failures.
	ErrUnavailable = errors.New("storage unavailable")
)

// FieldError describes one rejected field of a payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError carries every violation found in a payload, not just the first.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// Error implements error.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add records a violation.
func (e *ValidationError) Add(field, message string, value any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message, Value: value})
}

// OrNil returns nil when no violation was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string, value any) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message, value)
	return ve
}

// IsNotFound reports whether err is an event or session lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDomainError reports whether err is one of the rejections above, as opposed to an
// unexpected infrastructure failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrConflict)
}
