package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/campus-scheduler/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks the role or
	// department relationship required for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the account cannot sign in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when the presented session has lapsed.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when the presented session was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrStaleTransition is returned by repositories when a guarded status
	// transition finds the request no longer in the expected state.
	ErrStaleTransition = errors.New("application: stale transition")
)

// SlotConflictError reports that a requested slot overlaps one or more
// confirmed occupants. It carries enough descriptive detail for the caller to
// render a user-facing explanation; the user picks another slot or resource.
type SlotConflictError struct {
	Occupants []scheduler.Occupant
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	if e == nil || len(e.Occupants) == 0 {
		return "slot conflict"
	}
	first := e.Occupants[0]
	detail := fmt.Sprintf("slot conflict with %q (%s, %s)", first.Title, first.Department, first.Window)
	if len(e.Occupants) > 1 {
		detail += fmt.Sprintf(" and %d more", len(e.Occupants)-1)
	}
	return detail
}

// StaleApprovalError reports that an approval attempt failed because the slot
// was filled by a different request between creation and approval. The
// approver is shown the updated conflict and may reject instead.
type StaleApprovalError struct {
	Conflict *SlotConflictError
}

// Error implements the error interface.
func (e *StaleApprovalError) Error() string {
	if e == nil || e.Conflict == nil {
		return "slot was filled before approval"
	}
	return "slot was filled before approval: " + e.Conflict.Error()
}

// Unwrap exposes the underlying conflict detail.
func (e *StaleApprovalError) Unwrap() error {
	if e == nil || e.Conflict == nil {
		return nil
	}
	return e.Conflict
}

// InvalidTransitionError reports an attempted status change out of a terminal
// state. This indicates a caller bug, not a user-recoverable condition.
type InvalidTransitionError struct {
	RequestID string
	From      scheduler.RequestStatus
	To        scheduler.RequestStatus
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	if e == nil {
		return "invalid status transition"
	}
	return fmt.Sprintf("invalid status transition %s -> %s for request %s", e.From, e.To, e.RequestID)
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
