/*
errors.go - Centralized error types for the folio engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify errors with the helpers at the bottom of this file
  instead of matching individual sentinels.

ERROR CATEGORIES:
  1. Not found - the referenced room, guest, reservation or entry is gone
  2. Client errors - invalid input (amounts, points, missing fields)
  3. Conflicts - the entity is in the wrong state, or the aggregate moved on
  4. Forbidden / confirmation - caller lacks the manager role or did not
     confirm a destructive action

USAGE:
  if errors.Is(err, hotel.ErrRoomNotVacant) {
      // another check-in won the room
  }

SEE ALSO:
  - room.go, reservation.go: TransitionError producers
  - api/handlers.go: maps categories to HTTP statuses
*/
package hotel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomTypeNotFound    = errors.New("room type not found")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

var (
	// ErrValidation is wrapped by ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPoints     = errors.New("points must be greater than zero")
	ErrInvalidRoomStatus = errors.New("invalid room status")
	ErrInvalidTaxRate    = errors.New("tax rate must be between 0 and 100")

	// ErrInsufficientPoints is returned when a redemption exceeds the balance.
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

var (
	ErrRoomNotVacant       = errors.New("room is not vacant")
	ErrRoomNotOccupied     = errors.New("room is not occupied")
	ErrGuestMismatch       = errors.New("room is occupied by a different guest")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrRoomTypeMismatch    = errors.New("room does not belong to the requested room type")
	ErrRoomMismatch        = errors.New("reservation is assigned to a different room")
	ErrRoomTypeInUse       = errors.New("room type is referenced by rooms")
	ErrRoomInUse           = errors.New("room is in use")
	ErrDuplicateRoomNumber = errors.New("room number already exists")
	ErrDuplicateRoomType   = errors.New("room type already exists")

	// ErrConcurrentModification is returned when the aggregate version does
	// not match the version the caller last saw.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

var (
	ErrForbidden            = errors.New("manager role required")
	ErrConfirmationRequired = errors.New("explicit confirmation required")
	ErrReadOnly             = errors.New("write attempted in read-only view")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError reports a rejected state change on a room or reservation.
type TransitionError struct {
	Entity string // "room" or "reservation"
	ID     string
	From   string
	To     string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot move from %s to %s: %v", e.Entity, e.ID, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// InsufficientPointsError details a redemption that exceeds the balance.
type InsufficientPointsError struct {
	GuestID   GuestID
	Available int64
	Requested int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient loyalty points: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// VersionConflictError details an optimistic concurrency failure.
type VersionConflictError struct {
	Expected Version
	Actual   Version
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("concurrent modification detected: expected version %d, current version %d", e.Expected, e.Actual)
}

func (e *VersionConflictError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrRoomTypeNotFound) ||
		errors.Is(err, ErrGuestNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidPoints) ||
		errors.Is(err, ErrInvalidRoomStatus) ||
		errors.Is(err, ErrInvalidTaxRate) ||
		errors.Is(err, ErrInsufficientPoints)
}

// IsConflict returns true if the entity is in a state that forbids the operation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRoomNotVacant) ||
		errors.Is(err, ErrRoomNotOccupied) ||
		errors.Is(err, ErrGuestMismatch) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrRoomTypeMismatch) ||
		errors.Is(err, ErrRoomMismatch) ||
		errors.Is(err, ErrRoomTypeInUse) ||
		errors.Is(err, ErrRoomInUse) ||
		errors.Is(err, ErrDuplicateRoomNumber) ||
		errors.Is(err, ErrDuplicateRoomType) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsForbidden returns true if the caller lacks the required role.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
