package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the workflow core, the repositories and the web
// layer. Every rejected operation wraps one of these with the precondition
// that failed, so callers can both branch on the class and render the detail.
var (
	ErrValidation           = errors.New("VALIDATION_ERROR")
	ErrShiftNotFound        = errors.New("SHIFT_NOT_FOUND")
	ErrShiftUnavailable     = errors.New("SHIFT_UNAVAILABLE")
	ErrRequestNotFound      = errors.New("REQUEST_NOT_FOUND")
	ErrUserNotFound         = errors.New("USER_NOT_FOUND")
	ErrStaleState           = errors.New("STALE_STATE")
	ErrUnauthorized         = errors.New("UNAUTHORIZED")
	ErrReassignmentConflict = errors.New("REASSIGNMENT_CONFLICT")
)

// NewValidationError reports a malformed or ineligible proposal.
func NewValidationError(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// NewShiftNotFoundError reports that the referenced shift does not exist.
func NewShiftNotFoundError(shiftID int64) error {
	return fmt.Errorf("%w: shift %d not found", ErrShiftNotFound, shiftID)
}

// NewShiftUnavailableError reports a shift that cannot be offered: already in
// the past, or already promised to another pending swap.
func NewShiftUnavailableError(detail string) error {
	return fmt.Errorf("%w: %s", ErrShiftUnavailable, detail)
}

// NewRequestNotFoundError reports that the swap request does not exist.
func NewRequestNotFoundError(requestID int64) error {
	return fmt.Errorf("%w: swap request %d not found", ErrRequestNotFound, requestID)
}

// NewUserNotFoundError reports a missing user record.
func NewUserNotFoundError(userID int64) error {
	return fmt.Errorf("%w: user %d not found", ErrUserNotFound, userID)
}

// NewStaleStateError reports a decision submitted against a request that has
// already left the expected state, including attempts to act twice.
func NewStaleStateError(detail string) error {
	return fmt.Errorf("%w: %s", ErrStaleState, detail)
}

// NewUnauthorizedError reports an actor lacking the role required for the
// attempted decision.
func NewUnauthorizedError(detail string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
}

// NewReassignmentConflictError reports that shift ownership changed between
// validation and the final commit.
func NewReassignmentConflictError(shiftID int64) error {
	return fmt.Errorf("%w: shift %d changed owner before the swap could commit", ErrReassignmentConflict, shiftID)
}
