/*
errors.go - Centralized error types for the incentive engine

PURPOSE:
  All error types in one place for consistency and discoverability.

TWO KINDS OF FAILURE:
  1. Calculability failures (missing salary, missing rule snapshot, no
     active rule) are NOT errors. They are first-class TrackResult values
     (see types.go) so a batch report can render "no data" per cell without
     aborting every other staff member's calculation.
  2. Operational failures ARE errors: store I/O, invalid input, and payout
     requests that exceed the available balance.

USAGE:
  if errors.Is(err, incentive.ErrInsufficientBalance) {
      var detail *incentive.InsufficientBalanceError
      errors.As(err, &detail)
      // report detail.Available back to the caller
  }

SEE ALSO:
  - ledger.go: Raises InsufficientBalanceError on over-claims
  - rule.go: Raises ErrNoActiveRule from resolution
*/
package incentive

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoActiveRule is returned by RuleResolver when no rule version was
	// effective at the requested timestamp. Callers convert it into a
	// not-calculable track result; they must never substitute a default rule.
	ErrNoActiveRule = errors.New("no rule active at timestamp")

	// ErrInsufficientBalance is returned when a payout request exceeds the
	// available (earned minus committed) balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned for non-positive payout amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrStaffNotFound is returned when a referenced staff member doesn't exist.
	ErrStaffNotFound = errors.New("staff not found")

	// ErrPayoutNotFound is returned when a referenced payout doesn't exist.
	ErrPayoutNotFound = errors.New("payout not found")

	// ErrPayoutDecided is returned when approving or rejecting a payout
	// that already left the pending state.
	ErrPayoutDecided = errors.New("payout already decided")

	// ErrInvalidTrack is returned for an unknown incentive track.
	ErrInvalidTrack = errors.New("invalid incentive track")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports the current position back to the caller
// alongside the rejection, so payout screens can show what is claimable.
type InsufficientBalanceError struct {
	StaffID   StaffID
	Available Money
	Requested Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an engine or storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTrack) ||
		errors.Is(err, ErrPayoutDecided)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStaffNotFound) ||
		errors.Is(err, ErrPayoutNotFound)
}
