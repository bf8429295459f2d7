package service

import (
	"errors"

	"backend/internal/repository"
)

// Service-level failure taxonomy. Handlers map these onto HTTP codes with
// errors.Is; services wrap them with fmt.Errorf("...: %w", ...) to add
// context without losing the sentinel.
var (
	// ErrValidation covers malformed or missing caller input.
	ErrValidation = errors.New("validation failed")

	// ErrAmountMismatch is returned when the client-submitted totals diverge
	// from the server-side recomputation beyond the rounding tolerance.
	ErrAmountMismatch = errors.New("amount mismatch between client and server totals")

	// ErrInsufficientFunds is returned when a wallet debit exceeds the
	// member's balance at the time of the owning transaction.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrInvalidAmount is returned for non-positive wallet amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidDepot is returned when a referenced depot does not exist.
	ErrInvalidDepot = errors.New("depot not found")

	// ErrResolution is returned when an item spec yields no display name
	// from either client input or catalog dereferencing.
	ErrResolution = errors.New("could not resolve item name and price")

	// ErrImmutableCancelledItem is returned on quantity updates against a
	// cancelled line item.
	ErrImmutableCancelledItem = errors.New("cancelled items cannot be modified")

	// ErrSequenceConflict surfaces an exhausted allocator retry budget.
	ErrSequenceConflict = repository.ErrSequenceConflict

	// ErrInvalidTransition is returned for disallowed payment-status moves.
	ErrInvalidTransition = errors.New("invalid payment status transition")
)
