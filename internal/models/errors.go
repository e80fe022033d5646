package models

import "errors"

// Domain error kinds. Services return these (possibly wrapped); handlers map
// them to HTTP statuses with errors.Is.
var (
	// Pool generation
	ErrPoolAlreadyLocked = errors.New("ticket pool already locked")
	ErrCapacityExceeded  = errors.New("prize quantities exceed pool capacity")

	// Allocation: user-recoverable, surfaced to the buyer
	ErrInsufficientInventory = errors.New("insufficient ticket inventory")
	ErrPerUserCapExceeded    = errors.New("per-user ticket cap exceeded")

	// Reveal. ErrPrizeExhausted should be structurally impossible given the
	// fixed prize binding; observing it means the pool generator is broken.
	ErrTicketNotSold   = errors.New("ticket has not been sold")
	ErrAlreadyRevealed = errors.New("ticket already revealed")
	ErrNotTicketOwner  = errors.New("ticket belongs to a different user")
	ErrPrizeExhausted  = errors.New("prize inventory exhausted")

	// Snapshot / draw: operator-facing preconditions, not retried
	ErrSnapshotMissing      = errors.New("no draw snapshot exists for competition")
	ErrSnapshotExists       = errors.New("draw snapshot already exists for competition")
	ErrDrawAlreadyExecuted  = errors.New("draw already executed for competition")
	ErrCompetitionNotClosed = errors.New("competition is not closed")

	// Verification: integrity failure, always logged and escalated
	ErrVerificationMismatch = errors.New("draw verification mismatch")

	// Wallet
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	ErrCompetitionNotFound = errors.New("competition not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrDrawNotFound        = errors.New("draw not found")
	ErrInvalidTransition   = errors.New("invalid competition status transition")
)
