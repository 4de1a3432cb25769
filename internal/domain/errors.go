package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Market errors
	ErrMsgMarketNotFound     = "market not found"
	ErrMsgInvalidMarketState = "invalid market state"
	ErrMsgTooFewOutcomes     = "market requires at least two outcomes"
	ErrMsgDuplicateOutcome   = "duplicate outcome label"
	ErrMsgInvalidTimeBounds  = "bet deadline must not be after end time"
	ErrMsgAlreadyResolved    = "market already has a winning outcome"

	// Time-window errors
	ErrMsgDeadlinePassed     = "deadline passed"
	ErrMsgDeadlineNotReached = "deadline not reached"

	// Bet errors
	ErrMsgZeroAmount       = "amount must be positive"
	ErrMsgUnknownOutcome   = "unknown outcome"
	ErrMsgBelowMinimumPool = "pool below minimum size"

	// Transfer errors
	ErrMsgInsufficientFunds = "insufficient funds"

	// Auth errors
	ErrMsgUnauthorizedCaller = "unauthorized caller"

	// Oracle errors
	ErrMsgOracleUnavailable = "oracle unavailable"

	// Vault errors
	ErrMsgFeesAlreadyCollected    = "fees already collected"
	ErrMsgInsufficientVaultBal    = "insufficient vault balance"
	ErrMsgNothingToRetry          = "no retryable payout recorded"
	ErrMsgNoRefundsOutstanding    = "no refunds outstanding"

	// Database/System errors
	ErrMsgTxClosed = "tx is closed"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrMarketNotFound     = errors.New(ErrMsgMarketNotFound)
	ErrInvalidMarketState = errors.New(ErrMsgInvalidMarketState)
	ErrTooFewOutcomes     = errors.New(ErrMsgTooFewOutcomes)
	ErrDuplicateOutcome   = errors.New(ErrMsgDuplicateOutcome)
	ErrInvalidTimeBounds  = errors.New(ErrMsgInvalidTimeBounds)
	ErrAlreadyResolved    = errors.New(ErrMsgAlreadyResolved)

	ErrDeadlinePassed     = errors.New(ErrMsgDeadlinePassed)
	ErrDeadlineNotReached = errors.New(ErrMsgDeadlineNotReached)

	ErrZeroAmount       = errors.New(ErrMsgZeroAmount)
	ErrUnknownOutcome   = errors.New(ErrMsgUnknownOutcome)
	ErrBelowMinimumPool = errors.New(ErrMsgBelowMinimumPool)

	ErrInsufficientFunds = errors.New(ErrMsgInsufficientFunds)

	ErrUnauthorizedCaller = errors.New(ErrMsgUnauthorizedCaller)

	ErrOracleUnavailable = errors.New(ErrMsgOracleUnavailable)

	ErrFeesAlreadyCollected     = errors.New(ErrMsgFeesAlreadyCollected)
	ErrInsufficientVaultBalance = errors.New(ErrMsgInsufficientVaultBal)
	ErrNothingToRetry           = errors.New(ErrMsgNothingToRetry)
	ErrNoRefundsOutstanding     = errors.New(ErrMsgNoRefundsOutstanding)
)

// InvalidStateError reports an operation attempted from an illegal
// lifecycle state. It matches ErrInvalidMarketState under errors.Is.
type InvalidStateError struct {
	Op       string
	Expected []MarketState
	Actual   MarketState
}

func (e *InvalidStateError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		expected[i] = string(s)
	}
	return fmt.Sprintf("%s: %s: expected %s, got %s",
		e.Op, ErrMsgInvalidMarketState, strings.Join(expected, "|"), e.Actual)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidMarketState
}

// NewInvalidStateError builds an InvalidStateError for op
func NewInvalidStateError(op string, actual MarketState, expected ...MarketState) error {
	return &InvalidStateError{Op: op, Expected: expected, Actual: actual}
}
