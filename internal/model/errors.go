package model

import "errors"

// Typed failures surfaced by market operations. Every fallible step maps to
// exactly one of these so callers can branch on the failure kind.
var (
	ErrAlreadyInitialized = errors.New("market already initialized")
	ErrNotInitialized     = errors.New("market not initialized")
	ErrAlreadyResolved    = errors.New("market already resolved")
	ErrNotResolved        = errors.New("market not resolved")

	ErrInvalidOutcome   = errors.New("invalid outcome: must be 0 (YES) or 1 (NO)")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidLiquidity = errors.New("liquidity parameter must be positive")

	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientLiquidity = errors.New("cannot sell more than outstanding quantity")
	ErrSlippageExceeded      = errors.New("cost exceeds max cost")
	ErrReturnTooLow          = errors.New("return below min return")
	ErrInsufficientPool      = errors.New("collateral pool cannot cover payout")
	ErrNothingToClaim        = errors.New("no winning tokens to claim")

	ErrUnauthorized     = errors.New("unauthorized")
	ErrStorageCorrupted = errors.New("market state corrupted")
)
