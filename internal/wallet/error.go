package wallet

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidAmount  = errors.New("cashout amount must be positive")
	ErrMissingMethod  = errors.New("payment method is required")
	ErrMissingAccount = errors.New("account details are required")

	// -- Resource State --
	ErrCashoutNotFound     = errors.New("cashout request not found")
	ErrInvalidState        = errors.New("cashout request is not in a state permitting this transition")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// -- Authorization --
	ErrNotRequester = errors.New("actor does not own this cashout request")
)
