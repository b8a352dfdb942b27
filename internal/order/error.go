package order

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("order quantity must be positive")
	ErrUnknownStatus   = errors.New("unknown order status")

	// -- Resource State --
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("status transition not permitted by lifecycle graph")
	ErrDeliveryBackward  = errors.New("delivery status cannot move backward")
	ErrDeliveryFrozen    = errors.New("delivery status is frozen on a cancelled order")
	ErrAlreadyTerminal   = errors.New("order is in a terminal state")

	// -- Authorization --
	ErrUnauthorized = errors.New("actor lacks rights over this order")

	// -- Concurrency --
	ErrVersionConflict = errors.New("order was modified concurrently")
)
