package crop

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity   = errors.New("invalid crop quantity")
	ErrInvalidPrice      = errors.New("invalid crop price")
	ErrInvalidMarketType = errors.New("invalid market type")
	ErrBelowWholesaleMin = errors.New("quantity below wholesale minimum")

	// -- Resource State --
	ErrCropNotFound      = errors.New("crop not found")
	ErrCropUnavailable   = errors.New("crop is marked sold out")
	ErrInsufficientStock = errors.New("insufficient unreserved stock")

	// -- Authorization --
	ErrNotOwner = errors.New("actor does not own this crop")

	// -- Concurrency --
	ErrVersionConflict = errors.New("crop was modified concurrently")
)
