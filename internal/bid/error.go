package bid

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidAmount   = errors.New("bid amount must be positive")
	ErrInvalidQuantity = errors.New("bid quantity must be positive")
	ErrInvalidAction   = errors.New("invalid buyer action")
	ErrOwnCrop         = errors.New("cannot bid on own crop")

	// -- Resource State --
	ErrBidNotFound      = errors.New("bid not found")
	ErrInvalidState     = errors.New("bid is not in a state permitting this transition")
	ErrNegotiationLimit = errors.New("negotiation round limit reached")

	// -- Authorization --
	ErrNotOwner = errors.New("actor does not own the crop this bid targets")
	ErrNotBuyer = errors.New("actor is not the bid's buyer")
)
