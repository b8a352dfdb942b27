package bid

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCountered Status = "COUNTERED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether the bid can no longer move.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Bid is one negotiation thread between a buyer and the crop's owner.
// Amount is the offered price per unit; CounterPrice holds the farmer's
// open counter while status is COUNTERED. Rounds counts farmer counters
// so negotiation cannot ping-pong forever.
type Bid struct {
	ID           uuid.UUID
	CropID       int64
	BuyerID      int64
	Amount       decimal.Decimal
	Quantity     decimal.Decimal
	Status       Status
	CounterPrice decimal.NullDecimal
	Rounds       int
	BidTime      time.Time
	UpdatedAt    time.Time
	Version      int64
}

// EffectivePrice is the unit price an acceptance settles at: the farmer's
// counter when one is open, the buyer's offer otherwise.
func (b *Bid) EffectivePrice() decimal.Decimal {
	if b.Status == StatusCountered && b.CounterPrice.Valid {
		return b.CounterPrice.Decimal
	}
	return b.Amount
}

// BuyerAction is the tagged response a buyer gives to a counter-offer.
type BuyerAction string

const (
	ActionAccept  BuyerAction = "accept"
	ActionReject  BuyerAction = "reject"
	ActionCounter BuyerAction = "counter"
)
