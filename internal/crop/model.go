package crop

import (
	"time"

	"github.com/shopspring/decimal"
)

type MarketType string

const (
	MarketRetail MarketType = "RETAIL"
	MarketB2B    MarketType = "B2B"
)

// Crop is a sellable listing. Quantity is total stock; Reserved is the
// slice held by non-terminal orders. Available stock is the difference.
// IsSold is an explicit stock-out flag, orthogonal to quantity.
type Crop struct {
	ID         int64
	FarmerID   int64
	Name       string
	Unit       string
	Quantity   decimal.Decimal
	Reserved   decimal.Decimal
	MinPrice   decimal.Decimal
	MarketType MarketType
	IsSold     bool
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (c *Crop) Available() decimal.Decimal {
	return c.Quantity.Sub(c.Reserved)
}
