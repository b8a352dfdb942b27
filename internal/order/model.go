package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the business axis of an order's lifecycle.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPendingAdvance Status = "PENDING_ADVANCE"
	StatusConfirmed      Status = "CONFIRMED"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusDelivered      Status = "DELIVERED"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DeliveryStatus is the physical axis, tracked independently of Status.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "PENDING"
	DeliveryProcessing     DeliveryStatus = "PROCESSING"
	DeliveryShipped        DeliveryStatus = "SHIPPED"
	DeliveryOutForDelivery DeliveryStatus = "OUT_FOR_DELIVERY"
	DeliveryDelivered      DeliveryStatus = "DELIVERED"
)

// deliveryRank orders the delivery axis; transitions must move strictly
// forward.
var deliveryRank = map[DeliveryStatus]int{
	DeliveryPending:        0,
	DeliveryProcessing:     1,
	DeliveryShipped:        2,
	DeliveryOutForDelivery: 3,
	DeliveryDelivered:      4,
}

type Order struct {
	ID             uuid.UUID
	CropID         int64
	BidID          uuid.NullUUID
	BuyerID        int64
	FarmerID       int64
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	AdvanceAmount  decimal.Decimal
	DueAmount      decimal.Decimal
	Status         Status
	DeliveryStatus DeliveryStatus
	InvoiceNumber  sql.NullString
	InvoicedAt     sql.NullTime
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Invoice is a read-only projection of an order. Repeated generation for
// the same order returns the same artifact.
type Invoice struct {
	Number        string
	OrderID       uuid.UUID
	CropID        int64
	BuyerID       int64
	FarmerID      int64
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TotalAmount   decimal.Decimal
	AdvanceAmount decimal.Decimal
	DueAmount     decimal.Decimal
	Status        Status
	IssuedAt      time.Time
}
