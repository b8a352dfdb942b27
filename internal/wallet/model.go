package wallet

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's accrued, not-yet-withdrawn earnings. Balance is
// mutated only by this package: credits from completed orders, debits
// from approved cashouts.
type Wallet struct {
	UserID    int64
	Balance   decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}

type CashoutStatus string

const (
	CashoutPending  CashoutStatus = "PENDING"
	CashoutApproved CashoutStatus = "APPROVED"
	CashoutRejected CashoutStatus = "REJECTED"
	CashoutPaid     CashoutStatus = "PAID"
)

type CashoutRequest struct {
	ID             uuid.UUID
	UserID         int64
	Amount         decimal.Decimal
	PaymentMethod  string
	AccountDetails string
	Status         CashoutStatus
	RequestedAt    time.Time
	ProcessedAt    sql.NullTime
	AdminNote      sql.NullString
	InvoiceRef     sql.NullString
	TransactionRef sql.NullString
	Version        int64
}
