package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agromart-be/internal/bid"
	"agromart-be/internal/crop"
	"agromart-be/internal/db"
	"agromart-be/internal/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// CreateFromBidTx reserves crop stock, inserts the order and flips the
	// accepted bid, all in one transaction. The reservation is the
	// compare-and-swap: of two racing acceptances for the last stock slice
	// the second one fails with crop.ErrInsufficientStock and nothing of
	// its transition is applied.
	CreateFromBidTx(ctx context.Context, o *Order) error

	// CreateDirectTx is the non-negotiated purchase path; same reservation
	// discipline, no bid row.
	CreateDirectTx(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID int64, status *Status) ([]*Order, error)
	ListByFarmer(ctx context.Context, farmerID int64, status *Status) ([]*Order, error)

	// SetStatusTx applies a business-status transition plus its inventory
	// and wallet side effects atomically. credit, when non-nil, is applied
	// through the wallet's (order id, reason) idempotency key; the bool
	// result reports whether this call actually credited.
	SetStatusTx(ctx context.Context, o *Order, newStatus Status, credit *decimal.Decimal) (bool, error)

	SetDeliveryStatus(ctx context.Context, id uuid.UUID, version int64, ds DeliveryStatus) error
	SetInvoice(ctx context.Context, id uuid.UUID, number string) error
}

type repository struct {
	db      *sql.DB
	crops   crop.Repository
	bids    bid.Repository
	wallets wallet.Repository
}

func NewRepository(db *sql.DB, crops crop.Repository, bids bid.Repository, wallets wallet.Repository) Repository {
	return &repository{db: db, crops: crops, bids: bids, wallets: wallets}
}

const orderColumns = `id, crop_id, bid_id, buyer_id, farmer_id, quantity, unit_price, total_amount, advance_amount, due_amount, status, delivery_status, invoice_number, invoiced_at, version, created_at, updated_at`

func (r *repository) CreateFromBidTx(ctx context.Context, o *Order) error {
	if !o.BidID.Valid {
		return errors.New("order has no bid reference")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", db.Classify(err))
	}
	defer tx.Rollback()

	if err := r.reserveAndInsert(ctx, tx, o); err != nil {
		return err
	}

	if err := r.bids.AcceptTx(ctx, tx, o.BidID.UUID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", db.Classify(err))
	}
	return nil
}

func (r *repository) CreateDirectTx(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", db.Classify(err))
	}
	defer tx.Rollback()

	if err := r.reserveAndInsert(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", db.Classify(err))
	}
	return nil
}

func (r *repository) reserveAndInsert(ctx context.Context, tx *sql.Tx, o *Order) error {
	c, err := r.crops.LockTx(ctx, tx, o.CropID)
	if err != nil {
		return err
	}
	if c.IsSold {
		return crop.ErrCropUnavailable
	}

	if err := r.crops.ReserveTx(ctx, tx, o.CropID, o.Quantity); err != nil {
		return err
	}

	o.ID = uuid.New()
	o.FarmerID = c.FarmerID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, crop_id, bid_id, buyer_id, farmer_id, quantity,
		                    unit_price, total_amount, advance_amount, due_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING delivery_status, version, created_at, updated_at
	`, o.ID, o.CropID, o.BidID, o.BuyerID, o.FarmerID, o.Quantity,
		o.UnitPrice, o.TotalAmount, o.AdvanceAmount, o.DueAmount, o.Status).
		Scan(&o.DeliveryStatus, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	return db.Classify(err)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID int64, status *Status) ([]*Order, error) {
	return r.list(ctx, "buyer_id", buyerID, status)
}

func (r *repository) ListByFarmer(ctx context.Context, farmerID int64, status *Status) ([]*Order, error) {
	return r.list(ctx, "farmer_id", farmerID, status)
}

func (r *repository) list(ctx context.Context, column string, userID int64, status *Status) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *repository) SetStatusTx(ctx context.Context, o *Order, newStatus Status, credit *decimal.Decimal) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", db.Classify(err))
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`, o.ID, o.Version, newStatus)
	if err != nil {
		return false, db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, db.Classify(err)
	}
	if n == 0 {
		return false, ErrVersionConflict
	}

	switch newStatus {
	case StatusCancelled:
		if err := r.crops.ReleaseTx(ctx, tx, o.CropID, o.Quantity); err != nil {
			return false, err
		}
	case StatusCompleted:
		if err := r.crops.CommitStockTx(ctx, tx, o.CropID, o.Quantity); err != nil {
			return false, err
		}
	}

	credited := false
	if credit != nil {
		credited, err = r.wallets.CreditTx(ctx, tx, o.FarmerID, o.ID, string(newStatus), *credit)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", db.Classify(err))
	}
	return credited, nil
}

func (r *repository) SetDeliveryStatus(ctx context.Context, id uuid.UUID, version int64, ds DeliveryStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET delivery_status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`, id, version, ds)
	if err != nil {
		return db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.Classify(err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// SetInvoice stamps the invoice number once; later calls are no-ops so
// the projection stays stable.
func (r *repository) SetInvoice(ctx context.Context, id uuid.UUID, number string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET invoice_number = $2, invoiced_at = NOW()
		WHERE id = $1 AND invoice_number IS NULL
	`, id, number)
	return db.Classify(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CropID, &o.BidID, &o.BuyerID, &o.FarmerID,
		&o.Quantity, &o.UnitPrice, &o.TotalAmount, &o.AdvanceAmount, &o.DueAmount,
		&o.Status, &o.DeliveryStatus,
		&o.InvoiceNumber, &o.InvoicedAt,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return orders, nil
}
