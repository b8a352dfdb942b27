package bid

import (
	"context"
	"database/sql"
	"errors"

	"agromart-be/internal/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, b *Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bid, error)
	ListByCrop(ctx context.Context, cropID int64) ([]*Bid, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*Bid, error)
	Delete(ctx context.Context, id uuid.UUID, buyerID int64) error

	// Single-row optimistic transitions. The version check makes two racing
	// farmer/buyer responses to the same bid serialize: the loser's update
	// matches no row and surfaces ErrInvalidState.
	Counter(ctx context.Context, id uuid.UUID, version int64, counterPrice decimal.Decimal) error
	Recounter(ctx context.Context, id uuid.UUID, version int64, amount decimal.Decimal) error
	SetRejected(ctx context.Context, id uuid.UUID, version int64) error

	// AcceptTx flips the bid to ACCEPTED inside the caller's transaction,
	// alongside the inventory reservation and order insert.
	AcceptTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const bidColumns = `id, crop_id, buyer_id, amount, quantity, status, counter_price, rounds, bid_time, updated_at, version`

func (r *repository) Create(ctx context.Context, b *Bid) error {
	b.ID = uuid.New()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO bids (id, crop_id, buyer_id, amount, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING rounds, bid_time, updated_at, version
	`, b.ID, b.CropID, b.BuyerID, b.Amount, b.Quantity, StatusPending).
		Scan(&b.Rounds, &b.BidTime, &b.UpdatedAt, &b.Version)
	return db.Classify(err)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Bid, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE id = $1`, id)
	return scanBid(row)
}

func (r *repository) ListByCrop(ctx context.Context, cropID int64) ([]*Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE crop_id = $1 ORDER BY bid_time DESC`,
		cropID,
	)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanBids(rows)
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID int64) ([]*Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE buyer_id = $1 ORDER BY bid_time DESC`,
		buyerID,
	)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanBids(rows)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID, buyerID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM bids
		WHERE id = $1 AND buyer_id = $2 AND status = $3
	`, id, buyerID, StatusPending)
	if err != nil {
		return db.Classify(err)
	}
	return requireRow(res, ErrInvalidState)
}

func (r *repository) Counter(ctx context.Context, id uuid.UUID, version int64, counterPrice decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bids
		SET status = $3, counter_price = $4, rounds = rounds + 1,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = $5
	`, id, version, StatusCountered, counterPrice, StatusPending)
	if err != nil {
		return db.Classify(err)
	}
	return requireRow(res, ErrInvalidState)
}

// Recounter loops a countered bid back to PENDING with the buyer's new
// price, re-entering the farmer's queue.
func (r *repository) Recounter(ctx context.Context, id uuid.UUID, version int64, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bids
		SET status = $3, amount = $4, counter_price = NULL,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = $5
	`, id, version, StatusPending, amount, StatusCountered)
	if err != nil {
		return db.Classify(err)
	}
	return requireRow(res, ErrInvalidState)
}

func (r *repository) SetRejected(ctx context.Context, id uuid.UUID, version int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bids
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status IN ($4, $5)
	`, id, version, StatusRejected, StatusPending, StatusCountered)
	if err != nil {
		return db.Classify(err)
	}
	return requireRow(res, ErrInvalidState)
}

func (r *repository) AcceptTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE bids
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`, id, StatusAccepted, StatusPending, StatusCountered)
	if err != nil {
		return db.Classify(err)
	}
	return requireRow(res, ErrInvalidState)
}

func requireRow(res sql.Result, onNoRows error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return db.Classify(err)
	}
	if n == 0 {
		return onNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBid(row rowScanner) (*Bid, error) {
	var b Bid
	err := row.Scan(
		&b.ID, &b.CropID, &b.BuyerID,
		&b.Amount, &b.Quantity, &b.Status,
		&b.CounterPrice, &b.Rounds,
		&b.BidTime, &b.UpdatedAt, &b.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBidNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &b, nil
}

func scanBids(rows *sql.Rows) ([]*Bid, error) {
	var bids []*Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return bids, nil
}
