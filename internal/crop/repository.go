package crop

import (
	"context"
	"database/sql"
	"errors"

	"agromart-be/internal/db"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, c *Crop) error
	GetByID(ctx context.Context, id int64) (*Crop, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]*Crop, error)
	ListAvailable(ctx context.Context) ([]*Crop, error)
	SetSoldOut(ctx context.Context, id int64, sold bool) error

	// Transaction-scoped inventory guard. Callers (bid acceptance, order
	// creation/cancellation/completion) run these inside their own tx so
	// the reservation commits or rolls back with the rest of the transition.
	LockTx(ctx context.Context, tx *sql.Tx, id int64) (*Crop, error)
	ReserveTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error
	ReleaseTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error
	CommitStockTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const cropColumns = `id, farmer_id, name, unit, quantity, reserved, min_price, market_type, is_sold, version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Crop) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO crops (farmer_id, name, unit, quantity, min_price, market_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reserved, is_sold, version, created_at, updated_at
	`, c.FarmerID, c.Name, c.Unit, c.Quantity, c.MinPrice, c.MarketType).
		Scan(&c.ID, &c.Reserved, &c.IsSold, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	return db.Classify(err)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Crop, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE id = $1`, id)
	return scanCrop(row)
}

func (r *repository) ListByFarmer(ctx context.Context, farmerID int64) ([]*Crop, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE farmer_id = $1 ORDER BY created_at DESC`,
		farmerID,
	)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanCrops(rows)
}

func (r *repository) ListAvailable(ctx context.Context) ([]*Crop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cropColumns+`
		FROM crops
		WHERE is_sold = FALSE AND quantity - reserved > 0
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanCrops(rows)
}

func (r *repository) SetSoldOut(ctx context.Context, id int64, sold bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE crops
		SET is_sold = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`, id, sold)
	if err != nil {
		return db.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.Classify(err)
	}
	if n == 0 {
		return ErrCropNotFound
	}
	return nil
}

// LockTx loads the crop row under FOR UPDATE so concurrent reservations
// on the same crop serialize.
func (r *repository) LockTx(ctx context.Context, tx *sql.Tx, id int64) (*Crop, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE id = $1 FOR UPDATE`, id)
	return scanCrop(row)
}

func (r *repository) ReserveTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error {
	return r.adjustTx(ctx, tx, id, `
		UPDATE crops
		SET reserved = reserved + $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND quantity - reserved >= $2
	`, qty, ErrInsufficientStock)
}

func (r *repository) ReleaseTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error {
	return r.adjustTx(ctx, tx, id, `
		UPDATE crops
		SET reserved = reserved - $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND reserved >= $2
	`, qty, ErrVersionConflict)
}

// CommitStockTx burns reserved stock for good once an order completes.
func (r *repository) CommitStockTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error {
	return r.adjustTx(ctx, tx, id, `
		UPDATE crops
		SET quantity = quantity - $2, reserved = reserved - $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND reserved >= $2 AND quantity >= $2
	`, qty, ErrVersionConflict)
}

func (r *repository) adjustTx(ctx context.Context, tx *sql.Tx, id int64, query string, qty decimal.Decimal, onNoRows error) error {
	res, err := tx.ExecContext(ctx, query, id, qty)
	if err != nil {
		return db.Classify(err)
	}
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

func scanCrop(row rowScanner) (*Crop, error) {
	var c Crop
	err := row.Scan(
		&c.ID, &c.FarmerID, &c.Name, &c.Unit,
		&c.Quantity, &c.Reserved, &c.MinPrice,
		&c.MarketType, &c.IsSold, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCropNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &c, nil
}

func scanCrops(rows *sql.Rows) ([]*Crop, error) {
	var crops []*Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, err
		}
		crops = append(crops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return crops, nil
}
