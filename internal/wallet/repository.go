package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agromart-be/internal/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetWallet(ctx context.Context, userID int64) (*Wallet, error)

	// CreditTx credits a wallet inside the caller's transaction, keyed by
	// (order id, reason) so retried order transitions credit at most once.
	// Returns true when this call performed the credit.
	CreditTx(ctx context.Context, tx *sql.Tx, userID int64, orderID uuid.UUID, reason string, amount decimal.Decimal) (bool, error)

	CreateCashout(ctx context.Context, req *CashoutRequest) error
	GetCashout(ctx context.Context, id uuid.UUID) (*CashoutRequest, error)
	ListCashoutsByUser(ctx context.Context, userID int64) ([]*CashoutRequest, error)
	ListPendingCashouts(ctx context.Context) ([]*CashoutRequest, error)

	// ApproveCashoutTx re-checks the balance under a row lock, debits the
	// wallet and flips the request to APPROVED, all in one transaction.
	// Approving an already-APPROVED request is a no-op returning the
	// stored row, making admin retries safe.
	ApproveCashoutTx(ctx context.Context, id uuid.UUID, note, invoiceRef string) (*CashoutRequest, error)

	RejectCashout(ctx context.Context, id uuid.UUID, note string) (*CashoutRequest, error)
	MarkPaid(ctx context.Context, id uuid.UUID, transactionRef string) (*CashoutRequest, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetWallet(ctx context.Context, userID int64) (*Wallet, error) {
	w := &Wallet{UserID: userID, Balance: decimal.Zero}
	err := r.db.QueryRowContext(ctx,
		`SELECT balance, version, updated_at FROM wallets WHERE user_id = $1`,
		userID,
	).Scan(&w.Balance, &w.Version, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// No credits yet: an empty wallet, not an error.
		return w, nil
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return w, nil
}

func (r *repository) CreditTx(ctx context.Context, tx *sql.Tx, userID int64, orderID uuid.UUID, reason string, amount decimal.Decimal) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_credits (order_id, reason, user_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, reason) DO NOTHING
	`, orderID, reason, userID, amount)
	if err != nil {
		return false, fmt.Errorf("insert wallet credit: %w", db.Classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, db.Classify(err)
	}
	if n == 0 {
		// Credit already applied by an earlier attempt.
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance,
		    version = wallets.version + 1,
		    updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return false, fmt.Errorf("credit wallet: %w", db.Classify(err))
	}
	return true, nil
}

const cashoutColumns = `id, user_id, amount, payment_method, account_details, status, requested_at, processed_at, admin_note, invoice_ref, transaction_ref, version`

func (r *repository) CreateCashout(ctx context.Context, req *CashoutRequest) error {
	req.ID = uuid.New()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cashout_requests (id, user_id, amount, payment_method, account_details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING requested_at, version
	`, req.ID, req.UserID, req.Amount, req.PaymentMethod, req.AccountDetails, CashoutPending).
		Scan(&req.RequestedAt, &req.Version)
	return db.Classify(err)
}

func (r *repository) GetCashout(ctx context.Context, id uuid.UUID) (*CashoutRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cashoutColumns+` FROM cashout_requests WHERE id = $1`, id)
	return scanCashout(row)
}

func (r *repository) ListCashoutsByUser(ctx context.Context, userID int64) ([]*CashoutRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cashoutColumns+` FROM cashout_requests WHERE user_id = $1 ORDER BY requested_at DESC`,
		userID,
	)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanCashouts(rows)
}

func (r *repository) ListPendingCashouts(ctx context.Context) ([]*CashoutRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cashoutColumns+` FROM cashout_requests WHERE status = $1 ORDER BY requested_at`,
		CashoutPending,
	)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()
	return scanCashouts(rows)
}

func (r *repository) ApproveCashoutTx(ctx context.Context, id uuid.UUID, note, invoiceRef string) (*CashoutRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", db.Classify(err))
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+cashoutColumns+` FROM cashout_requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanCashout(row)
	if err != nil {
		return nil, err
	}

	// Retried approval: the debit already happened exactly once.
	if req.Status == CashoutApproved {
		return req, nil
	}
	if req.Status != CashoutPending {
		return nil, ErrInvalidState
	}

	// Lock the wallet row so two racing approvals for an over-committed
	// balance serialize; the second sees the reduced balance and fails,
	// leaving its request PENDING for re-decision.
	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`,
		req.UserID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", db.Classify(err))
	}

	if balance.LessThan(req.Amount) {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - $2, version = version + 1, updated_at = NOW()
		WHERE user_id = $1
	`, req.UserID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", db.Classify(err))
	}

	row = tx.QueryRowContext(ctx, `
		UPDATE cashout_requests
		SET status = $2, processed_at = NOW(), admin_note = $3, invoice_ref = $4,
		    version = version + 1
		WHERE id = $1
		RETURNING `+cashoutColumns+`
	`, id, CashoutApproved, note, invoiceRef)
	req, err = scanCashout(row)
	if err != nil {
		return nil, fmt.Errorf("approve cashout: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", db.Classify(err))
	}
	return req, nil
}

func (r *repository) RejectCashout(ctx context.Context, id uuid.UUID, note string) (*CashoutRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE cashout_requests
		SET status = $2, processed_at = NOW(), admin_note = $3, version = version + 1
		WHERE id = $1 AND status = $4
		RETURNING `+cashoutColumns+`
	`, id, CashoutRejected, note, CashoutPending)

	req, err := scanCashout(row)
	if errors.Is(err, ErrCashoutNotFound) {
		return nil, r.stateOrMissing(ctx, id)
	}
	return req, err
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, transactionRef string) (*CashoutRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE cashout_requests
		SET status = $2, transaction_ref = $3, version = version + 1
		WHERE id = $1 AND status = $4
		RETURNING `+cashoutColumns+`
	`, id, CashoutPaid, transactionRef, CashoutApproved)

	req, err := scanCashout(row)
	if errors.Is(err, ErrCashoutNotFound) {
		return nil, r.stateOrMissing(ctx, id)
	}
	return req, err
}

// stateOrMissing disambiguates a zero-row guarded update: the request is
// either absent or in the wrong state.
func (r *repository) stateOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cashout_requests WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return db.Classify(err)
	}
	if !exists {
		return ErrCashoutNotFound
	}
	return ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCashout(row rowScanner) (*CashoutRequest, error) {
	var req CashoutRequest
	err := row.Scan(
		&req.ID, &req.UserID, &req.Amount,
		&req.PaymentMethod, &req.AccountDetails, &req.Status,
		&req.RequestedAt, &req.ProcessedAt,
		&req.AdminNote, &req.InvoiceRef, &req.TransactionRef,
		&req.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCashoutNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return &req, nil
}

func scanCashouts(rows *sql.Rows) ([]*CashoutRequest, error) {
	var reqs []*CashoutRequest
	for rows.Next() {
		req, err := scanCashout(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return reqs, nil
}
