package wallet

import (
	"context"
	"database/sql"
	"testing"
	"time"

	storage "agromart-be/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, *sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), db, mock
}

func cashoutRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "amount", "payment_method", "account_details", "status",
		"requested_at", "processed_at", "admin_note", "invoice_ref", "transaction_ref", "version",
	})
}

func TestGetWallet(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT balance, version, updated_at FROM wallets`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "version", "updated_at"}).
			AddRow("190", 2, now))

	w, err := repo.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(190)))
}

func TestGetWalletNeverCredited(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT balance, version, updated_at FROM wallets`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w, err := repo.GetWallet(context.Background(), 99)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestCreditTx(t *testing.T) {
	repo, db, mock := newMockRepo(t)

	orderID := uuid.New()
	amount := decimal.NewFromInt(190)

	t.Run("First credit applies", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO wallet_credits`).
			WithArgs(orderID, "COMPLETED", int64(1), amount).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO wallets`).
			WithArgs(int64(1), amount).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.Begin()
		require.NoError(t, err)
		credited, err := repo.CreditTx(context.Background(), tx, 1, orderID, "COMPLETED", amount)
		require.NoError(t, err)
		assert.True(t, credited)
	})

	t.Run("Replayed credit is a no-op", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO wallet_credits`).
			WithArgs(orderID, "COMPLETED", int64(1), amount).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.Begin()
		require.NoError(t, err)
		credited, err := repo.CreditTx(context.Background(), tx, 1, orderID, "COMPLETED", amount)
		require.NoError(t, err)
		assert.False(t, credited)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveCashoutTx(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	pendingRow := func() *sqlmock.Rows {
		return cashoutRows().
			AddRow(id, 1, "150", "bank_transfer", "BCA 123", "PENDING", now, nil, nil, nil, nil, 1)
	}

	t.Run("Happy path debits and approves", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM cashout_requests WHERE id = \$1 FOR UPDATE`).
			WithArgs(id).
			WillReturnRows(pendingRow())
		mock.ExpectQuery(`SELECT balance FROM wallets WHERE user_id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("200"))
		mock.ExpectExec(`UPDATE wallets\s+SET balance = balance - \$2`).
			WithArgs(int64(1), decimal.RequireFromString("150")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`UPDATE cashout_requests\s+SET status = \$2`).
			WithArgs(id, CashoutApproved, "ok", "INV-1").
			WillReturnRows(cashoutRows().
				AddRow(id, 1, "150", "bank_transfer", "BCA 123", "APPROVED", now, now, "ok", "INV-1", nil, 2))
		mock.ExpectCommit()

		req, err := repo.ApproveCashoutTx(context.Background(), id, "ok", "INV-1")
		require.NoError(t, err)
		assert.Equal(t, CashoutApproved, req.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insufficient balance under lock", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM cashout_requests WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(pendingRow())
		mock.ExpectQuery(`SELECT balance FROM wallets WHERE user_id = \$1 FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("100"))
		mock.ExpectRollback()

		_, err := repo.ApproveCashoutTx(context.Background(), id, "ok", "INV-1")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("No wallet row at all", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM cashout_requests WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(pendingRow())
		mock.ExpectQuery(`SELECT balance FROM wallets WHERE user_id = \$1 FOR UPDATE`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.ApproveCashoutTx(context.Background(), id, "ok", "INV-1")
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("Retried approval is a no-op", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM cashout_requests WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(cashoutRows().
				AddRow(id, 1, "150", "bank_transfer", "BCA 123", "APPROVED", now, now, "ok", "INV-1", nil, 2))
		mock.ExpectRollback()

		req, err := repo.ApproveCashoutTx(context.Background(), id, "ok", "INV-1")
		require.NoError(t, err)
		assert.Equal(t, CashoutApproved, req.Status)
	})

	t.Run("Rejected request cannot be approved", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .+ FROM cashout_requests WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(cashoutRows().
				AddRow(id, 1, "150", "bank_transfer", "BCA 123", "REJECTED", now, now, "no", nil, nil, 2))
		mock.ExpectRollback()

		_, err := repo.ApproveCashoutTx(context.Background(), id, "ok", "INV-1")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestRejectCashoutWrongState(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`UPDATE cashout_requests\s+SET status = \$2`).
		WithArgs(id, CashoutRejected, "no", CashoutPending).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.RejectCashout(context.Background(), id, "no")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMarkPaidMissing(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`UPDATE cashout_requests\s+SET status = \$2`).
		WithArgs(id, CashoutPaid, "TX-9", CashoutApproved).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.MarkPaid(context.Background(), id, "TX-9")
	assert.ErrorIs(t, err, ErrCashoutNotFound)
}

func TestMarkPaid(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`UPDATE cashout_requests\s+SET status = \$2`).
		WithArgs(id, CashoutPaid, "TX-9", CashoutApproved).
		WillReturnRows(cashoutRows().
			AddRow(id, 1, "150", "bank_transfer", "BCA 123", "PAID", now, now, "ok", "INV-1", "TX-9", 3))

	req, err := repo.MarkPaid(context.Background(), id, "TX-9")
	require.NoError(t, err)
	assert.Equal(t, CashoutPaid, req.Status)
	assert.Equal(t, "TX-9", req.TransactionRef.String)
}

func TestGetWalletStorageUnavailable(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT balance, version, updated_at FROM wallets`).
		WithArgs(int64(1)).
		WillReturnError(&pq.Error{Code: "53300"})

	_, err := repo.GetWallet(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestCreateCashout(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO cashout_requests`).
		WillReturnRows(sqlmock.NewRows([]string{"requested_at", "version"}).AddRow(now, 1))

	req := &CashoutRequest{
		UserID:         1,
		Amount:         decimal.NewFromInt(150),
		PaymentMethod:  "bank_transfer",
		AccountDetails: "BCA 123",
	}
	err := repo.CreateCashout(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, req.ID)
}
