package wallet

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"agromart-be/internal/notify"
	"agromart-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetWallet(ctx context.Context, userID int64) (*Wallet, error) {
	args := m.Called(ctx, userID)
	if w := args.Get(0); w != nil {
		return w.(*Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) CreditTx(ctx context.Context, tx *sql.Tx, userID int64, orderID uuid.UUID, reason string, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, tx, userID, orderID, reason, amount)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) CreateCashout(ctx context.Context, req *CashoutRequest) error {
	args := m.Called(ctx, req)
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockRepository) GetCashout(ctx context.Context, id uuid.UUID) (*CashoutRequest, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*CashoutRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListCashoutsByUser(ctx context.Context, userID int64) ([]*CashoutRequest, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]*CashoutRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListPendingCashouts(ctx context.Context) ([]*CashoutRequest, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*CashoutRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ApproveCashoutTx(ctx context.Context, id uuid.UUID, note, invoiceRef string) (*CashoutRequest, error) {
	args := m.Called(ctx, id, note, invoiceRef)
	if r := args.Get(0); r != nil {
		return r.(*CashoutRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) RejectCashout(ctx context.Context, id uuid.UUID, note string) (*CashoutRequest, error) {
	args := m.Called(ctx, id, note)
	if r := args.Get(0); r != nil {
		return r.(*CashoutRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) MarkPaid(ctx context.Context, id uuid.UUID, transactionRef string) (*CashoutRequest, error) {
	args := m.Called(ctx, id, transactionRef)
	if r := args.Get(0); r != nil {
		return r.(*CashoutRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func farmerCtx(id int64) context.Context {
	return utils.SetUserContext(context.Background(), id, "f@example.com", "FARMER")
}

func adminCtx(id int64) context.Context {
	return utils.SetUserContext(context.Background(), id, "a@example.com", "ADMIN")
}

func TestRequestCashout(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetWallet", mock.Anything, int64(1)).
		Return(&Wallet{UserID: 1, Balance: decimal.NewFromInt(200)}, nil)
	repo.On("CreateCashout", mock.Anything, mock.AnythingOfType("*wallet.CashoutRequest")).Return(nil)
	svc := NewService(repo, notify.Noop{})

	req, err := svc.RequestCashout(farmerCtx(1), decimal.NewFromInt(150), "bank_transfer", "BCA 123")
	require.NoError(t, err)
	assert.Equal(t, CashoutPending, req.Status)
	assert.Equal(t, int64(1), req.UserID)
}

func TestRequestCashoutBeyondBalance(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetWallet", mock.Anything, int64(1)).
		Return(&Wallet{UserID: 1, Balance: decimal.NewFromInt(100)}, nil)
	svc := NewService(repo, notify.Noop{})

	_, err := svc.RequestCashout(farmerCtx(1), decimal.NewFromInt(150), "bank_transfer", "BCA 123")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestRequestCashoutValidation(t *testing.T) {
	svc := NewService(new(mockRepository), notify.Noop{})

	tests := []struct {
		name    string
		amount  decimal.Decimal
		method  string
		account string
		wantErr error
	}{
		{"Zero amount", decimal.Zero, "bank_transfer", "BCA 123", ErrInvalidAmount},
		{"Negative amount", decimal.NewFromInt(-5), "bank_transfer", "BCA 123", ErrInvalidAmount},
		{"Missing method", decimal.NewFromInt(10), "", "BCA 123", ErrMissingMethod},
		{"Missing account", decimal.NewFromInt(10), "bank_transfer", "", ErrMissingAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RequestCashout(farmerCtx(1), tt.amount, tt.method, tt.account)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApprove(t *testing.T) {
	id := uuid.New()
	repo := new(mockRepository)
	repo.On("ApproveCashoutTx", mock.Anything, id, "ok", mock.AnythingOfType("string")).
		Return(&CashoutRequest{ID: id, UserID: 1, Amount: decimal.NewFromInt(150), Status: CashoutApproved}, nil)
	svc := NewService(repo, notify.Noop{})

	req, err := svc.Approve(adminCtx(99), id, "ok")
	require.NoError(t, err)
	assert.Equal(t, CashoutApproved, req.Status)
	// The payout reference is generated by the service.
	invoiceRef := repo.Calls[0].Arguments.String(3)
	assert.True(t, strings.HasPrefix(invoiceRef, utils.RefPrefixPayout+"-"))
}

func TestApprovePassesThroughInsufficientBalance(t *testing.T) {
	id := uuid.New()
	repo := new(mockRepository)
	repo.On("ApproveCashoutTx", mock.Anything, id, "", mock.AnythingOfType("string")).
		Return(nil, ErrInsufficientBalance)
	svc := NewService(repo, notify.Noop{})

	_, err := svc.Approve(adminCtx(99), id, "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestGetCashoutOwnership(t *testing.T) {
	id := uuid.New()
	repo := new(mockRepository)
	repo.On("GetCashout", mock.Anything, id).
		Return(&CashoutRequest{ID: id, UserID: 1}, nil)
	svc := NewService(repo, notify.Noop{})

	t.Run("Owner sees it", func(t *testing.T) {
		_, err := svc.Get(farmerCtx(1), id)
		assert.NoError(t, err)
	})

	t.Run("Admin sees it", func(t *testing.T) {
		_, err := svc.Get(adminCtx(99), id)
		assert.NoError(t, err)
	})

	t.Run("Stranger does not", func(t *testing.T) {
		_, err := svc.Get(farmerCtx(2), id)
		assert.ErrorIs(t, err, ErrNotRequester)
	})
}

func TestGetWalletAnonymous(t *testing.T) {
	svc := NewService(new(mockRepository), notify.Noop{})

	_, err := svc.GetWallet(context.Background())
	assert.ErrorIs(t, err, ErrNotRequester)
}

func TestMarkPaidFlow(t *testing.T) {
	id := uuid.New()
	repo := new(mockRepository)
	repo.On("MarkPaid", mock.Anything, id, "TX-9").
		Return(&CashoutRequest{ID: id, UserID: 1, Status: CashoutPaid}, nil)
	svc := NewService(repo, notify.Noop{})

	req, err := svc.MarkPaid(adminCtx(99), id, "TX-9")
	require.NoError(t, err)
	assert.Equal(t, CashoutPaid, req.Status)
}
