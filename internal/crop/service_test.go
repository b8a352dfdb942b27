package crop

import (
	"context"
	"database/sql"
	"testing"

	"agromart-be/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, c *Crop) error {
	args := m.Called(ctx, c)
	c.ID = 10
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*Crop, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*Crop), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListByFarmer(ctx context.Context, farmerID int64) ([]*Crop, error) {
	args := m.Called(ctx, farmerID)
	if c := args.Get(0); c != nil {
		return c.([]*Crop), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListAvailable(ctx context.Context) ([]*Crop, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]*Crop), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) SetSoldOut(ctx context.Context, id int64, sold bool) error {
	return m.Called(ctx, id, sold).Error(0)
}

func (m *mockRepository) LockTx(ctx context.Context, tx *sql.Tx, id int64) (*Crop, error) {
	args := m.Called(ctx, tx, id)
	if c := args.Get(0); c != nil {
		return c.(*Crop), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ReserveTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error {
	return m.Called(ctx, tx, id, qty).Error(0)
}

func (m *mockRepository) ReleaseTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error {
	return m.Called(ctx, tx, id, qty).Error(0)
}

func (m *mockRepository) CommitStockTx(ctx context.Context, tx *sql.Tx, id int64, qty decimal.Decimal) error {
	return m.Called(ctx, tx, id, qty).Error(0)
}

func farmerCtx(id int64) context.Context {
	return utils.SetUserContext(context.Background(), id, "f@example.com", "FARMER")
}

func adminCtx(id int64) context.Context {
	return utils.SetUserContext(context.Background(), id, "a@example.com", "ADMIN")
}

func TestServiceCreate(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*crop.Crop")).Return(nil)
	svc := NewService(repo, decimal.NewFromInt(100))

	c, err := svc.Create(farmerCtx(1), &Crop{
		Name:       "Tomato",
		Unit:       "kg",
		Quantity:   decimal.NewFromInt(50),
		MinPrice:   decimal.NewFromInt(5),
		MarketType: MarketRetail,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.FarmerID)
	assert.Equal(t, int64(10), c.ID)
}

func TestServiceCreateValidation(t *testing.T) {
	svc := NewService(new(mockRepository), decimal.NewFromInt(100))

	tests := []struct {
		name    string
		crop    *Crop
		wantErr error
	}{
		{
			"Zero quantity",
			&Crop{Quantity: decimal.Zero, MinPrice: decimal.NewFromInt(5), MarketType: MarketRetail},
			ErrInvalidQuantity,
		},
		{
			"Negative price",
			&Crop{Quantity: decimal.NewFromInt(10), MinPrice: decimal.NewFromInt(-1), MarketType: MarketRetail},
			ErrInvalidPrice,
		},
		{
			"Unknown market type",
			&Crop{Quantity: decimal.NewFromInt(10), MinPrice: decimal.NewFromInt(5), MarketType: "AUCTION"},
			ErrInvalidMarketType,
		},
		{
			"B2B below wholesale minimum",
			&Crop{Quantity: decimal.NewFromInt(99), MinPrice: decimal.NewFromInt(5), MarketType: MarketB2B},
			ErrBelowWholesaleMin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(farmerCtx(1), tt.crop)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestServiceCreateB2BAtMinimum(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*crop.Crop")).Return(nil)
	svc := NewService(repo, decimal.NewFromInt(100))

	_, err := svc.Create(farmerCtx(1), &Crop{
		Name:       "Rice",
		Quantity:   decimal.NewFromInt(100),
		MinPrice:   decimal.NewFromInt(3),
		MarketType: MarketB2B,
	})
	assert.NoError(t, err)
}

func TestServiceCreateAdminOnBehalf(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*crop.Crop")).Return(nil)
	svc := NewService(repo, decimal.NewFromInt(100))

	c, err := svc.Create(adminCtx(99), &Crop{
		FarmerID:   7,
		Name:       "Corn",
		Quantity:   decimal.NewFromInt(10),
		MinPrice:   decimal.NewFromInt(2),
		MarketType: MarketRetail,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.FarmerID)
}

func TestServiceCreateAnonymous(t *testing.T) {
	svc := NewService(new(mockRepository), decimal.NewFromInt(100))

	_, err := svc.Create(context.Background(), &Crop{})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestServiceMarkSoldOut(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, int64(10)).
		Return(&Crop{ID: 10, FarmerID: 1}, nil)
	repo.On("SetSoldOut", mock.Anything, int64(10), true).Return(nil)
	svc := NewService(repo, decimal.NewFromInt(100))

	_, err := svc.MarkSoldOut(farmerCtx(1), 10)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestServiceMarkSoldOutNotOwner(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, int64(10)).
		Return(&Crop{ID: 10, FarmerID: 1}, nil)
	svc := NewService(repo, decimal.NewFromInt(100))

	_, err := svc.MarkSoldOut(farmerCtx(2), 10)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestServiceBackInStockAdmin(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, int64(10)).
		Return(&Crop{ID: 10, FarmerID: 1}, nil)
	repo.On("SetSoldOut", mock.Anything, int64(10), false).Return(nil)
	svc := NewService(repo, decimal.NewFromInt(100))

	_, err := svc.BackInStock(adminCtx(99), 10)
	assert.NoError(t, err)
}
