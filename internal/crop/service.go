package crop

import (
	"context"

	"agromart-be/internal/logger"
	"agromart-be/internal/user"
	"agromart-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, c *Crop) (*Crop, error)
	Get(ctx context.Context, id int64) (*Crop, error)
	ListMine(ctx context.Context) ([]*Crop, error)
	ListMarketplace(ctx context.Context) ([]*Crop, error)
	MarkSoldOut(ctx context.Context, id int64) (*Crop, error)
	BackInStock(ctx context.Context, id int64) (*Crop, error)
}

type service struct {
	repo            Repository
	wholesaleMinQty decimal.Decimal
}

func NewService(repo Repository, wholesaleMinQty decimal.Decimal) Service {
	return &service{repo: repo, wholesaleMinQty: wholesaleMinQty}
}

func (s *service) Create(ctx context.Context, c *Crop) (*Crop, error) {
	farmerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotOwner
	}

	// Admins may list on behalf of a farmer; farmers only for themselves.
	role := user.Role(utils.GetUserRoleFromContext(ctx))
	if role != user.RoleAdmin || c.FarmerID == 0 {
		c.FarmerID = farmerID
	}

	if !c.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if !c.MinPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}

	switch c.MarketType {
	case MarketRetail:
	case MarketB2B:
		if c.Quantity.LessThan(s.wholesaleMinQty) {
			return nil, ErrBelowWholesaleMin
		}
	default:
		return nil, ErrInvalidMarketType
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("crop listed",
		zap.Int64("crop_id", c.ID),
		zap.Int64("farmer_id", c.FarmerID),
		zap.String("market_type", string(c.MarketType)),
	)
	return c, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Crop, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListMine(ctx context.Context) ([]*Crop, error) {
	farmerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotOwner
	}
	return s.repo.ListByFarmer(ctx, farmerID)
}

func (s *service) ListMarketplace(ctx context.Context) ([]*Crop, error) {
	return s.repo.ListAvailable(ctx)
}

func (s *service) MarkSoldOut(ctx context.Context, id int64) (*Crop, error) {
	return s.toggleSoldOut(ctx, id, true)
}

func (s *service) BackInStock(ctx context.Context, id int64) (*Crop, error) {
	return s.toggleSoldOut(ctx, id, false)
}

func (s *service) toggleSoldOut(ctx context.Context, id int64, sold bool) (*Crop, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := requireOwnerOrAdmin(ctx, c.FarmerID); err != nil {
		return nil, err
	}

	if err := s.repo.SetSoldOut(ctx, id, sold); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("crop stock flag changed",
		zap.Int64("crop_id", id),
		zap.Bool("is_sold", sold),
	)
	return s.repo.GetByID(ctx, id)
}

func requireOwnerOrAdmin(ctx context.Context, ownerID int64) error {
	actorID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrNotOwner
	}
	if actorID == ownerID {
		return nil
	}
	if user.Role(utils.GetUserRoleFromContext(ctx)) == user.RoleAdmin {
		return nil
	}
	return ErrNotOwner
}
