package bid

import (
	"context"

	"agromart-be/internal/crop"
	"agromart-be/internal/logger"
	"agromart-be/internal/notify"
	"agromart-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderRef is the handle an acceptance returns for the order it spawned.
// Declared here so this package never imports the order engine.
type OrderRef struct {
	ID     uuid.UUID
	Status string
}

// OrderFactory materializes an order from an accepted bid. The factory
// owns the transaction: it must reserve crop stock, insert the order and
// flip the bid to ACCEPTED atomically (via Repository.AcceptTx).
type OrderFactory interface {
	CreateFromBid(ctx context.Context, b *Bid, unitPrice decimal.Decimal) (*OrderRef, error)
}

type Service interface {
	Place(ctx context.Context, cropID int64, amount, quantity decimal.Decimal) (*Bid, error)
	CounterOffer(ctx context.Context, bidID uuid.UUID, counterPrice decimal.Decimal) (*Bid, error)
	BuyerRespond(ctx context.Context, bidID uuid.UUID, action BuyerAction, amount *decimal.Decimal) (*Bid, *OrderRef, error)
	Accept(ctx context.Context, bidID uuid.UUID) (*Bid, *OrderRef, error)
	Reject(ctx context.Context, bidID uuid.UUID) (*Bid, error)
	Delete(ctx context.Context, bidID uuid.UUID) error
	Get(ctx context.Context, bidID uuid.UUID) (*Bid, error)
	ListByCrop(ctx context.Context, cropID int64) ([]*Bid, error)
	ListMine(ctx context.Context) ([]*Bid, error)
}

type service struct {
	repo       Repository
	crops      crop.Repository
	orders     OrderFactory
	dispatcher notify.Dispatcher
	maxRounds  int
}

func NewService(repo Repository, crops crop.Repository, orders OrderFactory, dispatcher notify.Dispatcher, maxRounds int) Service {
	return &service{
		repo:       repo,
		crops:      crops,
		orders:     orders,
		dispatcher: dispatcher,
		maxRounds:  maxRounds,
	}
}

func (s *service) Place(ctx context.Context, cropID int64, amount, quantity decimal.Decimal) (*Bid, error) {
	buyerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotBuyer
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	c, err := s.crops.GetByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID == buyerID {
		return nil, ErrOwnCrop
	}
	if c.IsSold {
		return nil, crop.ErrCropUnavailable
	}
	// Advisory pre-check; the authoritative check runs under the crop row
	// lock at acceptance time.
	if c.Available().LessThan(quantity) {
		return nil, crop.ErrInsufficientStock
	}

	b := &Bid{
		CropID:   cropID,
		BuyerID:  buyerID,
		Amount:   amount,
		Quantity: quantity,
		Status:   StatusPending,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventBidPlaced, b, []int64{c.FarmerID})
	return b, nil
}

func (s *service) CounterOffer(ctx context.Context, bidID uuid.UUID, counterPrice decimal.Decimal) (*Bid, error) {
	if !counterPrice.IsPositive() {
		return nil, ErrInvalidAmount
	}

	b, c, err := s.loadWithCrop(ctx, bidID)
	if err != nil {
		return nil, err
	}

	farmerID, _ := utils.GetUserIDFromContext(ctx)
	if c.FarmerID != farmerID {
		return nil, ErrNotOwner
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidState
	}
	if b.Rounds >= s.maxRounds {
		return nil, ErrNegotiationLimit
	}

	if err := s.repo.Counter(ctx, b.ID, b.Version, counterPrice); err != nil {
		return nil, err
	}

	b, err = s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.EventBidCountered, b, []int64{b.BuyerID})
	return b, nil
}

func (s *service) BuyerRespond(ctx context.Context, bidID uuid.UUID, action BuyerAction, amount *decimal.Decimal) (*Bid, *OrderRef, error) {
	b, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}

	buyerID, _ := utils.GetUserIDFromContext(ctx)
	if b.BuyerID != buyerID {
		return nil, nil, ErrNotBuyer
	}
	if b.Status != StatusCountered {
		return nil, nil, ErrInvalidState
	}

	switch action {
	case ActionAccept:
		return s.settle(ctx, b)

	case ActionReject:
		if err := s.repo.SetRejected(ctx, b.ID, b.Version); err != nil {
			return nil, nil, err
		}
		b, err = s.repo.GetByID(ctx, bidID)
		if err != nil {
			return nil, nil, err
		}
		s.emit(ctx, notify.EventBidRejected, b, nil)
		return b, nil, nil

	case ActionCounter:
		if amount == nil || !amount.IsPositive() {
			return nil, nil, ErrInvalidAmount
		}
		if err := s.repo.Recounter(ctx, b.ID, b.Version, *amount); err != nil {
			return nil, nil, err
		}
		b, err = s.repo.GetByID(ctx, bidID)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil

	default:
		return nil, nil, ErrInvalidAction
	}
}

func (s *service) Accept(ctx context.Context, bidID uuid.UUID) (*Bid, *OrderRef, error) {
	b, c, err := s.loadWithCrop(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}

	farmerID, _ := utils.GetUserIDFromContext(ctx)
	if c.FarmerID != farmerID {
		return nil, nil, ErrNotOwner
	}
	if b.Status != StatusPending {
		return nil, nil, ErrInvalidState
	}

	return s.settle(ctx, b)
}

func (s *service) Reject(ctx context.Context, bidID uuid.UUID) (*Bid, error) {
	b, c, err := s.loadWithCrop(ctx, bidID)
	if err != nil {
		return nil, err
	}

	farmerID, _ := utils.GetUserIDFromContext(ctx)
	if c.FarmerID != farmerID {
		return nil, ErrNotOwner
	}
	if b.Status != StatusPending {
		return nil, ErrInvalidState
	}

	if err := s.repo.SetRejected(ctx, b.ID, b.Version); err != nil {
		return nil, err
	}
	b, err = s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.EventBidRejected, b, []int64{b.BuyerID})
	return b, nil
}

func (s *service) Delete(ctx context.Context, bidID uuid.UUID) error {
	buyerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrNotBuyer
	}

	b, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return err
	}
	if b.BuyerID != buyerID {
		return ErrNotBuyer
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}

	return s.repo.Delete(ctx, bidID, buyerID)
}

// Get limits bid visibility to its negotiating parties: the buyer who
// placed it, the farmer who owns the crop, or an admin.
func (s *service) Get(ctx context.Context, bidID uuid.UUID) (*Bid, error) {
	b, c, err := s.loadWithCrop(ctx, bidID)
	if err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	if b.BuyerID != actorID && c.FarmerID != actorID && utils.GetUserRoleFromContext(ctx) != "ADMIN" {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *service) ListByCrop(ctx context.Context, cropID int64) ([]*Bid, error) {
	c, err := s.crops.GetByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	actorID, _ := utils.GetUserIDFromContext(ctx)
	if c.FarmerID != actorID && utils.GetUserRoleFromContext(ctx) != "ADMIN" {
		return nil, ErrNotOwner
	}
	return s.repo.ListByCrop(ctx, cropID)
}

func (s *service) ListMine(ctx context.Context) ([]*Bid, error) {
	buyerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotBuyer
	}
	return s.repo.ListByBuyer(ctx, buyerID)
}

// settle hands the bid to the order factory, which reserves stock,
// creates the order and flips this bid to ACCEPTED in one transaction.
// A racing acceptance that exhausts stock surfaces ErrInsufficientStock
// from the factory; the bid stays as it was for the caller to retry or
// reject.
func (s *service) settle(ctx context.Context, b *Bid) (*Bid, *OrderRef, error) {
	price := b.EffectivePrice()

	ref, err := s.orders.CreateFromBid(ctx, b, price)
	if err != nil {
		return nil, nil, err
	}

	accepted, err := s.repo.GetByID(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}

	logger.FromCtx(ctx).Info("bid accepted",
		zap.String("bid_id", b.ID.String()),
		zap.String("order_id", ref.ID.String()),
		zap.String("unit_price", price.String()),
	)
	s.emit(ctx, notify.EventBidAccepted, accepted, []int64{b.BuyerID})
	return accepted, ref, nil
}

func (s *service) loadWithCrop(ctx context.Context, bidID uuid.UUID) (*Bid, *crop.Crop, error) {
	b, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.crops.GetByID(ctx, b.CropID)
	if err != nil {
		return nil, nil, err
	}
	return b, c, nil
}

func (s *service) emit(ctx context.Context, t notify.EventType, b *Bid, recipients []int64) {
	actorID, _ := utils.GetUserIDFromContext(ctx)
	s.dispatcher.Dispatch(notify.Event{
		Type:       t,
		EntityID:   b.ID.String(),
		ActorID:    actorID,
		Recipients: recipients,
		Payload: map[string]any{
			"crop_id": b.CropID,
			"status":  string(b.Status),
		},
	})
}
