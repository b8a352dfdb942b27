package order

import (
	"context"

	"agromart-be/internal/bid"
	"agromart-be/internal/config"
	"agromart-be/internal/crop"
	"agromart-be/internal/logger"
	"agromart-be/internal/notify"
	"agromart-be/internal/user"
	"agromart-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// CreateFromBid implements bid.OrderFactory.
	CreateFromBid(ctx context.Context, b *bid.Bid, unitPrice decimal.Decimal) (*bid.OrderRef, error)

	CreateDirect(ctx context.Context, cropID int64, quantity decimal.Decimal) (*Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error)
	SetDeliveryStatus(ctx context.Context, orderID uuid.UUID, ds DeliveryStatus) (*Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GenerateInvoice(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	Get(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListMine(ctx context.Context, status *Status) ([]*Order, error)
}

type service struct {
	repo       Repository
	crops      crop.Repository
	dispatcher notify.Dispatcher
	cfg        *config.Config
}

func NewService(repo Repository, crops crop.Repository, dispatcher notify.Dispatcher, cfg *config.Config) Service {
	return &service{repo: repo, crops: crops, dispatcher: dispatcher, cfg: cfg}
}

// creditStatus is the transition that pays the farmer, per configuration.
func (s *service) creditStatus() Status {
	if s.cfg.CreditOn == config.CreditOnDelivered {
		return StatusDelivered
	}
	return StatusCompleted
}

// split derives the advance/due amounts so that total always equals
// advance + due exactly, whatever the rounding of the rate.
func (s *service) split(total decimal.Decimal) (status Status, advance, due decimal.Decimal) {
	if !s.cfg.RequireAdvance {
		return StatusPending, decimal.Zero, total
	}
	advance = total.Mul(s.cfg.AdvanceRate).Round(2)
	return StatusPendingAdvance, advance, total.Sub(advance)
}

func (s *service) CreateFromBid(ctx context.Context, b *bid.Bid, unitPrice decimal.Decimal) (*bid.OrderRef, error) {
	total := unitPrice.Mul(b.Quantity).Round(2)
	status, advance, due := s.split(total)

	o := &Order{
		CropID:        b.CropID,
		BidID:         uuid.NullUUID{UUID: b.ID, Valid: true},
		BuyerID:       b.BuyerID,
		Quantity:      b.Quantity,
		UnitPrice:     unitPrice,
		TotalAmount:   total,
		AdvanceAmount: advance,
		DueAmount:     due,
		Status:        status,
	}
	if err := s.repo.CreateFromBidTx(ctx, o); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventOrderCreated, o, []int64{o.BuyerID, o.FarmerID})
	return &bid.OrderRef{ID: o.ID, Status: string(o.Status)}, nil
}

func (s *service) CreateDirect(ctx context.Context, cropID int64, quantity decimal.Decimal) (*Order, error) {
	buyerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	c, err := s.crops.GetByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if c.FarmerID == buyerID {
		return nil, ErrUnauthorized
	}

	total := c.MinPrice.Mul(quantity).Round(2)
	status, advance, due := s.split(total)

	o := &Order{
		CropID:        cropID,
		BuyerID:       buyerID,
		Quantity:      quantity,
		UnitPrice:     c.MinPrice,
		TotalAmount:   total,
		AdvanceAmount: advance,
		DueAmount:     due,
		Status:        status,
	}
	if err := s.repo.CreateDirectTx(ctx, o); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventOrderCreated, o, []int64{o.BuyerID, o.FarmerID})
	return o, nil
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error) {
	if !knownStatus(newStatus) {
		return nil, ErrUnknownStatus
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	role := user.Role(utils.GetUserRoleFromContext(ctx))
	isAdmin := role == user.RoleAdmin
	if o.FarmerID != actorID && !isAdmin {
		return nil, ErrUnauthorized
	}

	if o.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}
	if !ValidNext(o.Status, newStatus, s.cfg.AllowSkipTransit) {
		if !isAdmin {
			return nil, ErrInvalidTransition
		}
		// Admins may force an off-graph edge; the override is logged.
		logger.FromCtx(ctx).Warn("admin status override",
			zap.String("order_id", orderID.String()),
			zap.Int64("admin_id", actorID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(newStatus)),
		)
	}

	return s.applyStatus(ctx, o, newStatus)
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	role := user.Role(utils.GetUserRoleFromContext(ctx))
	if o.FarmerID != actorID && o.BuyerID != actorID && role != user.RoleAdmin {
		return nil, ErrUnauthorized
	}

	if o.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	return s.applyStatus(ctx, o, StatusCancelled)
}

// applyStatus commits the transition with its side effects: inventory
// release/commit and the exactly-once farmer credit.
func (s *service) applyStatus(ctx context.Context, o *Order, newStatus Status) (*Order, error) {
	var credit *decimal.Decimal
	if newStatus == s.creditStatus() {
		fee := o.TotalAmount.Mul(s.cfg.PlatformFeeRate).Round(2)
		amount := o.TotalAmount.Sub(fee)
		credit = &amount
	}

	credited, err := s.repo.SetStatusTx(ctx, o, newStatus, credit)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	eventType := notify.EventOrderStatusChanged
	if newStatus == StatusCancelled {
		eventType = notify.EventOrderCancelled
	}
	s.emit(ctx, eventType, updated, []int64{updated.BuyerID, updated.FarmerID})

	if credited {
		s.emit(ctx, notify.EventWalletCredited, updated, []int64{updated.FarmerID})
	}
	return updated, nil
}

func (s *service) SetDeliveryStatus(ctx context.Context, orderID uuid.UUID, ds DeliveryStatus) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	if o.FarmerID != actorID && user.Role(utils.GetUserRoleFromContext(ctx)) != user.RoleAdmin {
		return nil, ErrUnauthorized
	}

	if o.Status == StatusCancelled {
		return nil, ErrDeliveryFrozen
	}
	if !ValidDeliveryNext(o.DeliveryStatus, ds) {
		return nil, ErrDeliveryBackward
	}

	if err := s.repo.SetDeliveryStatus(ctx, orderID, o.Version, ds); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.EventDeliveryStatusChanged, updated, []int64{updated.BuyerID})
	return updated, nil
}

func (s *service) GenerateInvoice(ctx context.Context, orderID uuid.UUID) (*Invoice, error) {
	o, err := s.authorizedGet(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.InvoiceNumber.Valid {
		// First call stamps the number; concurrent calls race harmlessly,
		// only one wins the IS NULL guard.
		if err := s.repo.SetInvoice(ctx, orderID, utils.GenerateDocumentRef(utils.RefPrefixInvoice)); err != nil {
			return nil, err
		}
		o, err = s.authorizedGet(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}

	return &Invoice{
		Number:        o.InvoiceNumber.String,
		OrderID:       o.ID,
		CropID:        o.CropID,
		BuyerID:       o.BuyerID,
		FarmerID:      o.FarmerID,
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice,
		TotalAmount:   o.TotalAmount,
		AdvanceAmount: o.AdvanceAmount,
		DueAmount:     o.DueAmount,
		Status:        o.Status,
		IssuedAt:      o.InvoicedAt.Time,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.authorizedGet(ctx, orderID)
}

func (s *service) ListMine(ctx context.Context, status *Status) ([]*Order, error) {
	actorID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if user.Role(utils.GetUserRoleFromContext(ctx)) == user.RoleFarmer {
		return s.repo.ListByFarmer(ctx, actorID, status)
	}
	return s.repo.ListByBuyer(ctx, actorID, status)
}

func (s *service) authorizedGet(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	if o.BuyerID == actorID || o.FarmerID == actorID {
		return o, nil
	}
	if user.Role(utils.GetUserRoleFromContext(ctx)) == user.RoleAdmin {
		return o, nil
	}
	return nil, ErrUnauthorized
}

func (s *service) emit(ctx context.Context, t notify.EventType, o *Order, recipients []int64) {
	actorID, _ := utils.GetUserIDFromContext(ctx)
	s.dispatcher.Dispatch(notify.Event{
		Type:       t,
		EntityID:   o.ID.String(),
		ActorID:    actorID,
		Recipients: recipients,
		Payload: map[string]any{
			"crop_id":         o.CropID,
			"status":          string(o.Status),
			"delivery_status": string(o.DeliveryStatus),
		},
	})
}
