package wallet

import (
	"context"

	"agromart-be/internal/logger"
	"agromart-be/internal/notify"
	"agromart-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	GetWallet(ctx context.Context) (*Wallet, error)
	RequestCashout(ctx context.Context, amount decimal.Decimal, paymentMethod, accountDetails string) (*CashoutRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID, note string) (*CashoutRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, note string) (*CashoutRequest, error)
	MarkPaid(ctx context.Context, requestID uuid.UUID, transactionRef string) (*CashoutRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*CashoutRequest, error)
	ListMine(ctx context.Context) ([]*CashoutRequest, error)
	ListPending(ctx context.Context) ([]*CashoutRequest, error)
}

type service struct {
	repo       Repository
	dispatcher notify.Dispatcher
}

func NewService(repo Repository, dispatcher notify.Dispatcher) Service {
	return &service{repo: repo, dispatcher: dispatcher}
}

func (s *service) GetWallet(ctx context.Context) (*Wallet, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotRequester
	}
	return s.repo.GetWallet(ctx, userID)
}

func (s *service) RequestCashout(ctx context.Context, amount decimal.Decimal, paymentMethod, accountDetails string) (*CashoutRequest, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotRequester
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if paymentMethod == "" {
		return nil, ErrMissingMethod
	}
	if accountDetails == "" {
		return nil, ErrMissingAccount
	}

	// Advisory check at request time; the balance is re-verified under a
	// row lock at approval, which is the only debit point.
	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	req := &CashoutRequest{
		UserID:         userID,
		Amount:         amount,
		PaymentMethod:  paymentMethod,
		AccountDetails: accountDetails,
		Status:         CashoutPending,
	}
	if err := s.repo.CreateCashout(ctx, req); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventCashoutRequested, req, nil)
	return req, nil
}

func (s *service) Approve(ctx context.Context, requestID uuid.UUID, note string) (*CashoutRequest, error) {
	invoiceRef := utils.GenerateDocumentRef(utils.RefPrefixPayout)

	req, err := s.repo.ApproveCashoutTx(ctx, requestID, note, invoiceRef)
	if err != nil {
		return nil, err
	}

	adminID, _ := utils.GetUserIDFromContext(ctx)
	logger.FromCtx(ctx).Info("cashout approved",
		zap.String("request_id", req.ID.String()),
		zap.Int64("admin_id", adminID),
		zap.String("amount", req.Amount.String()),
	)
	s.emit(ctx, notify.EventCashoutDecided, req, []int64{req.UserID})
	return req, nil
}

func (s *service) Reject(ctx context.Context, requestID uuid.UUID, note string) (*CashoutRequest, error) {
	req, err := s.repo.RejectCashout(ctx, requestID, note)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.EventCashoutDecided, req, []int64{req.UserID})
	return req, nil
}

func (s *service) MarkPaid(ctx context.Context, requestID uuid.UUID, transactionRef string) (*CashoutRequest, error) {
	req, err := s.repo.MarkPaid(ctx, requestID, transactionRef)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.EventCashoutPaid, req, []int64{req.UserID})
	return req, nil
}

func (s *service) Get(ctx context.Context, requestID uuid.UUID) (*CashoutRequest, error) {
	req, err := s.repo.GetCashout(ctx, requestID)
	if err != nil {
		return nil, err
	}

	actorID, _ := utils.GetUserIDFromContext(ctx)
	if req.UserID != actorID && utils.GetUserRoleFromContext(ctx) != "ADMIN" {
		return nil, ErrNotRequester
	}
	return req, nil
}

func (s *service) ListMine(ctx context.Context) ([]*CashoutRequest, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotRequester
	}
	return s.repo.ListCashoutsByUser(ctx, userID)
}

func (s *service) ListPending(ctx context.Context) ([]*CashoutRequest, error) {
	return s.repo.ListPendingCashouts(ctx)
}

func (s *service) emit(ctx context.Context, t notify.EventType, req *CashoutRequest, recipients []int64) {
	actorID, _ := utils.GetUserIDFromContext(ctx)
	s.dispatcher.Dispatch(notify.Event{
		Type:       t,
		EntityID:   req.ID.String(),
		ActorID:    actorID,
		Recipients: recipients,
		Payload: map[string]any{
			"status": string(req.Status),
			"amount": req.Amount.String(),
		},
	})
}
