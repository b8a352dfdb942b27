package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"agromart-be/internal/bid"
	"agromart-be/internal/crop"
	"agromart-be/internal/db"
	"agromart-be/internal/logger"
	"agromart-be/internal/order"
	"agromart-be/internal/user"
	"agromart-be/internal/utils"
	"agromart-be/internal/wallet"

	"go.uber.org/zap"
)

type Handler struct {
	users   user.Service
	crops   crop.Service
	bids    bid.Service
	orders  order.Service
	wallets wallet.Service
}

func New(users user.Service, crops crop.Service, bids bid.Service, orders order.Service, wallets wallet.Service) *Handler {
	return &Handler{
		users:   users,
		crops:   crops,
		bids:    bids,
		orders:  orders,
		wallets: wallets,
	}
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeError maps domain sentinels onto HTTP statuses. Resource
// exhaustion and stale-state failures map to 409 so clients can
// distinguish a retryable conflict from a plain bad request.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, db.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable

	case errors.Is(err, crop.ErrCropNotFound),
		errors.Is(err, bid.ErrBidNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, wallet.ErrCashoutNotFound),
		errors.Is(err, user.ErrUserNotFound):
		status = http.StatusNotFound

	case errors.Is(err, crop.ErrInsufficientStock),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, bid.ErrInvalidState),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrDeliveryBackward),
		errors.Is(err, order.ErrDeliveryFrozen),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrVersionConflict),
		errors.Is(err, crop.ErrVersionConflict),
		errors.Is(err, wallet.ErrInvalidState),
		errors.Is(err, crop.ErrCropUnavailable):
		status = http.StatusConflict

	case errors.Is(err, crop.ErrNotOwner),
		errors.Is(err, bid.ErrNotOwner),
		errors.Is(err, bid.ErrNotBuyer),
		errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, wallet.ErrNotRequester):
		status = http.StatusForbidden

	case errors.Is(err, user.ErrInvalidCredentials):
		status = http.StatusUnauthorized

	case errors.Is(err, user.ErrEmailExists):
		status = http.StatusConflict

	case errors.Is(err, crop.ErrInvalidQuantity),
		errors.Is(err, crop.ErrInvalidPrice),
		errors.Is(err, crop.ErrInvalidMarketType),
		errors.Is(err, crop.ErrBelowWholesaleMin),
		errors.Is(err, bid.ErrInvalidAmount),
		errors.Is(err, bid.ErrInvalidQuantity),
		errors.Is(err, bid.ErrInvalidAction),
		errors.Is(err, bid.ErrOwnCrop),
		errors.Is(err, bid.ErrNegotiationLimit),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrMissingMethod),
		errors.Is(err, wallet.ErrMissingAccount),
		errors.Is(err, user.ErrInvalidRole):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", status)
		return
	}

	utils.WriteJSONError(w, err.Error(), status)
}
