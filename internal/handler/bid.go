package handler

import (
	"net/http"
	"time"

	"agromart-be/internal/bid"
	"agromart-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type placeBidRequest struct {
	CropID   int64           `json:"cropId"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity decimal.Decimal `json:"quantity"`
}

type counterOfferRequest struct {
	CounterPrice decimal.Decimal `json:"counterPrice"`
}

type buyerRespondRequest struct {
	Action string           `json:"action"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type bidResponse struct {
	ID           string           `json:"id"`
	CropID       int64            `json:"cropId"`
	BuyerID      int64            `json:"buyerId"`
	Amount       decimal.Decimal  `json:"amount"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Status       string           `json:"status"`
	CounterPrice *decimal.Decimal `json:"counterPrice,omitempty"`
	Rounds       int              `json:"rounds"`
	BidTime      time.Time        `json:"bidTime"`
	OrderID      *string          `json:"orderId,omitempty"`
}

func toBidResponse(b *bid.Bid, ref *bid.OrderRef) bidResponse {
	resp := bidResponse{
		ID:       b.ID.String(),
		CropID:   b.CropID,
		BuyerID:  b.BuyerID,
		Amount:   b.Amount,
		Quantity: b.Quantity,
		Status:   string(b.Status),
		Rounds:   b.Rounds,
		BidTime:  b.BidTime,
	}
	if b.CounterPrice.Valid {
		resp.CounterPrice = &b.CounterPrice.Decimal
	}
	if ref != nil {
		resp.OrderID = utils.StrPtr(ref.ID.String())
	}
	return resp
}

func toBidResponses(bids []*bid.Bid) []bidResponse {
	out := make([]bidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b, nil))
	}
	return out
}

func bidID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req placeBidRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.bids.Place(r.Context(), req.CropID, req.Amount, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toBidResponse(b, nil))
}

func (h *Handler) CounterOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := bidID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	var req counterOfferRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.bids.CounterOffer(r.Context(), id, req.CounterPrice)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponse(b, nil))
}

func (h *Handler) BuyerRespond(w http.ResponseWriter, r *http.Request) {
	id, ok := bidID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	var req buyerRespondRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b, ref, err := h.bids.BuyerRespond(r.Context(), id, bid.BuyerAction(req.Action), req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponse(b, ref))
}

func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	id, ok := bidID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	b, ref, err := h.bids.Accept(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponse(b, ref))
}

func (h *Handler) RejectBid(w http.ResponseWriter, r *http.Request) {
	id, ok := bidID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	b, err := h.bids.Reject(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponse(b, nil))
}

func (h *Handler) DeleteBid(w http.ResponseWriter, r *http.Request) {
	id, ok := bidID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	if err := h.bids.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBid(w http.ResponseWriter, r *http.Request) {
	id, ok := bidID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid bid id", http.StatusBadRequest)
		return
	}

	b, err := h.bids.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponse(b, nil))
}

func (h *Handler) ListMyBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.bids.ListMine(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponses(bids))
}

func (h *Handler) ListCropBids(w http.ResponseWriter, r *http.Request) {
	cropID, err := utils.ToInt64(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid crop id", http.StatusBadRequest)
		return
	}

	bids, err := h.bids.ListByCrop(r.Context(), cropID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toBidResponses(bids))
}
