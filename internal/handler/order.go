package handler

import (
	"net/http"
	"time"

	"agromart-be/internal/order"
	"agromart-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	CropID   int64           `json:"cropId"`
	Quantity decimal.Decimal `json:"quantity"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type setDeliveryStatusRequest struct {
	DeliveryStatus string `json:"deliveryStatus"`
}

type orderResponse struct {
	ID             string          `json:"id"`
	CropID         int64           `json:"cropId"`
	BidID          *string         `json:"bidId,omitempty"`
	BuyerID        int64           `json:"buyerId"`
	FarmerID       int64           `json:"farmerId"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	AdvanceAmount  decimal.Decimal `json:"advanceAmount"`
	DueAmount      decimal.Decimal `json:"dueAmount"`
	Status         string          `json:"status"`
	DeliveryStatus string          `json:"deliveryStatus"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID.String(),
		CropID:         o.CropID,
		BuyerID:        o.BuyerID,
		FarmerID:       o.FarmerID,
		Quantity:       o.Quantity,
		UnitPrice:      o.UnitPrice,
		TotalAmount:    o.TotalAmount,
		AdvanceAmount:  o.AdvanceAmount,
		DueAmount:      o.DueAmount,
		Status:         string(o.Status),
		DeliveryStatus: string(o.DeliveryStatus),
		CreatedAt:      o.CreatedAt,
	}
	if o.BidID.Valid {
		resp.BidID = utils.StrPtr(o.BidID.UUID.String())
	}
	return resp
}

func orderID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.CreateDirect(r.Context(), req.CropID, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req setStatusRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.SetStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) SetDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req setDeliveryStatusRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.SetDeliveryStatus(r.Context(), id, order.DeliveryStatus(req.DeliveryStatus))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	var status *order.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := order.Status(s)
		status = &st
	}

	orders, err := h.orders.ListMine(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

type invoiceResponse struct {
	Number        string          `json:"number"`
	OrderID       string          `json:"orderId"`
	CropID        int64           `json:"cropId"`
	BuyerID       int64           `json:"buyerId"`
	FarmerID      int64           `json:"farmerId"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	AdvanceAmount decimal.Decimal `json:"advanceAmount"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
	Status        string          `json:"status"`
	IssuedAt      time.Time       `json:"issuedAt"`
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	inv, err := h.orders.GenerateInvoice(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, invoiceResponse{
		Number:        inv.Number,
		OrderID:       inv.OrderID.String(),
		CropID:        inv.CropID,
		BuyerID:       inv.BuyerID,
		FarmerID:      inv.FarmerID,
		Quantity:      inv.Quantity,
		UnitPrice:     inv.UnitPrice,
		TotalAmount:   inv.TotalAmount,
		AdvanceAmount: inv.AdvanceAmount,
		DueAmount:     inv.DueAmount,
		Status:        string(inv.Status),
		IssuedAt:      inv.IssuedAt,
	})
}
