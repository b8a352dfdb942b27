package handler

import (
	"net/http"
	"time"

	"agromart-be/internal/utils"
	"agromart-be/internal/wallet"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type walletResponse struct {
	UserID  int64           `json:"userId"`
	Balance decimal.Decimal `json:"balance"`
}

type requestCashoutRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"paymentMethod"`
	AccountDetails string          `json:"accountDetails"`
}

type cashoutDecisionRequest struct {
	Note string `json:"note,omitempty"`
}

type markPaidRequest struct {
	TransactionRef string `json:"transactionRef"`
}

type cashoutResponse struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"paymentMethod"`
	Status         string          `json:"status"`
	RequestedAt    time.Time       `json:"requestedAt"`
	ProcessedAt    *time.Time      `json:"processedAt,omitempty"`
	AdminNote      *string         `json:"adminNote,omitempty"`
	InvoiceRef     *string         `json:"invoiceRef,omitempty"`
	TransactionRef *string         `json:"transactionRef,omitempty"`
}

func toCashoutResponse(req *wallet.CashoutRequest) cashoutResponse {
	resp := cashoutResponse{
		ID:            req.ID.String(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        string(req.Status),
		RequestedAt:   req.RequestedAt,
	}
	if req.ProcessedAt.Valid {
		t := req.ProcessedAt.Time
		resp.ProcessedAt = &t
	}
	if req.AdminNote.Valid {
		resp.AdminNote = utils.StrPtr(req.AdminNote.String)
	}
	if req.InvoiceRef.Valid {
		resp.InvoiceRef = utils.StrPtr(req.InvoiceRef.String)
	}
	if req.TransactionRef.Valid {
		resp.TransactionRef = utils.StrPtr(req.TransactionRef.String)
	}
	return resp
}

func toCashoutResponses(reqs []*wallet.CashoutRequest) []cashoutResponse {
	out := make([]cashoutResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toCashoutResponse(req))
	}
	return out
}

func cashoutID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wal, err := h.wallets.GetWallet(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, walletResponse{UserID: wal.UserID, Balance: wal.Balance})
}

func (h *Handler) RequestCashout(w http.ResponseWriter, r *http.Request) {
	var req requestCashoutRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cr, err := h.wallets.RequestCashout(r.Context(), req.Amount, req.PaymentMethod, req.AccountDetails)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toCashoutResponse(cr))
}

func (h *Handler) ApproveCashout(w http.ResponseWriter, r *http.Request) {
	id, ok := cashoutID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid cashout id", http.StatusBadRequest)
		return
	}

	var req cashoutDecisionRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cr, err := h.wallets.Approve(r.Context(), id, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCashoutResponse(cr))
}

func (h *Handler) RejectCashout(w http.ResponseWriter, r *http.Request) {
	id, ok := cashoutID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid cashout id", http.StatusBadRequest)
		return
	}

	var req cashoutDecisionRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cr, err := h.wallets.Reject(r.Context(), id, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCashoutResponse(cr))
}

func (h *Handler) MarkCashoutPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := cashoutID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid cashout id", http.StatusBadRequest)
		return
	}

	var req markPaidRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TransactionRef == "" {
		utils.WriteJSONError(w, "transactionRef is required", http.StatusBadRequest)
		return
	}

	cr, err := h.wallets.MarkPaid(r.Context(), id, req.TransactionRef)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCashoutResponse(cr))
}

func (h *Handler) GetCashout(w http.ResponseWriter, r *http.Request) {
	id, ok := cashoutID(r)
	if !ok {
		utils.WriteJSONError(w, "invalid cashout id", http.StatusBadRequest)
		return
	}

	cr, err := h.wallets.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCashoutResponse(cr))
}

func (h *Handler) ListMyCashouts(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.wallets.ListMine(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCashoutResponses(reqs))
}

func (h *Handler) ListPendingCashouts(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.wallets.ListPending(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCashoutResponses(reqs))
}
