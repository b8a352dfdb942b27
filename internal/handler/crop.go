package handler

import (
	"net/http"

	"agromart-be/internal/crop"
	"agromart-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createCropRequest struct {
	FarmerID   int64           `json:"farmerId,omitempty"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	MarketType string          `json:"marketType"`
}

type cropResponse struct {
	ID         int64           `json:"id"`
	FarmerID   int64           `json:"farmerId"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	Available  decimal.Decimal `json:"available"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	MarketType string          `json:"marketType"`
	IsSold     bool            `json:"isSold"`
}

func toCropResponse(c *crop.Crop) cropResponse {
	return cropResponse{
		ID:         c.ID,
		FarmerID:   c.FarmerID,
		Name:       c.Name,
		Unit:       c.Unit,
		Quantity:   c.Quantity,
		Available:  c.Available(),
		MinPrice:   c.MinPrice,
		MarketType: string(c.MarketType),
		IsSold:     c.IsSold,
	}
}

func toCropResponses(crops []*crop.Crop) []cropResponse {
	out := make([]cropResponse, 0, len(crops))
	for _, c := range crops {
		out = append(out, toCropResponse(c))
	}
	return out
}

func (h *Handler) CreateCrop(w http.ResponseWriter, r *http.Request) {
	var req createCropRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.crops.Create(r.Context(), &crop.Crop{
		FarmerID:   req.FarmerID,
		Name:       req.Name,
		Unit:       req.Unit,
		Quantity:   req.Quantity,
		MinPrice:   req.MinPrice,
		MarketType: crop.MarketType(req.MarketType),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, toCropResponse(c))
}

func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ToInt64(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid crop id", http.StatusBadRequest)
		return
	}

	c, err := h.crops.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCropResponse(c))
}

func (h *Handler) ListMarketplace(w http.ResponseWriter, r *http.Request) {
	crops, err := h.crops.ListMarketplace(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCropResponses(crops))
}

func (h *Handler) ListMyCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := h.crops.ListMine(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCropResponses(crops))
}

func (h *Handler) MarkSoldOut(w http.ResponseWriter, r *http.Request) {
	h.toggleSoldOut(w, r, true)
}

func (h *Handler) BackInStock(w http.ResponseWriter, r *http.Request) {
	h.toggleSoldOut(w, r, false)
}

func (h *Handler) toggleSoldOut(w http.ResponseWriter, r *http.Request, sold bool) {
	id, err := utils.ToInt64(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid crop id", http.StatusBadRequest)
		return
	}

	var c *crop.Crop
	if sold {
		c, err = h.crops.MarkSoldOut(r.Context(), id)
	} else {
		c, err = h.crops.BackInStock(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toCropResponse(c))
}
