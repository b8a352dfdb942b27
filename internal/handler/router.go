package handler

import (
	"net/http"

	"agromart-be/internal/logger"
	custommiddleware "agromart-be/internal/middleware"
	"agromart-be/internal/user"
	"agromart-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(custommiddleware.AuthMiddleware)
	r.Use(custommiddleware.RateLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Route("/crops", func(r chi.Router) {
			r.Get("/", h.ListMarketplace)
			r.Get("/{id}", h.GetCrop)

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireAuth)
				r.Use(custommiddleware.RequireRole(user.RoleFarmer, user.RoleAdmin))

				r.Post("/", h.CreateCrop)
				r.Get("/mine", h.ListMyCrops)
				r.Post("/{id}/sold-out", h.MarkSoldOut)
				r.Post("/{id}/back-in-stock", h.BackInStock)
				r.Get("/{id}/bids", h.ListCropBids)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireAuth)

			r.Route("/bids", func(r chi.Router) {
				r.With(custommiddleware.RequireRole(user.RoleBuyer)).Post("/", h.PlaceBid)
				r.Get("/mine", h.ListMyBids)
				r.Get("/{id}", h.GetBid)
				r.With(custommiddleware.RequireRole(user.RoleBuyer)).Post("/{id}/respond", h.BuyerRespond)
				r.With(custommiddleware.RequireRole(user.RoleBuyer)).Delete("/{id}", h.DeleteBid)
				r.With(custommiddleware.RequireRole(user.RoleFarmer, user.RoleAdmin)).Group(func(r chi.Router) {
					r.Post("/{id}/counter", h.CounterOffer)
					r.Post("/{id}/accept", h.AcceptBid)
					r.Post("/{id}/reject", h.RejectBid)
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(custommiddleware.RequireRole(user.RoleBuyer)).Post("/", h.CreateOrder)
				r.Get("/", h.ListMyOrders)
				r.Get("/{id}", h.GetOrder)
				r.Get("/{id}/invoice", h.GetInvoice)
				r.Post("/{id}/cancel", h.CancelOrder)
				r.With(custommiddleware.RequireRole(user.RoleFarmer, user.RoleAdmin)).Group(func(r chi.Router) {
					r.Post("/{id}/status", h.SetOrderStatus)
					r.Post("/{id}/delivery-status", h.SetDeliveryStatus)
				})
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", h.GetWallet)
				r.Post("/cashouts", h.RequestCashout)
				r.Get("/cashouts", h.ListMyCashouts)
				r.Get("/cashouts/{id}", h.GetCashout)
				r.With(custommiddleware.RequireRole(user.RoleAdmin)).Group(func(r chi.Router) {
					r.Get("/cashouts/pending", h.ListPendingCashouts)
					r.Post("/cashouts/{id}/approve", h.ApproveCashout)
					r.Post("/cashouts/{id}/reject", h.RejectCashout)
					r.Post("/cashouts/{id}/paid", h.MarkCashoutPaid)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
