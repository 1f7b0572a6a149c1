package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/streetwear-storefront/internal/middleware"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(h.clients.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.Post("/auth/password/reset", h.RequestPasswordReset)
		r.Post("/auth/password/verify", h.VerifyResetCode)
		r.Post("/auth/password/confirm", h.ConfirmPasswordReset)

		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Post("/cart/items", h.AddCartItem)
		r.Patch("/cart/items", h.UpdateCartItem)
		r.Delete("/cart/items", h.RemoveCartItem)
		r.Put("/cart/voucher", h.ApplyVoucher)
		r.Delete("/cart/voucher", h.RemoveVoucher)
		r.Get("/vouchers", h.ListVouchers)

		r.Post("/newsletter", h.Subscribe(service.ListNewsletter))
		r.Post("/early-access", h.Subscribe(service.ListEarlyAccess))
		r.Post("/contact", h.Contact)

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireUser(h.service))

			r.Get("/auth/me", h.Me)
			r.Post("/checkout", h.Checkout)

			r.Get("/orders", h.GetOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Get("/orders/{orderID}/tracking", h.GetOrderTracking)

			r.Get("/account/settings", h.GetSettings)
			r.Put("/account/settings", h.UpdateSettings)
			r.Get("/account/chat", h.GetChat)
			r.Post("/account/chat", h.PostChat)
			r.Get("/account/export", h.ExportAccount)
			r.Delete("/account", h.DeleteAccount)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(custommiddleware.RequireAdmin(h.service))

			r.Get("/users", h.GetAdminUsers)
			r.Post("/users", h.RegisterAdmin)
			r.Patch("/users/{userID}", h.UpdateAdminProfile)
			r.Patch("/users/{userID}/orders/{orderID}", h.UpdateOrderStatus)
			r.Get("/activity", h.GetActivity)
			r.Get("/subscribers/{list}", h.GetSubscribers)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
