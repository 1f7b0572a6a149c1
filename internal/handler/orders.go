package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
	"github.com/mmeshcher/streetwear-storefront/internal/validation"
)

// Checkout оформляет заказ из корзины клиента.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Checkout(r.Context(), clientID(r))
	if err != nil {
		h.writeServiceError(w, "checkout", err)
		return
	}

	writeJSON(w, http.StatusCreated, order(o))
}

// GetOrders возвращает заказы пользователя, новые первыми.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), session(r).ID)
	if err != nil {
		h.writeServiceError(w, "get orders", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderView, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, order(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ вместе с точками маршрута.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookupOrder(w, r)
	if !ok {
		return
	}

	view := order(*o)
	view.TrackingPoints = h.service.TrackingPoints(o)
	writeJSON(w, http.StatusOK, view)
}

// GetOrderTracking возвращает только точки маршрута заказа.
func (h *Handler) GetOrderTracking(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookupOrder(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.service.TrackingPoints(o))
}

func (h *Handler) lookupOrder(w http.ResponseWriter, r *http.Request) (*model.Order, bool) {
	id := chi.URLParam(r, "orderID")
	if !validation.IsValidOrderID(id) {
		h.writeServiceError(w, "get order", service.ErrNotFound)
		return nil, false
	}

	o, err := h.service.GetOrder(r.Context(), session(r).ID, id)
	if err != nil {
		h.writeServiceError(w, "get order", err)
		return nil, false
	}
	return o, true
}
