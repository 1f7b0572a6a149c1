package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
)

const defaultActivityLimit = 50

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// GetAdminUsers возвращает реестр пользователей.
func (h *Handler) GetAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAdminUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, "get admin users", err)
		return
	}

	resp := make([]userView, 0, len(users))
	for _, u := range users {
		resp = append(resp, userRecord(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegisterAdmin создаёт учётную запись администратора.
func (h *Handler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if msg := validateRegistration(req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	u, err := h.service.RegisterAdmin(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		h.writeServiceError(w, "register admin", err)
		return
	}

	writeJSON(w, http.StatusCreated, userRecord(u))
}

// UpdateAdminProfile частично обновляет профиль пользователя.
func (h *Handler) UpdateAdminProfile(w http.ResponseWriter, r *http.Request) {
	var upd model.AdminProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	ok, err := h.service.UpdateAdminProfile(r.Context(), chi.URLParam(r, "userID"), upd)
	if err != nil {
		h.writeServiceError(w, "update admin profile", err)
		return
	}
	if !ok {
		h.writeServiceError(w, "update admin profile", service.ErrNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateOrderStatus переводит заказ пользователя в новый статус.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	if !req.Status.Valid() {
		h.writeServiceError(w, "update order status", service.ErrInvalidStatusTransition)
		return
	}

	o, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		h.writeServiceError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, order(o))
}

// GetActivity возвращает журнал действий администраторов, новые первыми.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.service.RecentActivity(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, "get activity", err)
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetSubscribers возвращает адреса из списка рассылки или раннего доступа.
func (h *Handler) GetSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.Subscribers(r.Context(), chi.URLParam(r, "list"))
	if errors.Is(err, service.ErrUnknownList) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.writeServiceError(w, "get subscribers", err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
