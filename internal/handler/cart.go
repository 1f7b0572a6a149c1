package handler

import (
	"errors"
	"net/http"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/money"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
	"github.com/mmeshcher/streetwear-storefront/internal/validation"
)

type addItemRequest struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     priceInput `json:"price"`
	Image     string     `json:"image"`
	Quantity  int        `json:"quantity"`
	Color     string     `json:"color"`
	ColorName string     `json:"colorName"`
	Size      string     `json:"size"`
}

type lineRequest struct {
	ID       string `json:"id"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type voucherRequest struct {
	Code string `json:"code"`
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, status int) {
	sum, err := h.service.Summary(r.Context(), clientID(r))
	if err != nil {
		h.writeServiceError(w, "cart summary", err)
		return
	}
	writeJSON(w, status, cart(sum))
}

// GetCart возвращает корзину клиента с итогами.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, http.StatusOK)
}

// AddCartItem добавляет товар в корзину. Отсутствующее количество считается равным 1.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, money.ErrInvalidAmount) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if req.ID == "" || !req.Price.set {
		writeError(w, http.StatusBadRequest, "id and price are required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if !validation.IsValidQuantity(req.Quantity) {
		h.writeServiceError(w, "add cart item", service.ErrInvalidQuantity)
		return
	}

	_, err := h.service.AddItem(r.Context(), clientID(r), model.CartItem{
		ID:        req.ID,
		Name:      req.Name,
		Price:     req.Price.Amount,
		Image:     req.Image,
		Quantity:  req.Quantity,
		Color:     req.Color,
		ColorName: req.ColorName,
		Size:      req.Size,
	})
	if err != nil {
		h.writeServiceError(w, "add cart item", err)
		return
	}

	h.writeCart(w, r, http.StatusCreated)
}

// UpdateCartItem задаёт количество для строки корзины.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if !validation.IsValidQuantity(req.Quantity) {
		h.writeServiceError(w, "update cart item", service.ErrInvalidQuantity)
		return
	}

	if _, err := h.service.UpdateQuantity(r.Context(), clientID(r), req.ID, req.Color, req.Size, req.Quantity); err != nil {
		h.writeServiceError(w, "update cart item", err)
		return
	}

	h.writeCart(w, r, http.StatusOK)
}

// RemoveCartItem удаляет строку корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if _, err := h.service.RemoveItem(r.Context(), clientID(r), req.ID, req.Color, req.Size); err != nil {
		h.writeServiceError(w, "remove cart item", err)
		return
	}

	h.writeCart(w, r, http.StatusOK)
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), clientID(r)); err != nil {
		h.writeServiceError(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVouchers возвращает каталог промокодов.
func (h *Handler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, vouchers(h.service.Vouchers()))
}

// ApplyVoucher применяет промокод к корзине.
func (h *Handler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if _, err := h.service.ApplyVoucher(r.Context(), clientID(r), req.Code); err != nil {
		h.writeServiceError(w, "apply voucher", err)
		return
	}

	h.writeCart(w, r, http.StatusOK)
}

// RemoveVoucher снимает промокод.
func (h *Handler) RemoveVoucher(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearVoucher(r.Context(), clientID(r)); err != nil {
		h.writeServiceError(w, "remove voucher", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
