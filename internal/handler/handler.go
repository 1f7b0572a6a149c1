// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/middleware"
	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/money"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
	"github.com/mmeshcher/streetwear-storefront/internal/voucher"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	middleware.SessionResolver

	SignUp(ctx context.Context, email, password, name string) (model.User, error)
	SignIn(ctx context.Context, clientID, email, password string) (model.Session, error)
	SignOut(ctx context.Context, clientID string) error
	ResetPassword(ctx context.Context, email string) (bool, error)
	CheckResetCode(ctx context.Context, email, code string) (bool, error)
	UpdatePassword(ctx context.Context, email, code, newPassword string) (bool, error)

	Summary(ctx context.Context, clientID string) (service.CartSummary, error)
	AddItem(ctx context.Context, clientID string, item model.CartItem) ([]model.CartItem, error)
	UpdateQuantity(ctx context.Context, clientID, id, color, size string, qty int) ([]model.CartItem, error)
	RemoveItem(ctx context.Context, clientID, id, color, size string) ([]model.CartItem, error)
	ClearCart(ctx context.Context, clientID string) error
	Vouchers() []voucher.Voucher
	ApplyVoucher(ctx context.Context, clientID, code string) (model.AppliedVoucher, error)
	ClearVoucher(ctx context.Context, clientID string) error

	Checkout(ctx context.Context, clientID string) (model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
	TrackingPoints(o *model.Order) []model.TrackingPoint

	Settings(ctx context.Context, userID string) (model.Settings, error)
	UpdateSettings(ctx context.Context, userID string, st model.Settings) error
	AppendChat(ctx context.Context, userID, from, text string) (model.ChatMessage, error)
	ChatHistory(ctx context.Context, userID string) ([]model.ChatMessage, error)
	ExportAccount(ctx context.Context, clientID string) (model.AccountExport, error)
	DeleteAccount(ctx context.Context, clientID string) error

	Subscribe(ctx context.Context, list, email string) (bool, error)
	SubmitContact(ctx context.Context, name, email, message string) error

	GetAdminUsers(ctx context.Context) ([]model.User, error)
	RegisterAdmin(ctx context.Context, email, password, name, role string) (model.User, error)
	UpdateAdminProfile(ctx context.Context, userID string, upd model.AdminProfileUpdate) (bool, error)
	UpdateOrderStatus(ctx context.Context, userID, orderID string, to model.OrderStatus) (model.Order, error)
	RecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error)
	Subscribers(ctx context.Context, list string) ([]model.Subscription, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service Service
	logger  *zap.Logger
	clients *middleware.ClientMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, clients *middleware.ClientMiddleware) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: s,
		logger:  logger,
		clients: clients,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeServiceError переводит ошибку сервиса в HTTP-статус; неизвестные ошибки логируются как 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUserNotRegistered),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrNotSignedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrVoucherInvalid),
		errors.Is(err, service.ErrResetCodeInvalidOrExpired),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrUnknownList),
		errors.Is(err, money.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error(op+" error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeError(w, status, err.Error())
}

func clientID(r *http.Request) string {
	id, _ := middleware.GetClientIDFromContext(r.Context())
	return id
}

func session(r *http.Request) model.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}
