// Package model содержит доменные сущности витрины.
package model

import (
	"time"

	"github.com/mmeshcher/streetwear-storefront/internal/money"
)

// User представляет запись реестра пользователей.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	IsAdmin      bool      `json:"isAdmin"`
	AdminRole    string    `json:"adminRole,omitempty"`
	Position     string    `json:"position,omitempty"`
	Department   string    `json:"department,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session хранит снимок пользователя без хеша пароля, сохраняемый для клиента после входа.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"isAdmin"`
	AdminRole    string    `json:"adminRole,omitempty"`
	Position     string    `json:"position,omitempty"`
	Department   string    `json:"department,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	SignedInAt   time.Time `json:"signedInAt"`
}

// NewSession строит снимок сессии из записи пользователя.
func NewSession(u User, at time.Time) Session {
	return Session{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		IsAdmin:      u.IsAdmin,
		AdminRole:    u.AdminRole,
		Position:     u.Position,
		Department:   u.Department,
		ProfileImage: u.ProfileImage,
		Bio:          u.Bio,
		SignedInAt:   at,
	}
}

// AdminProfileUpdate содержит изменяемые поля профиля администратора; nil означает «не менять».
type AdminProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	AdminRole    *string `json:"adminRole,omitempty"`
	Position     *string `json:"position,omitempty"`
	Department   *string `json:"department,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
	Bio          *string `json:"bio,omitempty"`
}

// ResetRequest описывает активный запрос на сброс пароля.
// Attempts считает неверные коды, введённые для этого запроса.
type ResetRequest struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts,omitempty"`
}

// MaxLineQuantity ограничивает количество товара в одной строке корзины.
const MaxLineQuantity = 999

// CartItem описывает строку корзины. Строка однозначно задаётся тройкой (ID, Color, Size).
type CartItem struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Price     money.Amount `json:"price"`
	Image     string       `json:"image,omitempty"`
	Quantity  int          `json:"quantity"`
	Color     string       `json:"color,omitempty"`
	ColorName string       `json:"colorName,omitempty"`
	Size      string       `json:"size,omitempty"`
}

// SameLine сообщает, относится ли строка к тому же товару и варианту.
func (c CartItem) SameLine(id, color, size string) bool {
	return c.ID == id && c.Color == color && c.Size == size
}

// AppliedVoucher описывает промокод, применённый к корзине клиента.
type AppliedVoucher struct {
	Code        string       `json:"code"`
	Discount    money.Amount `json:"discount"`
	Description string       `json:"description"`
}

// OrderStatus описывает статус доставки заказа.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid сообщает, входит ли статус в допустимое перечисление.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition проверяет переход processing → shipped → delivered и отмену из незавершённых статусов.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered || to == OrderStatusCancelled
	}
	return false
}

// TrackingPoint описывает точку маршрута доставки. Date == nil, если точка ещё не пройдена.
type TrackingPoint struct {
	Lat   float64    `json:"lat"`
	Lng   float64    `json:"lng"`
	Label string     `json:"label"`
	Date  *time.Time `json:"date"`
}

// Order описывает оформленный заказ пользователя.
type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Date           time.Time       `json:"date"`
	Subtotal       money.Amount    `json:"subtotal"`
	Discount       money.Amount    `json:"discount"`
	Total          money.Amount    `json:"total"`
	VoucherCode    string          `json:"voucherCode,omitempty"`
	Status         OrderStatus     `json:"status"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
	Items          []CartItem      `json:"items"`
	TrackingPoints []TrackingPoint `json:"trackingPoints,omitempty"`
}

// OrderRef ссылается на заказ в индексе незавершённых заказов.
type OrderRef struct {
	UserID         string `json:"userId"`
	OrderID        string `json:"orderId"`
	TrackingNumber string `json:"trackingNumber"`
}

// Settings содержит пользовательские настройки.
type Settings struct {
	Newsletter    bool `json:"newsletter"`
	OrderUpdates  bool `json:"orderUpdates"`
	Notifications bool `json:"notifications"`
}

// DefaultSettings возвращает настройки нового пользователя.
func DefaultSettings() Settings {
	return Settings{OrderUpdates: true, Notifications: true}
}

// ChatMessage описывает сообщение из истории чата пользователя.
type ChatMessage struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Subscription описывает подписку на рассылку или ранний доступ.
type Subscription struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// ContactMessage описывает обращение из формы обратной связи.
type ContactMessage struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ActivityEntry описывает запись журнала действий администраторов.
type ActivityEntry struct {
	ActorID string    `json:"actorId"`
	Action  string    `json:"action"`
	Target  string    `json:"target,omitempty"`
	At      time.Time `json:"at"`
}

// AccountExport содержит выгрузку данных пользователя.
type AccountExport struct {
	User       Session       `json:"user"`
	Settings   Settings      `json:"settings"`
	Orders     []Order       `json:"orders"`
	Chat       []ChatMessage `json:"chat"`
	ExportedAt time.Time     `json:"exportedAt"`
}
