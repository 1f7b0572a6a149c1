// Package events публикует доменные события витрины в RabbitMQ.
package events

import "time"

// Ключи маршрутизации; каждому соответствует одноимённая очередь.
const (
	RoutingOrderPlaced        = "order.placed"
	RoutingOrderStatusChanged = "order.status_changed"
)

// OrderPlaced публикуется после оформления заказа.
type OrderPlaced struct {
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	TrackingNumber string    `json:"tracking_number"`
	ItemCount      int       `json:"item_count"`
	SubtotalCents  int64     `json:"subtotal_cents"`
	DiscountCents  int64     `json:"discount_cents"`
	TotalCents     int64     `json:"total_cents"`
	VoucherCode    string    `json:"voucher_code,omitempty"`
	PlacedAt       time.Time `json:"placed_at"`
}

// OrderStatusChanged публикуется при смене статуса заказа.
type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	ChangedAt time.Time `json:"changed_at"`
}
