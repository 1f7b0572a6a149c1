package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/events"
	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/money"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
	"github.com/mmeshcher/streetwear-storefront/internal/security"
	"github.com/mmeshcher/streetwear-storefront/internal/shipping"
)

const maxIDAttempts = 10

func (s *Service) loadOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders := make([]model.Order, 0)
	if err := repository.GetJSON(ctx, s.store, ordersKey(userID), &orders); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

func (s *Service) loadOpenOrders(ctx context.Context) ([]model.OrderRef, error) {
	refs := make([]model.OrderRef, 0)
	if err := repository.GetJSON(ctx, s.store, keyOpenOrders, &refs); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load open orders: %w", err)
	}
	return refs, nil
}

// persistedOrders убирает из заказов вычисляемый маршрут перед сохранением.
func persistedOrders(orders []model.Order) []model.Order {
	res := make([]model.Order, len(orders))
	for i, o := range orders {
		o.TrackingPoints = nil
		res[i] = o
	}
	return res
}

func (s *Service) newOrder(existing []model.Order, userID string, items []model.CartItem, subtotal, discount money.Amount, voucherCode string) (model.Order, error) {
	taken := make(map[string]bool, len(existing))
	for _, o := range existing {
		taken[o.ID] = true
	}

	var id string
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return model.Order{}, fmt.Errorf("generate order id: too many collisions")
		}
		v, err := security.OrderID()
		if err != nil {
			return model.Order{}, err
		}
		if !taken[v] {
			id = v
			break
		}
	}

	trk, err := security.TrackingNumber()
	if err != nil {
		return model.Order{}, err
	}

	lines := make([]model.CartItem, len(items))
	copy(lines, items)

	return model.Order{
		ID:             id,
		UserID:         userID,
		Date:           s.now().UTC(),
		Subtotal:       subtotal,
		Discount:       discount,
		Total:          totalOf(subtotal, discount),
		VoucherCode:    voucherCode,
		Status:         model.OrderStatusProcessing,
		TrackingNumber: trk,
		Items:          lines,
	}, nil
}

// stageOrder добавляет заказ в начало списка пользователя и в индекс незавершённых заказов.
// Вызывающий держит s.mu.
func (s *Service) stageOrder(ctx context.Context, b *repository.Batch, orders []model.Order, o model.Order) error {
	refs, err := s.loadOpenOrders(ctx)
	if err != nil {
		return err
	}

	orders = append([]model.Order{o}, orders...)
	refs = append(refs, model.OrderRef{UserID: o.UserID, OrderID: o.ID, TrackingNumber: o.TrackingNumber})

	b.PutJSON(ordersKey(o.UserID), persistedOrders(orders))
	b.PutJSON(keyOpenOrders, refs)
	return nil
}

func orderPlacedEvent(o model.Order) events.OrderPlaced {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return events.OrderPlaced{
		OrderID:        o.ID,
		UserID:         o.UserID,
		TrackingNumber: o.TrackingNumber,
		ItemCount:      count,
		SubtotalCents:  int64(o.Subtotal),
		DiscountCents:  int64(o.Discount),
		TotalCents:     int64(o.Total),
		VoucherCode:    o.VoucherCode,
		PlacedAt:       o.Date,
	}
}

// PlaceOrder создаёт заказ в статусе processing со снимком строк корзины и добавляет его
// в начало списка заказов пользователя.
func (s *Service) PlaceOrder(ctx context.Context, userID string, items []model.CartItem, subtotal, discount money.Amount, voucherCode string) (model.Order, error) {
	if len(items) == 0 {
		return model.Order{}, ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders(ctx, userID)
	if err != nil {
		return model.Order{}, err
	}

	o, err := s.newOrder(orders, userID, items, subtotal, discount, voucherCode)
	if err != nil {
		return model.Order{}, err
	}

	b := repository.NewBatch()
	if err := s.stageOrder(ctx, b, orders, o); err != nil {
		return model.Order{}, err
	}
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.publish(ctx, events.RoutingOrderPlaced, orderPlacedEvent(o))
	s.logger.Info("order placed", zap.String("orderID", o.ID), zap.String("userID", userID))
	return o, nil
}

// ListOrders возвращает заказы пользователя, новые первыми.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.loadOrders(ctx, userID)
}

// GetOrder ищет заказ пользователя по идентификатору.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	orders, err := s.loadOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, ErrNotFound
}

// OpenOrders возвращает индекс заказов в незавершённых статусах.
func (s *Service) OpenOrders(ctx context.Context) ([]model.OrderRef, error) {
	return s.loadOpenOrders(ctx)
}

func withoutRef(refs []model.OrderRef, userID, orderID string) []model.OrderRef {
	kept := make([]model.OrderRef, 0, len(refs))
	for _, r := range refs {
		if r.UserID != userID || r.OrderID != orderID {
			kept = append(kept, r)
		}
	}
	return kept
}

// UpdateOrderStatus переводит заказ в новый статус. Допустимы переходы processing → shipped → delivered
// и отмена из незавершённых статусов; повтор текущего статуса ничего не меняет.
func (s *Service) UpdateOrderStatus(ctx context.Context, userID, orderID string, to model.OrderStatus) (model.Order, error) {
	if !to.Valid() {
		return model.Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders(ctx, userID)
	if err != nil {
		return model.Order{}, err
	}

	i := -1
	for j := range orders {
		if orders[j].ID == orderID {
			i = j
			break
		}
	}
	if i < 0 {
		return model.Order{}, ErrNotFound
	}

	from := orders[i].Status
	if from == to {
		return orders[i], nil
	}
	if !from.CanTransition(to) {
		return model.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}

	now := s.now().UTC()
	orders[i].Status = to
	orders[i].TrackingPoints = nil
	if to == model.OrderStatusDelivered {
		orders[i].DeliveredAt = &now
	}

	b := repository.NewBatch()
	b.PutJSON(ordersKey(userID), persistedOrders(orders))

	if to.Terminal() {
		refs, err := s.loadOpenOrders(ctx)
		if err != nil {
			return model.Order{}, err
		}
		b.PutJSON(keyOpenOrders, withoutRef(refs, userID, orderID))
	}

	actor := actorFromContext(ctx)
	if actor != systemActor {
		if err := s.appendActivity(ctx, b, "order_status:"+string(to), orderID); err != nil {
			return model.Order{}, err
		}
	}

	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.Order{}, fmt.Errorf("save order status: %w", err)
	}

	s.publish(ctx, events.RoutingOrderStatusChanged, events.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    userID,
		From:      string(from),
		To:        string(to),
		ActorID:   actor,
		ChangedAt: now,
	})
	s.logger.Info("order status changed",
		zap.String("orderID", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor),
	)
	return orders[i], nil
}

func (s *Service) dropOpenRef(ctx context.Context, ref model.OrderRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs, err := s.loadOpenOrders(ctx)
	if err != nil {
		return err
	}

	b := repository.NewBatch()
	b.PutJSON(keyOpenOrders, withoutRef(refs, ref.UserID, ref.OrderID))
	return repository.Apply(ctx, s.store, b)
}

// StartShipmentUpdates опрашивает ленту перевозчика по незавершённым заказам и применяет
// изменения статусов. Блокируется до отмены контекста.
func (s *Service) StartShipmentUpdates(ctx context.Context) error {
	if s.shipments == nil {
		s.logger.Info("shipment feed not configured, updates disabled")
		return nil
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.processShipmentBatch(ctx)
		}
	}
}

func carrierStatus(status string) (model.OrderStatus, bool) {
	switch status {
	case shipping.StatusInTransit:
		return model.OrderStatusShipped, true
	case shipping.StatusDelivered:
		return model.OrderStatusDelivered, true
	case shipping.StatusReturned, shipping.StatusCancelled:
		return model.OrderStatusCancelled, true
	}
	return "", false
}

// nextShipmentBatch берёт не больше shipmentBatchSize ссылок, начиная с курсора, и сдвигает
// курсор, чтобы при длинном индексе каждый заказ опрашивался по очереди.
func (s *Service) nextShipmentBatch(refs []model.OrderRef) []model.OrderRef {
	if len(refs) <= s.shipmentBatchSize {
		s.shipmentCursor = 0
		return refs
	}

	start := s.shipmentCursor % len(refs)
	batch := make([]model.OrderRef, 0, s.shipmentBatchSize)
	for i := 0; i < s.shipmentBatchSize; i++ {
		batch = append(batch, refs[(start+i)%len(refs)])
	}
	s.shipmentCursor = (start + s.shipmentBatchSize) % len(refs)
	return batch
}

func (s *Service) processShipmentBatch(ctx context.Context) {
	refs, err := s.OpenOrders(ctx)
	if err != nil {
		s.logger.Warn("load open orders failed", zap.Error(err))
		return
	}

	for _, ref := range s.nextShipmentBatch(refs) {
		shipment, statusCode, retryAfter, err := s.shipments.GetShipment(ctx, ref.TrackingNumber)
		if err != nil {
			s.logger.Debug("shipment lookup failed", zap.String("trackingNumber", ref.TrackingNumber), zap.Error(err))
			continue
		}

		if statusCode == http.StatusTooManyRequests {
			if retryAfter > 0 {
				timer := time.NewTimer(retryAfter)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			continue
		}

		if shipment == nil {
			continue
		}

		target, ok := carrierStatus(shipment.Status)
		if !ok {
			continue
		}

		s.applyCarrierStatus(ctx, ref, target)
	}
}

// applyCarrierStatus переводит заказ в статус перевозчика; доставленный заказ в статусе
// processing сначала отмечается отправленным.
func (s *Service) applyCarrierStatus(ctx context.Context, ref model.OrderRef, target model.OrderStatus) {
	o, err := s.GetOrder(ctx, ref.UserID, ref.OrderID)
	if errors.Is(err, ErrNotFound) {
		if err := s.dropOpenRef(ctx, ref); err != nil {
			s.logger.Warn("drop stale open order failed", zap.String("orderID", ref.OrderID), zap.Error(err))
		}
		return
	}
	if err != nil {
		s.logger.Warn("load order failed", zap.String("orderID", ref.OrderID), zap.Error(err))
		return
	}

	steps := []model.OrderStatus{target}
	if o.Status == model.OrderStatusProcessing && target == model.OrderStatusDelivered {
		steps = []model.OrderStatus{model.OrderStatusShipped, model.OrderStatusDelivered}
	}

	for _, step := range steps {
		if _, err := s.UpdateOrderStatus(ctx, ref.UserID, ref.OrderID, step); err != nil {
			s.logger.Warn("apply carrier status failed",
				zap.String("orderID", ref.OrderID),
				zap.String("status", string(step)),
				zap.Error(err),
			)
			return
		}
	}
}
