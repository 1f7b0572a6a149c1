package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/events"
	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
)

// Checkout оформляет заказ из корзины клиента от имени вошедшего пользователя.
// Заказ, индекс незавершённых заказов, очистка корзины и снятие промокода фиксируются одним пакетом.
func (s *Service) Checkout(ctx context.Context, clientID string) (model.Order, error) {
	sess, err := s.CurrentUser(ctx, clientID)
	if err != nil {
		return model.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return model.Order{}, err
	}
	if len(items) == 0 {
		return model.Order{}, ErrEmptyCart
	}

	subtotal := subtotalOf(items)

	v, ok, err := s.currentVoucher(ctx, clientID, subtotal)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		v = model.AppliedVoucher{}
	}

	orders, err := s.loadOrders(ctx, sess.ID)
	if err != nil {
		return model.Order{}, err
	}

	o, err := s.newOrder(orders, sess.ID, items, subtotal, v.Discount, v.Code)
	if err != nil {
		return model.Order{}, err
	}

	b := repository.NewBatch()
	if err := s.stageOrder(ctx, b, orders, o); err != nil {
		return model.Order{}, err
	}
	b.Delete(cartKey(clientID))
	b.Delete(voucherKey(clientID))

	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.Order{}, fmt.Errorf("checkout: %w", err)
	}

	s.publish(ctx, events.RoutingOrderPlaced, orderPlacedEvent(o))
	s.logger.Info("checkout completed",
		zap.String("orderID", o.ID),
		zap.String("userID", sess.ID),
		zap.Stringer("total", o.Total),
	)
	return o, nil
}
