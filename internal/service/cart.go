package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/money"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
)

// CartSummary содержит корзину с применённым промокодом и итогами.
type CartSummary struct {
	Items    []model.CartItem      `json:"items"`
	Voucher  *model.AppliedVoucher `json:"voucher,omitempty"`
	Subtotal money.Amount          `json:"subtotal"`
	Discount money.Amount          `json:"discount"`
	Total    money.Amount          `json:"total"`
}

func (s *Service) loadCart(ctx context.Context, clientID string) ([]model.CartItem, error) {
	items := make([]model.CartItem, 0)
	if err := repository.GetJSON(ctx, s.store, cartKey(clientID), &items); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return items, nil
}

func (s *Service) saveCart(ctx context.Context, clientID string, items []model.CartItem) error {
	b := repository.NewBatch()
	if len(items) == 0 {
		b.Delete(cartKey(clientID))
	} else {
		b.PutJSON(cartKey(clientID), items)
	}
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// AddItem добавляет товар в корзину. Если строка с тем же товаром, цветом и размером уже есть,
// её количество увеличивается, но не сверх model.MaxLineQuantity.
func (s *Service) AddItem(ctx context.Context, clientID string, item model.CartItem) ([]model.CartItem, error) {
	if item.Quantity < 1 || item.Quantity > model.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	if item.Price < 0 || item.Price > money.MaxAmount {
		return nil, fmt.Errorf("add item: %w", money.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].SameLine(item.ID, item.Color, item.Size) {
			if items[i].Quantity > model.MaxLineQuantity-item.Quantity {
				return nil, ErrInvalidQuantity
			}
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.saveCart(ctx, clientID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity задаёт количество для строки корзины; значения меньше 1 заменяются на 1.
// Отсутствующая строка игнорируется.
func (s *Service) UpdateQuantity(ctx context.Context, clientID, id, color, size string, qty int) ([]model.CartItem, error) {
	if qty < 1 {
		qty = 1
	}
	if qty > model.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].SameLine(id, color, size) {
			items[i].Quantity = qty
			if err := s.saveCart(ctx, clientID, items); err != nil {
				return nil, err
			}
			break
		}
	}
	return items, nil
}

// RemoveItem удаляет строку корзины. Отсутствующая строка игнорируется.
func (s *Service) RemoveItem(ctx context.Context, clientID, id, color, size string) ([]model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, it := range items {
		if !it.SameLine(id, color, size) {
			kept = append(kept, it)
		}
	}

	if len(kept) == len(items) {
		return items, nil
	}
	if err := s.saveCart(ctx, clientID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// ClearCart очищает корзину. Применённый промокод сохраняется.
func (s *Service) ClearCart(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveCart(ctx, clientID, nil)
}

// CartItems возвращает строки корзины в порядке добавления.
func (s *Service) CartItems(ctx context.Context, clientID string) ([]model.CartItem, error) {
	return s.loadCart(ctx, clientID)
}

func subtotalOf(items []model.CartItem) money.Amount {
	var total money.Amount
	for _, it := range items {
		total += it.Price.Mul(it.Quantity)
	}
	return total
}

// Subtotal возвращает сумму price*quantity по строкам корзины.
func (s *Service) Subtotal(ctx context.Context, clientID string) (money.Amount, error) {
	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return subtotalOf(items), nil
}

// ApplyVoucher применяет промокод к текущей корзине. Неизвестный код возвращает
// ErrVoucherInvalid, ранее применённый промокод при этом не меняется.
func (s *Service) ApplyVoucher(ctx context.Context, clientID, code string) (model.AppliedVoucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return model.AppliedVoucher{}, err
	}

	res := s.catalog.Apply(code, subtotalOf(items))
	if !res.Valid {
		return model.AppliedVoucher{}, fmt.Errorf("%w: %s", ErrVoucherInvalid, res.Code)
	}

	applied := model.AppliedVoucher{Code: res.Code, Discount: res.Discount, Description: res.Description}

	b := repository.NewBatch()
	b.PutJSON(voucherKey(clientID), applied)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.AppliedVoucher{}, fmt.Errorf("save voucher: %w", err)
	}
	return applied, nil
}

// ClearVoucher снимает применённый промокод.
func (s *Service) ClearVoucher(ctx context.Context, clientID string) error {
	b := repository.NewBatch()
	b.Delete(voucherKey(clientID))
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	return nil
}

// AppliedVoucher возвращает промокод клиента со скидкой, пересчитанной для текущего подытога.
// Второе значение false, если промокод не применён или исчез из каталога.
func (s *Service) AppliedVoucher(ctx context.Context, clientID string) (model.AppliedVoucher, bool, error) {
	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return model.AppliedVoucher{}, false, err
	}
	return s.currentVoucher(ctx, clientID, subtotalOf(items))
}

func (s *Service) currentVoucher(ctx context.Context, clientID string, subtotal money.Amount) (model.AppliedVoucher, bool, error) {
	var applied model.AppliedVoucher
	if err := repository.GetJSON(ctx, s.store, voucherKey(clientID), &applied); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AppliedVoucher{}, false, nil
		}
		return model.AppliedVoucher{}, false, fmt.Errorf("load voucher: %w", err)
	}

	res := s.catalog.Apply(applied.Code, subtotal)
	if !res.Valid {
		return model.AppliedVoucher{}, false, nil
	}
	return model.AppliedVoucher{Code: res.Code, Discount: res.Discount, Description: res.Description}, true, nil
}

func totalOf(subtotal, discount money.Amount) money.Amount {
	if discount > subtotal {
		return 0
	}
	return subtotal - discount
}

// Summary возвращает корзину клиента с итогами.
func (s *Service) Summary(ctx context.Context, clientID string) (CartSummary, error) {
	items, err := s.loadCart(ctx, clientID)
	if err != nil {
		return CartSummary{}, err
	}

	sum := CartSummary{Items: items, Subtotal: subtotalOf(items)}

	v, ok, err := s.currentVoucher(ctx, clientID, sum.Subtotal)
	if err != nil {
		return CartSummary{}, err
	}
	if ok {
		sum.Voucher = &v
		sum.Discount = v.Discount
	}
	sum.Total = totalOf(sum.Subtotal, sum.Discount)
	return sum, nil
}
