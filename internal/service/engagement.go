package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
)

// Списки подписок.
const (
	ListNewsletter  = "newsletter"
	ListEarlyAccess = "early-access"
)

const maxActivityEntries = 200

// Subscribe добавляет адрес в список рассылки. Повторная подписка того же адреса
// (без учёта регистра) ничего не меняет и возвращает false.
func (s *Service) Subscribe(ctx context.Context, list, email string) (bool, error) {
	if list != ListNewsletter && list != ListEarlyAccess {
		return false, fmt.Errorf("%w: %s", ErrUnknownList, list)
	}
	email = strings.TrimSpace(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []model.Subscription
	if err := repository.GetJSON(ctx, s.store, list, &subs); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("load %s: %w", list, err)
	}

	for _, sub := range subs {
		if normalizeEmail(sub.Email) == normalizeEmail(email) {
			return false, nil
		}
	}

	subs = append(subs, model.Subscription{Email: email, SubscribedAt: s.now().UTC()})

	b := repository.NewBatch()
	b.PutJSON(list, subs)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return false, fmt.Errorf("save %s: %w", list, err)
	}

	s.logger.Debug("subscribed", zap.String("list", list))
	return true, nil
}

// Subscribers возвращает подписчиков списка в порядке подписки.
func (s *Service) Subscribers(ctx context.Context, list string) ([]model.Subscription, error) {
	if list != ListNewsletter && list != ListEarlyAccess {
		return nil, fmt.Errorf("%w: %s", ErrUnknownList, list)
	}

	subs := make([]model.Subscription, 0)
	if err := repository.GetJSON(ctx, s.store, list, &subs); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load %s: %w", list, err)
	}
	return subs, nil
}

// SubmitContact сохраняет обращение из формы обратной связи.
func (s *Service) SubmitContact(ctx context.Context, name, email, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []model.ContactMessage
	if err := repository.GetJSON(ctx, s.store, keyContact, &msgs); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load contact messages: %w", err)
	}

	msgs = append(msgs, model.ContactMessage{
		Name:        strings.TrimSpace(name),
		Email:       strings.TrimSpace(email),
		Message:     message,
		SubmittedAt: s.now().UTC(),
	})

	b := repository.NewBatch()
	b.PutJSON(keyContact, msgs)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("save contact message: %w", err)
	}
	return nil
}

// appendActivity добавляет запись журнала в пакет. Вызывающий держит s.mu.
func (s *Service) appendActivity(ctx context.Context, b *repository.Batch, action, target string) error {
	var log []model.ActivityEntry
	if err := repository.GetJSON(ctx, s.store, keyActivity, &log); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load activity: %w", err)
	}

	entry := model.ActivityEntry{
		ActorID: actorFromContext(ctx),
		Action:  action,
		Target:  target,
		At:      s.now().UTC(),
	}
	log = append([]model.ActivityEntry{entry}, log...)
	if len(log) > maxActivityEntries {
		log = log[:maxActivityEntries]
	}

	b.PutJSON(keyActivity, log)
	return nil
}

// RecordActivity пишет запись в журнал действий администраторов.
func (s *Service) RecordActivity(ctx context.Context, action, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := repository.NewBatch()
	if err := s.appendActivity(ctx, b, action, target); err != nil {
		return err
	}
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("save activity: %w", err)
	}
	return nil
}

// recordActivity вызывает RecordActivity и только логирует ошибку.
func (s *Service) recordActivity(ctx context.Context, action, target string) {
	if err := s.RecordActivity(ctx, action, target); err != nil {
		s.logger.Warn("record activity failed", zap.String("action", action), zap.Error(err))
	}
}

// RecentActivity возвращает последние limit записей журнала, новые первыми.
// limit <= 0 означает весь журнал.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	log := make([]model.ActivityEntry, 0)
	if err := repository.GetJSON(ctx, s.store, keyActivity, &log); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load activity: %w", err)
	}

	if limit > 0 && len(log) > limit {
		log = log[:limit]
	}
	return log, nil
}
