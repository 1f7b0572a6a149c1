package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
)

// Settings возвращает настройки пользователя или настройки по умолчанию.
func (s *Service) Settings(ctx context.Context, userID string) (model.Settings, error) {
	st := model.DefaultSettings()
	if err := repository.GetJSON(ctx, s.store, settingsKey(userID), &st); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// UpdateSettings сохраняет настройки пользователя.
func (s *Service) UpdateSettings(ctx context.Context, userID string, st model.Settings) error {
	b := repository.NewBatch()
	b.PutJSON(settingsKey(userID), st)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AppendChat добавляет сообщение в историю чата пользователя.
func (s *Service) AppendChat(ctx context.Context, userID, from, text string) (model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.ChatHistory(ctx, userID)
	if err != nil {
		return model.ChatMessage{}, err
	}

	msg := model.ChatMessage{From: from, Text: text, At: s.now().UTC()}
	history = append(history, msg)

	b := repository.NewBatch()
	b.PutJSON(chatKey(userID), history)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.ChatMessage{}, fmt.Errorf("save chat: %w", err)
	}
	return msg, nil
}

// ChatHistory возвращает историю чата в порядке отправки.
func (s *Service) ChatHistory(ctx context.Context, userID string) ([]model.ChatMessage, error) {
	history := make([]model.ChatMessage, 0)
	if err := repository.GetJSON(ctx, s.store, chatKey(userID), &history); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	return history, nil
}

// ExportAccount собирает данные вошедшего пользователя: профиль без хеша пароля, настройки,
// заказы и историю чата.
func (s *Service) ExportAccount(ctx context.Context, clientID string) (model.AccountExport, error) {
	sess, err := s.CurrentUser(ctx, clientID)
	if err != nil {
		return model.AccountExport{}, err
	}

	users, _, err := s.registry(ctx)
	if err != nil {
		return model.AccountExport{}, err
	}
	i := findByID(users, sess.ID)
	if i < 0 {
		return model.AccountExport{}, ErrNotFound
	}

	st, err := s.Settings(ctx, sess.ID)
	if err != nil {
		return model.AccountExport{}, err
	}
	orders, err := s.loadOrders(ctx, sess.ID)
	if err != nil {
		return model.AccountExport{}, err
	}
	chat, err := s.ChatHistory(ctx, sess.ID)
	if err != nil {
		return model.AccountExport{}, err
	}

	return model.AccountExport{
		User:       model.NewSession(users[i], sess.SignedInAt),
		Settings:   st,
		Orders:     orders,
		Chat:       chat,
		ExportedAt: s.now().UTC(),
	}, nil
}

// DeleteAccount удаляет учётную запись вошедшего пользователя: все ключи user:<id>:, запись реестра,
// его заказы из индекса незавершённых, запрос сброса пароля и сессии всех клиентов.
// Встроенного администратора удалить нельзя.
func (s *Service) DeleteAccount(ctx context.Context, clientID string) error {
	sess, err := s.CurrentUser(ctx, clientID)
	if err != nil {
		return err
	}
	if sess.ID == AdminSeedID {
		return fmt.Errorf("%w: the built-in admin account cannot be deleted", ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, _, err := s.registry(ctx)
	if err != nil {
		return err
	}
	i := findByID(users, sess.ID)
	if i < 0 {
		return ErrNotFound
	}
	email := users[i].Email
	users = append(users[:i:i], users[i+1:]...)

	b := repository.NewBatch()
	b.PutJSON(keyUsers, users)

	keys, err := s.store.Keys(ctx, userPrefix(sess.ID))
	if err != nil {
		return fmt.Errorf("list user keys: %w", err)
	}
	for _, k := range keys {
		b.Delete(k)
	}

	refs, err := s.loadOpenOrders(ctx)
	if err != nil {
		return err
	}
	kept := make([]model.OrderRef, 0, len(refs))
	for _, r := range refs {
		if r.UserID != sess.ID {
			kept = append(kept, r)
		}
	}
	if len(kept) != len(refs) {
		b.PutJSON(keyOpenOrders, kept)
	}

	sessions, err := s.sessionsOf(ctx, sess.ID)
	if err != nil {
		return err
	}
	for k := range sessions {
		b.Delete(k)
	}
	b.Delete(sessionKey(clientID))
	b.Delete(resetKey(email))

	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.logger.Info("account deleted", zap.String("userID", sess.ID), zap.Int("keys", len(keys)))
	return nil
}

// isAdminSession сообщает, что сессия принадлежит администратору из реестра.
func (s *Service) isAdminSession(ctx context.Context, sess model.Session) (bool, error) {
	users, _, err := s.registry(ctx)
	if err != nil {
		return false, err
	}
	i := findByID(users, sess.ID)
	return i >= 0 && users[i].IsAdmin, nil
}

// RequireAdmin возвращает сессию клиента, если он вошёл под администратором.
func (s *Service) RequireAdmin(ctx context.Context, clientID string) (model.Session, error) {
	sess, err := s.CurrentUser(ctx, clientID)
	if err != nil {
		return model.Session{}, err
	}

	ok, err := s.isAdminSession(ctx, sess)
	if err != nil {
		return model.Session{}, err
	}
	if !ok {
		return model.Session{}, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return sess, nil
}
