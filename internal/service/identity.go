package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
	"github.com/mmeshcher/streetwear-storefront/internal/security"
)

const (
	// AdminSeedID задаёт идентификатор встроенной учётной записи администратора.
	AdminSeedID = "admin-1"
	// AdminSeedEmail задаёт адрес встроенной учётной записи администратора.
	AdminSeedEmail = "admin@example.com"

	defaultAdminRole  = "editor"
	defaultPosition   = "Staff"
	defaultDepartment = "General"

	maxResetAttempts = 5
)

func (s *Service) loadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := repository.GetJSON(ctx, s.store, keyUsers, &users)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

// registry возвращает реестр пользователей, дополненный встроенным администратором, и признак того,
// что администратор был добавлен и реестр нужно сохранить.
func (s *Service) registry(ctx context.Context) ([]model.User, bool, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, u := range users {
		if strings.EqualFold(u.Email, AdminSeedEmail) {
			return users, false, nil
		}
	}

	hash, err := s.hasher.Hash(s.adminSeedPassword)
	if err != nil {
		return nil, false, fmt.Errorf("hash seed password: %w", err)
	}

	seed := model.User{
		ID:           AdminSeedID,
		Name:         "Admin",
		Email:        AdminSeedEmail,
		PasswordHash: hash,
		IsAdmin:      true,
		AdminRole:    "owner",
		Position:     "Administrator",
		Department:   "Management",
		CreatedAt:    s.now().UTC(),
	}
	return append([]model.User{seed}, users...), true, nil
}

// EnsureAdminSeed добавляет встроенного администратора в реестр, если его там нет.
func (s *Service) EnsureAdminSeed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, seeded, err := s.registry(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		return nil
	}

	b := repository.NewBatch()
	b.PutJSON(keyUsers, users)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info("admin account seeded", zap.String("email", AdminSeedEmail))
	return nil
}

func findByEmail(users []model.User, email string) int {
	email = normalizeEmail(email)
	for i, u := range users {
		if normalizeEmail(u.Email) == email {
			return i
		}
	}
	return -1
}

func findByID(users []model.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) newUserID(users []model.User) string {
	base := "user-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	id := base
	for n := 1; findByID(users, id) >= 0; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

func (s *Service) createUser(ctx context.Context, u model.User, password string) (model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, _, err := s.registry(ctx)
	if err != nil {
		return model.User{}, err
	}

	if findByEmail(users, u.Email) >= 0 {
		return model.User{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
	}

	u.ID = s.newUserID(users)
	u.PasswordHash = hash
	u.CreatedAt = s.now().UTC()
	users = append(users, u)

	b := repository.NewBatch()
	b.PutJSON(keyUsers, users)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.User{}, fmt.Errorf("save users: %w", err)
	}

	return u, nil
}

// SignUp регистрирует пользователя. Сессия не создаётся: для входа нужно вызвать SignIn.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (model.User, error) {
	u, err := s.createUser(ctx, model.User{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}, password)
	if err != nil {
		return model.User{}, err
	}

	s.logger.Info("user registered", zap.String("userID", u.ID))
	return u, nil
}

// RegisterAdmin регистрирует администратора с указанной ролью (по умолчанию editor).
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name, role string) (model.User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		role = defaultAdminRole
	}

	u, err := s.createUser(ctx, model.User{
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		IsAdmin:    true,
		AdminRole:  role,
		Position:   defaultPosition,
		Department: defaultDepartment,
	}, password)
	if err != nil {
		return model.User{}, err
	}

	s.recordActivity(ctx, "register_admin", u.ID)
	s.logger.Info("admin registered", zap.String("userID", u.ID), zap.String("role", role))
	return u, nil
}

// SignIn проверяет учётные данные и сохраняет снимок сессии для клиента.
func (s *Service) SignIn(ctx context.Context, clientID, email, password string) (model.Session, error) {
	users, _, err := s.registry(ctx)
	if err != nil {
		return model.Session{}, err
	}

	i := findByEmail(users, email)
	if i < 0 {
		return model.Session{}, ErrUserNotRegistered
	}
	u := users[i]

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return model.Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return model.Session{}, ErrInvalidPassword
	}

	sess := model.NewSession(u, s.now().UTC())

	b := repository.NewBatch()
	b.PutJSON(sessionKey(clientID), sess)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return model.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.logger.Debug("user signed in", zap.String("userID", u.ID))
	return sess, nil
}

// SignOut удаляет сессию клиента. Повторный вызов безопасен.
func (s *Service) SignOut(ctx context.Context, clientID string) error {
	b := repository.NewBatch()
	b.Delete(sessionKey(clientID))
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser возвращает сессию клиента. Сессия удалённого пользователя сбрасывается.
func (s *Service) CurrentUser(ctx context.Context, clientID string) (model.Session, error) {
	var sess model.Session
	if err := repository.GetJSON(ctx, s.store, sessionKey(clientID), &sess); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Session{}, ErrNotSignedIn
		}
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}

	users, _, err := s.registry(ctx)
	if err != nil {
		return model.Session{}, err
	}
	if findByID(users, sess.ID) < 0 {
		if err := s.SignOut(ctx, clientID); err != nil {
			return model.Session{}, err
		}
		return model.Session{}, ErrNotSignedIn
	}

	return sess, nil
}

// ResetPassword создаёт код сброса пароля со сроком действия resetTTL. Возвращает false,
// если адрес не зарегистрирован. Новый запрос заменяет предыдущий.
func (s *Service) ResetPassword(ctx context.Context, email string) (bool, error) {
	users, _, err := s.registry(ctx)
	if err != nil {
		return false, err
	}
	if findByEmail(users, email) < 0 {
		return false, nil
	}

	code, err := security.ResetCode()
	if err != nil {
		return false, err
	}

	req := model.ResetRequest{Code: code, ExpiresAt: s.now().UTC().Add(s.resetTTL)}

	b := repository.NewBatch()
	b.PutJSON(resetKey(email), req)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return false, fmt.Errorf("save reset request: %w", err)
	}

	if err := s.codes.SendResetCode(ctx, normalizeEmail(email), code); err != nil {
		return false, fmt.Errorf("send reset code: %w", err)
	}

	return true, nil
}

// CheckResetCode сообщает, что для адреса есть запрос с таким кодом и срок его действия не истёк.
// Каждый неверный код засчитывается как попытка; после maxResetAttempts запрос удаляется.
func (s *Service) CheckResetCode(ctx context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verifyResetCode(ctx, email, code)
}

// verifyResetCode вызывается под s.mu.
func (s *Service) verifyResetCode(ctx context.Context, email, code string) (bool, error) {
	var req model.ResetRequest
	if err := repository.GetJSON(ctx, s.store, resetKey(email), &req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load reset request: %w", err)
	}

	if !s.now().Before(req.ExpiresAt) || req.Attempts >= maxResetAttempts {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(code)) == 1 {
		return true, nil
	}

	req.Attempts++
	b := repository.NewBatch()
	if req.Attempts >= maxResetAttempts {
		b.Delete(resetKey(email))
		s.logger.Warn("reset request locked after failed attempts", zap.Int("attempts", req.Attempts))
	} else {
		b.PutJSON(resetKey(email), req)
	}
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return false, fmt.Errorf("save reset attempts: %w", err)
	}
	return false, nil
}

// UpdatePassword меняет пароль по действующему коду и удаляет запрос сброса.
func (s *Service) UpdatePassword(ctx context.Context, email, code, newPassword string) (bool, error) {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.verifyResetCode(ctx, email, code)
	if err != nil || !ok {
		return false, err
	}

	users, _, err := s.registry(ctx)
	if err != nil {
		return false, err
	}

	b := repository.NewBatch()
	b.Delete(resetKey(email))

	i := findByEmail(users, email)
	if i < 0 {
		if err := repository.Apply(ctx, s.store, b); err != nil {
			return false, fmt.Errorf("delete reset request: %w", err)
		}
		return false, nil
	}

	users[i].PasswordHash = hash
	b.PutJSON(keyUsers, users)
	if err := repository.Apply(ctx, s.store, b); err != nil {
		return false, fmt.Errorf("save password: %w", err)
	}

	s.logger.Info("password updated", zap.String("userID", users[i].ID))
	return true, nil
}

// UpdateAdminProfile применяет изменения профиля к записи пользователя и обновляет снимки
// сессий этого пользователя у всех клиентов. Возвращает ErrNotFound, если пользователя нет.
func (s *Service) UpdateAdminProfile(ctx context.Context, userID string, upd model.AdminProfileUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, _, err := s.registry(ctx)
	if err != nil {
		return false, err
	}

	i := findByID(users, userID)
	if i < 0 {
		return false, ErrNotFound
	}

	u := &users[i]
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.AdminRole != nil {
		u.AdminRole = *upd.AdminRole
	}
	if upd.Position != nil {
		u.Position = *upd.Position
	}
	if upd.Department != nil {
		u.Department = *upd.Department
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}

	b := repository.NewBatch()
	b.PutJSON(keyUsers, users)

	sessions, err := s.sessionsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	for key, sess := range sessions {
		b.PutJSON(key, model.NewSession(*u, sess.SignedInAt))
	}

	if err := s.appendActivity(ctx, b, "update_admin_profile", userID); err != nil {
		return false, err
	}

	if err := repository.Apply(ctx, s.store, b); err != nil {
		return false, fmt.Errorf("save profile: %w", err)
	}
	return true, nil
}

// sessionsOf возвращает сессии всех клиентов, вошедших под указанным пользователем, по ключу.
func (s *Service) sessionsOf(ctx context.Context, userID string) (map[string]model.Session, error) {
	keys, err := s.store.Keys(ctx, clientPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	res := make(map[string]model.Session)
	for _, k := range keys {
		if !strings.HasSuffix(k, sessionSuffix) {
			continue
		}
		var sess model.Session
		if err := repository.GetJSON(ctx, s.store, k, &sess); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if sess.ID == userID {
			res[k] = sess
		}
	}
	return res, nil
}

// GetAdminUsers возвращает администраторов в порядке реестра.
func (s *Service) GetAdminUsers(ctx context.Context) ([]model.User, error) {
	users, _, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}

	admins := make([]model.User, 0)
	for _, u := range users {
		if u.IsAdmin {
			admins = append(admins, u)
		}
	}
	return admins, nil
}
