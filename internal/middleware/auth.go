// Package middleware содержит HTTP middleware витрины.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
)

type contextKey string

const (
	clientIDKey contextKey = "clientID"
	sessionKey  contextKey = "session"
)

const (
	clientCookieName = "client_id"
	clientCookieTTL  = 365 * 24 * time.Hour
)

// ClientMiddleware выдаёт каждому браузеру идентификатор клиента в подписанном cookie.
// К идентификатору привязаны сессия, корзина и применённый промокод.
type ClientMiddleware struct {
	secretKey []byte
}

// NewClientMiddleware создаёт middleware с указанным секретом подписи. При пустом секрете
// генерируется случайный ключ, и cookie перестают быть действительными после перезапуска.
func NewClientMiddleware(secret string) *ClientMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &ClientMiddleware{
		secretKey: key,
	}
}

// Middleware читает идентификатор клиента из cookie или выдаёт новый и кладёт его в контекст запроса.
func (c *ClientMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ""
		if cookie, err := r.Cookie(clientCookieName); err == nil {
			if id, ok := c.parseCookie(cookie.Value); ok {
				clientID = id
			}
		}

		if clientID == "" {
			clientID = uuid.NewString()
			c.SetClientCookie(w, clientID)
		}

		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
	})
}

// SetClientCookie устанавливает cookie с подписанным идентификатором клиента.
func (c *ClientMiddleware) SetClientCookie(w http.ResponseWriter, clientID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    clientID + "." + c.sign(clientID),
		Path:     "/",
		Expires:  time.Now().Add(clientCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *ClientMiddleware) sign(clientID string) string {
	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write([]byte(clientID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *ClientMiddleware) parseCookie(value string) (string, bool) {
	id, signature, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}

	if !hmac.Equal([]byte(signature), []byte(c.sign(id))) {
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}

	return id, true
}

// WithClientID сохраняет идентификатор клиента в контексте.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientIDFromContext извлекает идентификатор клиента из контекста запроса.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}

// GetSessionFromContext возвращает сессию, положенную RequireUser или RequireAdmin.
func GetSessionFromContext(ctx context.Context) (model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(model.Session)
	return sess, ok
}

// SessionResolver находит сессию клиента.
type SessionResolver interface {
	CurrentUser(ctx context.Context, clientID string) (model.Session, error)
	RequireAdmin(ctx context.Context, clientID string) (model.Session, error)
}

// RequireUser пропускает только клиентов с активной сессией.
func RequireUser(resolver SessionResolver) func(http.Handler) http.Handler {
	return requireSession(resolver.CurrentUser)
}

// RequireAdmin пропускает только администраторов и помечает их как исполнителей действий.
func RequireAdmin(resolver SessionResolver) func(http.Handler) http.Handler {
	return requireSession(resolver.RequireAdmin)
}

func requireSession(resolve func(ctx context.Context, clientID string) (model.Session, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, ok := GetClientIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, service.ErrNotSignedIn.Error())
				return
			}

			sess, err := resolve(r.Context(), clientID)
			switch {
			case errors.Is(err, service.ErrNotSignedIn):
				writeError(w, http.StatusUnauthorized, service.ErrNotSignedIn.Error())
				return
			case errors.Is(err, service.ErrForbidden):
				writeError(w, http.StatusForbidden, service.ErrForbidden.Error())
				return
			case err != nil:
				writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = service.WithActor(ctx, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
