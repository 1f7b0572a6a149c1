package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/service"
)

func TestClientMiddleware_IssuesCookie(t *testing.T) {
	m := NewClientMiddleware("test-secret")

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetClientIDFromContext(r.Context())
		if !ok {
			t.Fatalf("client id not in context")
		}
		seen = id
	})

	w := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, clientCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, strings.HasPrefix(cookies[0].Value, seen+"."))

	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestClientMiddleware_KeepsValidCookie(t *testing.T) {
	m := NewClientMiddleware("test-secret")
	id := uuid.NewString()

	issued := httptest.NewRecorder()
	m.SetClientCookie(issued, id)

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(issued.Result().Cookies()[0])

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, _ := GetClientIDFromContext(r.Context())
		if got != id {
			t.Fatalf("client id from context = %q, want %q", got, id)
		}
	})

	w := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(w, r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
	assert.Empty(t, w.Result().Cookies(), "valid cookie must not be reissued")
}

func TestClientMiddleware_ReplacesTamperedCookie(t *testing.T) {
	m := NewClientMiddleware("test-secret")
	other := NewClientMiddleware("other-secret")
	id := uuid.NewString()

	forged := httptest.NewRecorder()
	other.SetClientCookie(forged, id)

	tests := []struct {
		name  string
		value string
	}{
		{name: "wrong secret", value: forged.Result().Cookies()[0].Value},
		{name: "no signature", value: id},
		{name: "signed non-uuid", value: "admin-1." + m.sign("admin-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: clientCookieName, Value: tt.value})

			var got string
			w := httptest.NewRecorder()
			m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = GetClientIDFromContext(r.Context())
			})).ServeHTTP(w, r)

			assert.NotEqual(t, id, got)
			assert.NotEqual(t, "admin-1", got)
			assert.Len(t, w.Result().Cookies(), 1)
		})
	}
}

type stubResolver struct {
	sess model.Session
	err  error
}

func (s stubResolver) CurrentUser(context.Context, string) (model.Session, error) {
	return s.sess, s.err
}

func (s stubResolver) RequireAdmin(ctx context.Context, clientID string) (model.Session, error) {
	if s.err != nil {
		return model.Session{}, s.err
	}
	if !s.sess.IsAdmin {
		return model.Session{}, service.ErrForbidden
	}
	return s.sess, nil
}

func TestRequireUserAndAdmin(t *testing.T) {
	customer := model.Session{ID: "user-1", Email: "a@x.com"}
	admin := model.Session{ID: "admin-1", Email: "admin@example.com", IsAdmin: true}

	tests := []struct {
		name       string
		mw         func(SessionResolver) func(http.Handler) http.Handler
		resolver   stubResolver
		clientID   string
		wantStatus int
	}{
		{name: "user ok", mw: RequireUser, resolver: stubResolver{sess: customer}, clientID: "c1", wantStatus: http.StatusOK},
		{name: "user not signed in", mw: RequireUser, resolver: stubResolver{err: service.ErrNotSignedIn}, clientID: "c1", wantStatus: http.StatusUnauthorized},
		{name: "no client id", mw: RequireUser, resolver: stubResolver{sess: customer}, wantStatus: http.StatusUnauthorized},
		{name: "store failure", mw: RequireUser, resolver: stubResolver{err: errors.New("boom")}, clientID: "c1", wantStatus: http.StatusInternalServerError},
		{name: "admin ok", mw: RequireAdmin, resolver: stubResolver{sess: admin}, clientID: "c1", wantStatus: http.StatusOK},
		{name: "customer is forbidden", mw: RequireAdmin, resolver: stubResolver{sess: customer}, clientID: "c1", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sess, ok := GetSessionFromContext(r.Context())
				if !ok {
					t.Fatalf("session not in context")
				}
				assert.Equal(t, tt.resolver.sess.ID, sess.ID)
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.clientID != "" {
				r = r.WithContext(WithClientID(r.Context(), tt.clientID))
			}

			w := httptest.NewRecorder()
			tt.mw(tt.resolver)(next).ServeHTTP(w, r)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatus, res.StatusCode)

			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}
