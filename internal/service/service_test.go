package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/money"
	"github.com/mmeshcher/streetwear-storefront/internal/repository"
	"github.com/mmeshcher/streetwear-storefront/internal/security"
	"github.com/mmeshcher/streetwear-storefront/internal/shipping"
)

var testParams = security.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type publishedEvent struct {
	routingKey string
	event      any
}

type stubPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *stubPublisher) Publish(_ context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{routingKey: routingKey, event: event})
	return nil
}

func (p *stubPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]string, 0, len(p.events))
	for _, e := range p.events {
		res = append(res, e.routingKey)
	}
	return res
}

type stubCodes struct {
	codes map[string]string
}

func (c *stubCodes) SendResetCode(_ context.Context, email, code string) error {
	c.codes[email] = code
	return nil
}

type feedResponse struct {
	shipment   *shipping.Shipment
	status     int
	retryAfter time.Duration
	err        error
}

type stubFeed struct {
	responses map[string]feedResponse
	calls     []string
}

func (f *stubFeed) GetShipment(_ context.Context, trackingNumber string) (*shipping.Shipment, int, time.Duration, error) {
	f.calls = append(f.calls, trackingNumber)
	r, ok := f.responses[trackingNumber]
	if !ok {
		return nil, 204, 0, nil
	}
	return r.shipment, r.status, r.retryAfter, r.err
}

type testEnv struct {
	svc    *Service
	store  *repository.MemoryStore
	events *stubPublisher
	codes  *stubCodes
	feed   *stubFeed
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  repository.NewMemoryStore(),
		events: &stubPublisher{},
		codes:  &stubCodes{codes: make(map[string]string)},
		feed:   &stubFeed{responses: make(map[string]feedResponse)},
		now:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	env.svc = NewService(env.store, Options{
		Hasher:       security.NewHasher(testParams),
		Events:       env.events,
		Codes:        env.codes,
		Shipments:    env.feed,
		PollInterval: 10 * time.Millisecond,
	})
	env.svc.now = func() time.Time { return env.now }

	return env
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

// signedIn регистрирует пользователя и входит под ним от имени клиента.
func (e *testEnv) signedIn(t *testing.T, clientID, email string) model.Session {
	t.Helper()

	ctx := context.Background()
	_, err := e.svc.SignUp(ctx, email, "pw123456", "Test User")
	require.NoError(t, err)
	sess, err := e.svc.SignIn(ctx, clientID, email, "pw123456")
	require.NoError(t, err)
	return sess
}

func (e *testEnv) persistedUsers(t *testing.T) []model.User {
	t.Helper()
	users, err := e.svc.loadUsers(context.Background())
	require.NoError(t, err)
	return users
}

func tee(id string, pesos int64, qty int) model.CartItem {
	return model.CartItem{ID: id, Name: "Tee " + id, Price: money.FromPesos(pesos), Quantity: qty}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), Options{})

	if svc.resetTTL != defaultResetTTL {
		t.Fatalf("resetTTL = %v, want %v", svc.resetTTL, defaultResetTTL)
	}
	if svc.pollInterval != defaultPollInterval {
		t.Fatalf("pollInterval = %v, want %v", svc.pollInterval, defaultPollInterval)
	}
	if len(svc.Vouchers()) != 4 {
		t.Fatalf("expected default voucher catalog, got %d entries", len(svc.Vouchers()))
	}
	if err := svc.events.Publish(context.Background(), "x", nil); err != nil {
		t.Fatalf("default publisher returned error: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestActorFromContext(t *testing.T) {
	if got := actorFromContext(context.Background()); got != systemActor {
		t.Fatalf("actor = %q, want %q", got, systemActor)
	}
	if got := actorFromContext(WithActor(context.Background(), "admin-1")); got != "admin-1" {
		t.Fatalf("actor = %q, want admin-1", got)
	}
}
