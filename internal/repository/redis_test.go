package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreWithClient(client, "test"), mr
}

func TestRedisStore_Contract(t *testing.T) {
	s, _ := newTestRedisStore(t)
	storeContract(t, s)
}

func TestRedisStore_KeysAreNamespaced(t *testing.T) {
	s, mr := newTestRedisStore(t)

	b := NewBatch()
	b.Put("users", []byte(`[]`))
	storeApply(t, s, b)

	assert.True(t, mr.Exists("test:users"))
	assert.False(t, mr.Exists("users"))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `client:a\*b\?\[c\]:`, escapeGlob("client:a*b?[c]:"))
}

func storeApply(t *testing.T, s Store, b *Batch) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := s.Apply(ctx, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
}
