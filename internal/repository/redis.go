package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "storefront"

// RedisOptions описывает подключение к Redis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore хранит значения в Redis под общим префиксом.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore подключается к Redis и проверяет соединение.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, opts.Prefix), nil
}

// NewRedisStoreWithClient оборачивает готовый клиент.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix + ":"}
}

// Get возвращает значение ключа.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// Keys перебирает ключи через SCAN и возвращает их без префикса хранилища.
func (r *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	match := escapeGlob(r.prefix+prefix) + "*"

	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, r.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Apply выполняет пакет в транзакции MULTI/EXEC.
func (r *RedisStore) Apply(ctx context.Context, b *Batch) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range b.Ops() {
			if op.Delete {
				pipe.Del(ctx, r.prefix+op.Key)
				continue
			}
			pipe.Set(ctx, r.prefix+op.Key, op.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis apply: %w", err)
	}
	return nil
}

// Close закрывает клиент Redis.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	return b.String()
}
