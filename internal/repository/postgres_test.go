package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	store := newPostgresStore(mock)
	store.delays = []time.Duration{time.Millisecond}
	return store, mock
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT value FROM kv WHERE key = \$1`).
		WithArgs("users").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	v, err := store.Get(context.Background(), "users")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(v) != `[]` {
		t.Fatalf("Get = %q, want []", v)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT value FROM kv WHERE key = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_Keys(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT key FROM kv WHERE starts_with\(key, \$1\) ORDER BY key`).
		WithArgs("user:1:").
		WillReturnRows(pgxmock.NewRows([]string{"key"}).
			AddRow("user:1:orders").
			AddRow("user:1:settings"))

	keys, err := store.Keys(context.Background(), "user:1:")
	if err != nil {
		t.Fatalf("Keys returned error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "user:1:orders" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestPostgresStore_ApplyInTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs("user:1:orders", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM kv WHERE key = \$1`).
		WithArgs("client:c1:cart").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	b := NewBatch()
	b.Put("user:1:orders", []byte(`[]`))
	b.Delete("client:c1:cart")

	if err := store.Apply(context.Background(), b); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_ApplyRetriesSerializationFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs("users", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs("users", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	b := NewBatch()
	b.Put("users", []byte(`[]`))

	if err := store.Apply(context.Background(), b); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_ApplyDoesNotRetryOtherErrors(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs("users", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	b := NewBatch()
	b.Put("users", []byte(`[]`))

	if err := store.Apply(context.Background(), b); err == nil {
		t.Fatalf("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
