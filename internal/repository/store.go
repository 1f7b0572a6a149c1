// Package repository содержит хранилище ключ-значение, в котором витрина держит своё состояние,
// и его реализации: в памяти, в Redis и в PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion задаёт текущую версию формата сохраняемых значений.
const SchemaVersion = 1

var (
	// ErrNotFound возвращается, если ключ отсутствует в хранилище.
	ErrNotFound = errors.New("key not found")
	// ErrUnsupportedVersion возвращается при чтении значения, записанного более новой версией схемы.
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

// Store описывает хранилище ключ-значение. Apply применяет все операции пакета атомарно.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Apply(ctx context.Context, b *Batch) error
	Close() error
}

// Op описывает одну операцию пакета записи.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Batch накапливает записи и удаления, которые затем фиксируются одним вызовом Store.Apply.
type Batch struct {
	ops []Op
	err error
}

// NewBatch создаёт пустой пакет.
func NewBatch() *Batch {
	return &Batch{}
}

// Put добавляет запись значения.
func (b *Batch) Put(key string, value []byte) {
	b.ops = append(b.ops, Op{Key: key, Value: value})
}

// PutJSON кодирует значение в конверт текущей версии и добавляет его запись.
// Ошибка кодирования откладывается до Err.
func (b *Batch) PutJSON(key string, v any) {
	raw, err := Encode(v)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("encode %s: %w", key, err)
		}
		return
	}
	b.Put(key, raw)
}

// Delete добавляет удаление ключа.
func (b *Batch) Delete(key string) {
	b.ops = append(b.ops, Op{Key: key, Delete: true})
}

// Ops возвращает операции пакета в порядке добавления.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len возвращает число операций.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Err возвращает первую ошибку, возникшую при наполнении пакета.
func (b *Batch) Err() error {
	return b.err
}

type envelope struct {
	V    *int            `json:"v"`
	Data json.RawMessage `json:"data"`
}

// Encode упаковывает значение в конверт {"v":SchemaVersion,"data":...}.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ver := SchemaVersion
	return json.Marshal(envelope{V: &ver, Data: data})
}

// Decode распаковывает конверт. Значение без конверта считается записанным версией 0.
func Decode(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.V != nil && env.Data != nil {
		if *env.V > SchemaVersion {
			return fmt.Errorf("%w: %d", ErrUnsupportedVersion, *env.V)
		}
		return json.Unmarshal(env.Data, v)
	}
	return json.Unmarshal(raw, v)
}

// GetJSON читает ключ и декодирует его значение в v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := Decode(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Apply проверяет пакет и применяет его к хранилищу; пустой пакет ничего не делает.
func Apply(ctx context.Context, s Store, b *Batch) error {
	if err := b.Err(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	return s.Apply(ctx, b)
}
