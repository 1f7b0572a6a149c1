package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher публикует событие с заданным ключом маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NopPublisher отбрасывает события. Используется, если брокер не настроен.
type NopPublisher struct{}

// Publish ничего не делает.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Close ничего не делает.
func (NopPublisher) Close() error { return nil }

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// AMQPPublisher публикует события в очереди по умолчанию (имя очереди = ключ маршрутизации).
// Сообщения сохраняются на диске брокера.
type AMQPPublisher struct {
	conn   *amqp.Connection
	open   func() (amqpChannel, error)
	logger *zap.Logger

	mu       sync.Mutex
	ch       amqpChannel
	declared map[string]bool
}

// NewAMQPPublisher подключается к брокеру по URL.
func NewAMQPPublisher(url string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	p := newPublisher(func() (amqpChannel, error) { return conn.Channel() }, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(open func() (amqpChannel, error), logger *zap.Logger) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{
		open:     open,
		logger:   logger,
		declared: make(map[string]bool),
	}
}

func (p *AMQPPublisher) channel() (amqpChannel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p.ch = ch
	p.declared = make(map[string]bool)
	return ch, nil
}

// Publish сериализует событие в JSON и публикует его.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if !p.declared[routingKey] {
		if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", routingKey, err)
		}
		p.declared[routingKey] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.Debug("event published", zap.String("routingKey", routingKey), zap.Int("bytes", len(body)))
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
