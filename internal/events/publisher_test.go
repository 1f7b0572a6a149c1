package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	closed    bool
	failPub   error
}

func (c *stubChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *stubChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.failPub != nil {
		return c.failPub
	}
	c.keys = append(c.keys, exchange+"|"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *stubChannel) IsClosed() bool { return c.closed }

func (c *stubChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherPublish(t *testing.T) {
	ch := &stubChannel{}
	opened := 0
	p := newPublisher(func() (amqpChannel, error) {
		opened++
		return ch, nil
	}, nil)

	ev := OrderPlaced{OrderID: "ORD-123456", UserID: "user-1", TotalCents: 161820, PlacedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, p.Publish(context.Background(), RoutingOrderPlaced, ev))
	require.NoError(t, p.Publish(context.Background(), RoutingOrderPlaced, ev))

	assert.Equal(t, 1, opened)
	assert.Equal(t, []string{RoutingOrderPlaced}, ch.declared)
	assert.Equal(t, []string{"|order.placed", "|order.placed"}, ch.keys)

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var got OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, ev.OrderID, got.OrderID)
	assert.Equal(t, ev.TotalCents, got.TotalCents)
}

func TestAMQPPublisherReopensClosedChannel(t *testing.T) {
	first := &stubChannel{}
	second := &stubChannel{}
	channels := []*stubChannel{first, second}
	p := newPublisher(func() (amqpChannel, error) {
		ch := channels[0]
		channels = channels[1:]
		return ch, nil
	}, nil)

	require.NoError(t, p.Publish(context.Background(), RoutingOrderStatusChanged, OrderStatusChanged{OrderID: "ORD-1"}))
	first.closed = true
	require.NoError(t, p.Publish(context.Background(), RoutingOrderStatusChanged, OrderStatusChanged{OrderID: "ORD-1"}))

	assert.Len(t, first.published, 1)
	assert.Len(t, second.published, 1)
	assert.Equal(t, []string{RoutingOrderStatusChanged}, second.declared)
}

func TestAMQPPublisherErrors(t *testing.T) {
	p := newPublisher(func() (amqpChannel, error) { return nil, errors.New("connection closed") }, nil)
	assert.Error(t, p.Publish(context.Background(), RoutingOrderPlaced, OrderPlaced{}))

	ch := &stubChannel{failPub: errors.New("nack")}
	p = newPublisher(func() (amqpChannel, error) { return ch, nil }, nil)
	assert.Error(t, p.Publish(context.Background(), RoutingOrderPlaced, OrderPlaced{}))

	assert.Error(t, p.Publish(context.Background(), RoutingOrderPlaced, make(chan int)))
}

func TestAMQPPublisherClose(t *testing.T) {
	ch := &stubChannel{}
	p := newPublisher(func() (amqpChannel, error) { return ch, nil }, nil)
	require.NoError(t, p.Publish(context.Background(), RoutingOrderPlaced, OrderPlaced{}))
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), RoutingOrderPlaced, OrderPlaced{}))
	assert.NoError(t, p.Close())
}
