package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []published
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if kind != amqp.ExchangeTopic || !durable {
		return errors.New("unexpected exchange kind")
	}
	c.declared = append(c.declared, name)
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func placedOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(uuid.New())
	require.NoError(t, err)
	_, err = o.AddItem(order.ItemLine{
		ProductID:     uuid.New(),
		ProductName:   "Пион",
		Quantity:      3,
		UnitPrice:     decimal.NewFromInt(400),
		StockDeducted: 3,
	})
	require.NoError(t, err)
	require.NoError(t, o.Place())
	return o
}

func TestEventPublisher_DeclaresExchange(t *testing.T) {
	ch := &fakeChannel{}

	p, err := NewEventPublisher(ch, "flower-shop.orders", nil, order.EventTypeOrderPlaced)

	require.NoError(t, err)
	assert.Equal(t, []string{"flower-shop.orders"}, ch.declared)
	assert.Equal(t, []string{order.EventTypeOrderPlaced}, p.EventTypes())
}

func TestEventPublisher_Handle(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewEventPublisher(ch, "flower-shop.orders", nil)
	require.NoError(t, err)
	o := placedOrder(t)
	event := order.NewOrderPlacedEvent(o)

	require.NoError(t, p.Handle(context.Background(), event))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "flower-shop.orders", got.exchange)
	assert.Equal(t, order.EventTypeOrderPlaced, got.key)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, event.EventID().String(), got.msg.MessageId)
	assert.Equal(t, o.ID.String(), got.msg.Headers["aggregate_id"])

	var body struct {
		OrderNumber   string `json:"order_number"`
		TotalQuantity int    `json:"total_quantity"`
		TotalPrice    string `json:"total_price"`
	}
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, o.OrderNumber, body.OrderNumber)
	assert.Equal(t, 3, body.TotalQuantity)
	assert.Equal(t, "1200", body.TotalPrice)
}

func TestEventPublisher_PublishFailure(t *testing.T) {
	ch := &fakeChannel{publishErr: amqp.ErrClosed}
	p, err := NewEventPublisher(ch, "flower-shop.orders", nil)
	require.NoError(t, err)

	err = p.Handle(context.Background(), order.NewOrderPlacedEvent(placedOrder(t)))

	require.Error(t, err)
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestEventPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewEventPublisher(ch, "x", nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
