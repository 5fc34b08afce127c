// Package messaging forwards domain events to RabbitMQ so that services outside
// the storefront (notifications, fulfilment) can follow the order lifecycle.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/flowershop/storefront/internal/infrastructure/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher publishes domain events to a durable topic exchange. The
// routing key is the event type, e.g. "OrderPlaced".
type EventPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         Channel
	exchange   string
	eventTypes []string
	logger     *zap.Logger
}

// Dial connects to the broker and declares the exchange
func Dial(cfg config.MessagingConfig, logger *zap.Logger, eventTypes ...string) (*EventPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	p, err := NewEventPublisher(ch, cfg.Exchange, logger, eventTypes...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewEventPublisher declares exchange on ch and returns a publisher for it
func NewEventPublisher(ch Channel, exchange string, logger *zap.Logger, eventTypes ...string) (*EventPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &EventPublisher{
		ch:         ch,
		exchange:   exchange,
		eventTypes: eventTypes,
		logger:     logger.Named("messaging"),
	}, nil
}

// EventTypes returns the event types forwarded to the broker
func (p *EventPublisher) EventTypes() []string {
	return p.eventTypes
}

// Handle publishes event as a persistent JSON message
func (p *EventPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event.EventType(), err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID().String(),
		Timestamp:    event.OccurredAt(),
		Type:         event.EventType(),
		Headers: amqp.Table{
			"aggregate_id":   event.AggregateID().String(),
			"aggregate_type": event.AggregateType(),
		},
		Body: body,
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, event.EventType(), false, false, msg)
	p.mu.Unlock()
	if err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
