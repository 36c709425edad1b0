package event

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tiller/backend/internal/domain/shared"
	"github.com/tiller/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// amqpChannel is the part of *amqp.Channel the forwarder publishes through
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPForwarder is an event handler that forwards every domain event it
// receives to a topic exchange, routed by "<aggregate type>.<event type>".
type AMQPForwarder struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   *zap.Logger
}

// NewAMQPForwarder connects to the broker and declares a durable topic exchange
func NewAMQPForwarder(url, exchange string, logger *zap.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.Info("Connected to event broker", zap.String("exchange", exchange))
	return &AMQPForwarder{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Handle publishes the event as a persistent JSON message
func (f *AMQPForwarder) Handle(ctx context.Context, evt shared.DomainEvent) error {
	envelope, err := NewEnvelope(evt)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, span := telemetry.StartSpan(ctx, f.exchange+" publish", trace.SpanKindProducer,
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination.name", f.exchange),
		attribute.String("messaging.rabbitmq.destination.routing_key", envelope.RoutingKey()),
	)
	defer span.End()

	err = f.channel.PublishWithContext(ctx, f.exchange, envelope.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    envelope.ID.String(),
		Type:         envelope.Type,
		Timestamp:    envelope.OccurredAt,
		Body:         body,
	})
	telemetry.RecordError(span, err)
	return err
}

// EventTypes is empty: the forwarder receives every event
func (f *AMQPForwarder) EventTypes() []string {
	return nil
}

// Close closes the channel and the connection
func (f *AMQPForwarder) Close() error {
	if f.channel != nil {
		_ = f.channel.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

var _ shared.EventHandler = (*AMQPForwarder)(nil)
