package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPForwarder_Handle(t *testing.T) {
	ch := &fakeChannel{}
	f := &AMQPForwarder{channel: ch, exchange: "tiller.events", logger: zap.NewNop()}
	evt := newTestEvent("PaymentRecorded")

	require.NoError(t, f.Handle(context.Background(), evt))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "tiller.events", sent.exchange)
	assert.Equal(t, "Project.PaymentRecorded", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, evt.EventID().String(), sent.msg.MessageId)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(sent.msg.Body, &envelope))
	assert.Equal(t, evt.EventID(), envelope.ID)
	assert.Equal(t, evt.AggregateID(), envelope.AggregateID)

	var payload testEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "test data", payload.Data)
}

func TestAMQPForwarder_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	f := &AMQPForwarder{channel: ch, exchange: "tiller.events", logger: zap.NewNop()}

	assert.Error(t, f.Handle(context.Background(), newTestEvent("BillPaid")))
}

func TestAMQPForwarder_ReceivesEveryEvent(t *testing.T) {
	ch := &fakeChannel{}
	f := &AMQPForwarder{channel: ch, exchange: "x", logger: zap.NewNop()}
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(f)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ProjectCreated"), newTestEvent("UserCreated")))

	assert.Len(t, ch.sent, 2)
	assert.Empty(t, f.EventTypes())
	require.NoError(t, f.Close())
	assert.True(t, ch.closed)
}
