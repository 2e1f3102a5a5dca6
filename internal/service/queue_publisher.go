package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/retentionai/internal/queue"
)

// ActivityPublisher receives account events from the credential store.
// Publishing is best effort: the store logs failures and carries on.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev queue.AccountEvent) error
}

// AMQPPublisher publishes account events to the account.activity queue.
// A connection is opened per message; account events are rare enough
// that a pooled channel is not worth the reconnect handling.
type AMQPPublisher struct {
	URL    string
	Logger echo.Logger
}

func NewAMQPPublisher(url string, logger echo.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: logger}
}

// Publish declares the queue (idempotent, durable) and sends ev as a
// persistent JSON message. Errors are logged and returned.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AccountEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(2 * time.Second)})
	if err != nil {
		p.Logger.Warnf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warnf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.ActivityQueueName, // name
		true,                    // durable
		false,                   // autoDelete
		false,                   // exclusive
		false,                   // noWait
		nil,                     // args
	); err != nil {
		p.Logger.Warnf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.ActivityQueueName, false, false, pub); err != nil {
		p.Logger.Warnf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// noopPublisher is used when the activity stream is disabled.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, queue.AccountEvent) error { return nil }
