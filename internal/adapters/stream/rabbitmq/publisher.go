// Package rabbitmq fans progress events out to a message queue so dashboards
// and audit consumers can follow a run without holding the HTTP stream open.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"chatblast/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "chatblast"
const queueName = "chatblast.progress"
const routingKey = "run.progress"

// Publisher implements ports.EventSink using RabbitMQ.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher dials RabbitMQ, declares the exchange and queue, and binds them.
func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// Emit serialises a progress event and publishes it.
func (p *Publisher) Emit(ctx context.Context, ev domain.ProgressEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.channel.PublishWithContext(
		ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Close cleanly shuts down the channel and connection.
func (p *Publisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

// declare idempotently sets up the exchange, queue, and binding.
func declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}
