package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the mailer publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMailer publishes e-mail jobs as persistent JSON messages.
type RabbitMailer struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

// NewRabbitMailer dials the broker and declares a durable queue.
func NewRabbitMailer(url, queue string) (*RabbitMailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RabbitMailer{conn: conn, ch: ch, queue: queue}, nil
}

// NewRabbitMailerWithChannel builds a mailer on an existing channel. The queue must already exist.
func NewRabbitMailerWithChannel(ch Channel, queue string) *RabbitMailer {
	return &RabbitMailer{ch: ch, queue: queue}
}

// Send publishes the job to the queue through the default exchange.
func (m *RabbitMailer) Send(ctx context.Context, email Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	return m.ch.PublishWithContext(
		ctx,
		"",      // exchange
		m.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Close closes the channel and, if owned, the connection.
func (m *RabbitMailer) Close() error {
	if err := m.ch.Close(); err != nil {
		return err
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
