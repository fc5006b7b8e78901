package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the queue consumed by the communications worker.
const DefaultQueue = "email_jobs"

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueSender publishes e-mail jobs to a durable RabbitMQ queue.
type QueueSender struct {
	publisher Publisher
	queue     string
	from      string
	now       func() time.Time
}

func NewQueueSender(publisher Publisher, queue, from string) *QueueSender {
	if queue == "" {
		queue = DefaultQueue
	}
	return &QueueSender{publisher: publisher, queue: queue, from: from, now: time.Now}
}

func (s *QueueSender) Send(ctx context.Context, to, subject, body string) error {
	msg := newMessage(s.from, to, subject, body, s.now())
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail job: %w", err)
	}

	err = s.publisher.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Date,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish mail job: %w", err)
	}
	return nil
}

// AMQPConnection owns the connection and channel behind a QueueSender.
type AMQPConnection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialQueue connects to RabbitMQ and declares the durable queue.
func DialQueue(url, queue string) (*AMQPConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if queue == "" {
		queue = DefaultQueue
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQPConnection{conn: conn, ch: ch}, nil
}

func (c *AMQPConnection) Channel() *amqp.Channel { return c.ch }

func (c *AMQPConnection) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return err
	}
	return c.conn.Close()
}
