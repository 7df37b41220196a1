package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const notificationsQueue = "marketplace.notifications"

// Notification is the wire contract consumed by the notification worker.
type Notification struct {
	UserID    int       `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AMQPSink publishes notifications to a durable RabbitMQ queue. Delivery to
// the user happens asynchronously in the notification worker, so order and
// payment flows never wait on it.
type AMQPSink struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPSink connects to the broker and declares the notifications queue
// so publishing never fails due to missing infra.
func NewAMQPSink(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(notificationsQueue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", notificationsQueue, err)
	}

	return &AMQPSink{conn: conn, ch: ch}, nil
}

func (s *AMQPSink) Close() error {
	if err := s.ch.Close(); err != nil {
		s.conn.Close()
		return err
	}
	return s.conn.Close()
}

// Send publishes one notification as persistent JSON on the default
// exchange, routed by queue name.
func (s *AMQPSink) Send(ctx context.Context, userID int, kind, title, message, link string) error {
	body, err := json.Marshal(Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Link:      link,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.ch.PublishWithContext(
		pubCtx,
		"",
		notificationsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
