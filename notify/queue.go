package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// FallbackRecord is the queued form of an undelivered alert.
type FallbackRecord struct {
	Message   string    `json:"message"`
	ImagePath string    `json:"image_path,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// AMQPPublisher opens a connection per message; fallbacks are rare.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func (p *AMQPPublisher) Publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// QueueFallback publishes undelivered alerts and then logs them.
type QueueFallback struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewQueueFallback(publisher Publisher, logger *zap.Logger) *QueueFallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueFallback{publisher: publisher, logger: logger, now: time.Now}
}

func (q *QueueFallback) Handle(ctx context.Context, message, imagePath, reason string) error {
	body, err := json.Marshal(FallbackRecord{
		Message:   message,
		ImagePath: imagePath,
		Reason:    reason,
		CreatedAt: q.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal fallback alert: %w", err)
	}
	if err := q.publisher.Publish(ctx, body); err != nil {
		q.logger.Error("could not queue fallback alert", zap.String("reason", reason), zap.Error(err))
		return err
	}
	q.logger.Warn("fallback alert queued", zap.String("reason", reason), zap.String("message", message))
	return nil
}
