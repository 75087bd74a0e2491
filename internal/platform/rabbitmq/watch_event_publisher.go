package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"vidhub/internal/model"
)

const watchEventType = "video.watch.recorded"

// WatchEventPublisher sends watch events to a durable queue consumed by the
// history worker.
type WatchEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewWatchEventPublisher(conn *amqp.Connection, queueName string) *WatchEventPublisher {
	return &WatchEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *WatchEventPublisher) PublishWatchEvent(ctx context.Context, event model.WatchEvent) error {
	msg, err := encodeWatchEvent(event)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("publish watch event failed: %w", err)
	}
	return nil
}

func encodeWatchEvent(event model.WatchEvent) (amqp.Publishing, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal watch event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         watchEventType,
		Timestamp:    event.WatchedAt,
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}, nil
}
