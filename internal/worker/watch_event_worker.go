package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"vidhub/internal/apperr"
	"vidhub/internal/logging"
	"vidhub/internal/model"
)

// WatchEventSink persists one consumed watch event.
type WatchEventSink interface {
	Append(ctx context.Context, event model.WatchEvent) error
}

type outcome int

const (
	ack outcome = iota
	requeue
	drop
)

// WatchEventWorker drains the watch event queue into the history table.
type WatchEventWorker struct {
	conn      *amqp.Connection
	sink      WatchEventSink
	queueName string
	prefetch  int
	logger    logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatchEventWorker(conn *amqp.Connection, sink WatchEventSink, queueName string, logger logging.Logger) *WatchEventWorker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &WatchEventWorker{
		conn:      conn,
		sink:      sink,
		queueName: queueName,
		prefetch:  32,
		logger:    logger.With("component", "watch_event_worker"),
	}
}

func (w *WatchEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}
	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker qos failed: %w", err)
	}
	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn(workerCtx, "delivery channel closed")
					return
				}
				switch w.handle(workerCtx, d.Body, d.Redelivered) {
				case ack:
					_ = d.Ack(false)
				case requeue:
					_ = d.Nack(false, true)
				default:
					_ = d.Nack(false, false)
				}
			}
		}
	}()

	return nil
}

// handle decides the fate of one delivery. Malformed payloads and events the
// store rejects as invalid are dropped; a failed write is retried once.
func (w *WatchEventWorker) handle(ctx context.Context, body []byte, redelivered bool) outcome {
	var event model.WatchEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.logger.Warn(ctx, "decode watch event failed", "error", err)
		return drop
	}
	if err := w.sink.Append(ctx, event); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			w.logger.Warn(ctx, "discard invalid watch event", "user_id", event.UserID, "video_id", event.VideoID)
			return drop
		}
		w.logger.Error(ctx, "persist watch event failed", "user_id", event.UserID, "video_id", event.VideoID, "error", err)
		if redelivered {
			return drop
		}
		return requeue
	}
	return ack
}

func (w *WatchEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
