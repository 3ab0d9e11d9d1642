package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"gopherai-training/internal/model"
)

// EventApplier persists one store event.
type EventApplier interface {
	Apply(ctx context.Context, event model.StoreEvent) error
}

// StoreEventWorker drains the store event queue into durable storage. Events that fail to
// decode are dropped; events that fail to persist are requeued once.
type StoreEventWorker struct {
	conn      *amqp.Connection
	applier   EventApplier
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStoreEventWorker(conn *amqp.Connection, applier EventApplier, queueName string) *StoreEventWorker {
	return &StoreEventWorker{
		conn:      conn,
		applier:   applier,
		queueName: queueName,
	}
}

func (w *StoreEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

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
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *StoreEventWorker) handle(ctx context.Context, d amqp.Delivery) {
	event, err := decodeEvent(d.Body)
	if err != nil {
		log.Printf("worker decode store event failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.applier.Apply(ctx, event); err != nil {
		log.Printf("worker persist %s for %s failed: %v", event.Type, event.DocumentID, err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	_ = d.Ack(false)
}

func decodeEvent(body []byte) (model.StoreEvent, error) {
	var event model.StoreEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.StoreEvent{}, err
	}
	if event.DocumentID == "" {
		return model.StoreEvent{}, fmt.Errorf("store event %q has no document id", event.Type)
	}
	return event, nil
}

func (w *StoreEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
