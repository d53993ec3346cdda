package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AttemptRecorder stores a consumed attempt
type AttemptRecorder interface {
	Record(ctx context.Context, attempt *domain.Attempt) error
}

// Delivery is the part of amqp.Delivery the consumer acknowledges through
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
}

// Consumer drains the attempts queue into a history store. When the
// connection reconnects it subscribes again on the new channel.
type Consumer struct {
	conn       *Connection
	recorder   AttemptRecorder
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	subscribe   func() (<-chan amqp.Delivery, error)
	reconnected <-chan struct{}
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // Number of concurrent workers
	Prefetch int // Prefetch count per worker
	// Timeout bounds one Record call
	Timeout time.Duration
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
		Timeout:  10 * time.Second,
	}
}

// NewConsumer creates a new attempt consumer
func NewConsumer(conn *Connection, recorder AttemptRecorder, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	c := &Consumer{
		conn:     conn,
		recorder: recorder,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
	c.subscribe = c.consume
	if conn != nil {
		c.reconnected = conn.NotifyReconnect()
	}
	return c
}

// Start subscribes to the attempts queue and begins consuming
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	msgs, err := c.subscribe()
	if err != nil {
		return err
	}

	slog.Info("starting attempt consumer", "workers", c.workers, "prefetch", c.prefetch)

	c.wg.Add(1)
	go c.run(ctx, msgs)
	return nil
}

// consume opens a delivery channel on the connection's current channel
func (c *Consumer) consume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNotConnected
	}

	if err := ch.Qos(c.prefetch*c.workers, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		AttemptQueueName,
		"",    // consumer tag (auto-generated)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return msgs, nil
}

// run feeds the workers from msgs. When msgs closes it waits for the
// connection to come back and subscribes again, until ctx is done.
func (c *Consumer) run(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		var workers sync.WaitGroup
		for i := range c.workers {
			workers.Add(1)
			go func() {
				defer workers.Done()
				c.worker(ctx, i, msgs)
			}()
		}
		workers.Wait()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.reconnected:
			}

			var err error
			msgs, err = c.subscribe()
			if err == nil {
				slog.Info("attempt consumer resubscribed")
				break
			}
			slog.Warn("attempt consumer resubscribe failed", "error", err)
		}
	}
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("attempt worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("attempt channel closed", "worker_id", id)
				return
			}
			c.handle(ctx, id, msg, msg.Body, msg.Redelivered)
		}
	}
}

// handle records one message. Malformed bodies are dropped; store failures
// are requeued once and then dropped.
func (c *Consumer) handle(ctx context.Context, workerID int, d Delivery, body []byte, redelivered bool) {
	var msg AttemptMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		slog.Error("failed to unmarshal attempt", "worker_id", workerID, "error", err)
		_ = d.Reject(false)
		return
	}

	recordCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.recorder.Record(recordCtx, &msg.Attempt); err != nil {
		slog.Error("failed to record attempt",
			"worker_id", workerID,
			"attempt_id", msg.Attempt.ID,
			"redelivered", redelivered,
			"error", err,
		)
		_ = d.Nack(false, !redelivered)
		return
	}

	if err := d.Ack(false); err != nil {
		slog.Error("failed to ack attempt", "worker_id", workerID, "attempt_id", msg.Attempt.ID, "error", err)
		return
	}
	slog.Debug("recorded attempt", "worker_id", workerID, "attempt_id", msg.Attempt.ID)
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("attempt consumer stopped")
}
