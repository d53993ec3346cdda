// Package queue publishes finished practice attempts and domain events to
// RabbitMQ, and consumes attempts back into a history store.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names
const (
	AttemptQueueName = "promptcraft.attempts"
	EventQueueName   = "promptcraft.events"
)

// ErrNotConnected is returned when publishing without an open channel
var ErrNotConnected = errors.New("not connected to RabbitMQ")

// AttemptMessage carries one finished attempt
type AttemptMessage struct {
	MessageID   uuid.UUID      `json:"message_id"`
	Attempt     domain.Attempt `json:"attempt"`
	PublishedAt time.Time      `json:"published_at"`
}

// EventMessage is the envelope for any domain event
type EventMessage struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// NewEventMessage wraps a domain event in an envelope
func NewEventMessage(e domain.Event) (*EventMessage, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.EventType(), err)
	}
	return &EventMessage{
		ID:            e.EventID(),
		Type:          e.EventType(),
		AggregateType: e.AggregateType(),
		AggregateID:   e.AggregateID(),
		OccurredAt:    e.OccurredAt(),
		Data:          data,
	}, nil
}

// Connection manages the RabbitMQ connection with automatic reconnection
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
	listeners  []chan struct{}
}

// NewConnection dials RabbitMQ and declares the queues
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url}

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	c.conn, err = amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := c.declareQueues(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	go c.handleReconnect(c.conn)

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

func (c *Connection) declareQueues() error {
	// Attempts are history; they must survive a broker restart
	_, err := c.channel.QueueDeclare(
		AttemptQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare attempt queue: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		EventQueueName,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-message-ttl": int32(24 * time.Hour / time.Millisecond),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare event queue: %w", err)
	}

	return nil
}

// handleReconnect waits for conn to drop and redials with exponential backoff
func (c *Connection) handleReconnect(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || err == nil {
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	slog.Warn("RabbitMQ connection closed, attempting to reconnect",
		"error", err,
		"reconnects", c.Reconnects(),
	)

	for i := 0; i < 10; i++ {
		c.mu.Lock()
		c.reconnects++
		c.mu.Unlock()
		time.Sleep(reconnectBackoff(i))

		if err := c.connect(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", i+1)
			continue
		}

		slog.Info("reconnected to RabbitMQ", "attempts", i+1)
		c.notifyReconnected()
		return
	}

	slog.Error("failed to reconnect to RabbitMQ after 10 attempts")
}

// NotifyReconnect returns a channel that receives after each successful
// reconnect. Notifications do not queue up: a slow reader sees one.
func (c *Connection) NotifyReconnect() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.listeners = append(c.listeners, ch)
	c.mu.Unlock()
	return ch
}

func (c *Connection) notifyReconnected() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Reconnects returns how many reconnect attempts have been made
func (c *Connection) Reconnects() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnects
}

func reconnectBackoff(attempt int) time.Duration {
	backoff := time.Duration(1<<attempt) * time.Second
	if backoff > 30*time.Second || backoff <= 0 {
		backoff = 30 * time.Second
	}
	return backoff
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection and stops reconnecting
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected checks if the connection is active
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes a persistent JSON message to a queue
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return ErrNotConnected
	}

	return ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// sanitizeURL hides the password of an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if len(raw) > 20 {
			return raw[:20] + "..."
		}
		return raw
	}
	return u.Redacted()
}
