package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/google/uuid"
)

// JSONPublisher sends a JSON body to a named queue. *Connection implements it.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// PublisherConfig tunes publish retries
type PublisherConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// Timeout bounds a single event handed over by the dispatcher
	Timeout time.Duration
	// Buffer is how many events Handler holds while the broker is slow;
	// events past it are dropped
	Buffer int
	Logger *slog.Logger
}

// DefaultPublisherConfig returns sensible defaults
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		Timeout:      5 * time.Second,
		Buffer:       256,
	}
}

// Publisher publishes attempts and events, retrying transient failures
type Publisher struct {
	conn    JSONPublisher
	retrier retry.Retry[struct{}]
	breaker circuitbreaker.CircuitBreaker[struct{}]
	timeout time.Duration
	logger  *slog.Logger

	pending   chan domain.Event
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPublisher creates a publisher over conn
func NewPublisher(conn JSONPublisher, cfg PublisherConfig) *Publisher {
	def := DefaultPublisherConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		conn:    conn,
		timeout: cfg.Timeout,
		logger:  logger,
		pending: make(chan domain.Event, cfg.Buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	p.retrier = retry.New[struct{}](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      5 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
	})
	p.breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("publisher circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})
	return p
}

// PublishAttempt publishes a finished attempt to the attempts queue
func (p *Publisher) PublishAttempt(ctx context.Context, a *domain.Attempt) error {
	if a == nil {
		return fmt.Errorf("%w: nil attempt", domain.ErrInvalidInput)
	}
	msg := &AttemptMessage{
		MessageID:   uuid.New(),
		Attempt:     *a,
		PublishedAt: time.Now(),
	}

	if err := p.publish(ctx, AttemptQueueName, msg); err != nil {
		return fmt.Errorf("failed to publish attempt %s: %w", a.ID, err)
	}

	p.logger.Info("published attempt",
		"attempt_id", a.ID,
		"learner_id", a.LearnerID,
		"exercise", domain.ExerciseKey(a.ModuleID, a.Type),
		"score", a.Score,
	)
	return nil
}

// PublishEvent publishes a domain event envelope to the events queue
func (p *Publisher) PublishEvent(ctx context.Context, e domain.Event) error {
	msg, err := NewEventMessage(e)
	if err != nil {
		return err
	}
	if err := p.publish(ctx, EventQueueName, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", e.EventType(), err)
	}
	p.logger.Debug("published event", "event_id", msg.ID, "type", msg.Type)
	return nil
}

// Handler returns a dispatcher handler that queues every event for the
// events queue, and completed attempts for the attempts queue as well.
// Publishing happens on a background goroutine: the handler only enqueues,
// and drops the event with a warning when the buffer is full.
func (p *Publisher) Handler() domain.EventHandler {
	p.startOnce.Do(func() { go p.forward() })
	return func(e domain.Event) {
		select {
		case p.pending <- e:
		default:
			p.logger.Warn("event buffer full, event dropped", "type", e.EventType(), "aggregate_id", e.AggregateID())
		}
	}
}

// Close publishes the events already queued and stops the forwarding
// goroutine. Events handed over after Close are not published.
func (p *Publisher) Close() {
	// a publisher whose Handler was never used has nothing to drain
	p.startOnce.Do(func() { close(p.done) })
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *Publisher) forward() {
	defer close(p.done)
	for {
		select {
		case e := <-p.pending:
			p.deliver(e)
		case <-p.stop:
			for {
				select {
				case e := <-p.pending:
					p.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) deliver(e domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if completed, ok := e.(domain.AttemptCompletedEvent); ok {
		if err := p.PublishAttempt(ctx, &completed.Attempt); err != nil {
			p.logger.Warn("attempt not published", "session_id", completed.AggregateID(), "error", err)
		}
	}
	if err := p.PublishEvent(ctx, e); err != nil {
		p.logger.Warn("event not published", "type", e.EventType(), "error", err)
	}
}

func (p *Publisher) publish(ctx context.Context, queue string, msg any) error {
	_, err := p.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.conn.PublishJSON(ctx, queue, msg)
		})
	})
	return err
}
