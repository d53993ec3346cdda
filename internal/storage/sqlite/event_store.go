package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

// StoredEvent is a domain event as kept in the event log.
type StoredEvent struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Data          json.RawMessage `json:"data"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// EventQuery filters the event log. Zero fields match everything.
type EventQuery struct {
	EventType   string
	AggregateID string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// EventStore is an append-only log of domain events backed by SQLite.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new SQLite-backed event store.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Append stores a domain event.
func (s *EventStore) Append(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, event_type, aggregate_type, aggregate_id, data, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		e.EventID().String(), e.EventType(), e.AggregateType(), e.AggregateID(),
		string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *EventStore) Query(ctx context.Context, q EventQuery) ([]StoredEvent, error) {
	query := "SELECT id, event_type, aggregate_type, aggregate_id, data, occurred_at FROM events"

	var where []string
	var args []any
	if q.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, q.EventType)
	}
	if q.AggregateID != "" {
		where = append(where, "aggregate_id = ?")
		args = append(args, q.AggregateID)
	}
	if !q.Since.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, q.Since.UTC())
	}
	if !q.Until.IsZero() {
		where = append(where, "occurred_at <= ?")
		args = append(args, q.Until.UTC())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []StoredEvent{}
	for rows.Next() {
		var e StoredEvent
		var data string
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateType, &e.AggregateID, &data, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Data = json.RawMessage(data)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of events of the given type.
func (s *EventStore) Count(ctx context.Context, eventType string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE event_type = ?", eventType,
	).Scan(&count)
	return count, err
}

// Prune deletes events older than the given duration.
func (s *EventStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE occurred_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}

// Handler returns a domain.EventHandler that appends every event it sees.
// Append failures are passed to onError.
func (s *EventStore) Handler(onError func(domain.Event, error)) domain.EventHandler {
	return func(e domain.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Append(ctx, e); err != nil && onError != nil {
			onError(e, err)
		}
	}
}
