package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() string
	// AggregateType returns the type of aggregate that produced this event
	AggregateType() string
}

// Event type names
const (
	EventPracticeStarted    = "practice.started"
	EventStepSubmitted      = "practice.step_submitted"
	EventAttemptCompleted   = "practice.completed"
	EventModuleCompleted    = "progress.module_completed"
	EventBadgeEarned        = "progress.badge_earned"
	EventQuizRecorded       = "progress.quiz_recorded"
	aggregatePractice       = "PracticeSession"
	aggregateCourseProgress = "CourseProgress"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateKey  string    `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, aggregateType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateKey:  aggregateID,
		AggregateName: aggregateType,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateKey }
func (e BaseEvent) AggregateType() string { return e.AggregateName }

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventPublisher is anything that accepts domain events
type EventPublisher interface {
	Publish(event Event)
}

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers[event.EventType()] {
		h(event)
	}
	for _, h := range d.allHandlers {
		h(event)
	}
}

// PublishAll dispatches multiple events
func (d *EventDispatcher) PublishAll(events []Event) {
	for _, event := range events {
		d.Publish(event)
	}
}

// -----------------------------------------------------------------------------
// Aggregate Root with Event Support
// -----------------------------------------------------------------------------

// AggregateRoot provides base functionality for aggregates with event recording
type AggregateRoot struct {
	events []Event
}

// RecordEvent adds an event to the aggregate's recorded events
func (a *AggregateRoot) RecordEvent(event Event) {
	a.events = append(a.events, event)
}

// RecordedEvents returns all recorded events
func (a *AggregateRoot) RecordedEvents() []Event {
	return a.events
}

// ClearEvents clears recorded events
func (a *AggregateRoot) ClearEvents() {
	a.events = nil
}

// -----------------------------------------------------------------------------
// Practice Events
// -----------------------------------------------------------------------------

// PracticeStartedEvent is published when a learner opens a practice exercise
type PracticeStartedEvent struct {
	BaseEvent
	LearnerID string       `json:"learner_id"`
	ModuleID  ModuleID     `json:"module_id"`
	Type      ExerciseType `json:"exercise_type"`
}

// NewPracticeStartedEvent creates a new practice started event
func NewPracticeStartedEvent(sessionID uuid.UUID, learnerID string, module ModuleID, t ExerciseType) PracticeStartedEvent {
	return PracticeStartedEvent{
		BaseEvent: NewBaseEvent(EventPracticeStarted, aggregatePractice, sessionID.String()),
		LearnerID: learnerID,
		ModuleID:  module,
		Type:      t,
	}
}

// StepSubmittedEvent is published each time a step answer is checked
type StepSubmittedEvent struct {
	BaseEvent
	LearnerID string  `json:"learner_id"`
	StepIndex int     `json:"step_index"`
	Valid     bool    `json:"valid"`
	Score     float64 `json:"score"`
}

// NewStepSubmittedEvent creates a new step submitted event
func NewStepSubmittedEvent(sessionID uuid.UUID, learnerID string, stepIndex int, valid bool, score float64) StepSubmittedEvent {
	return StepSubmittedEvent{
		BaseEvent: NewBaseEvent(EventStepSubmitted, aggregatePractice, sessionID.String()),
		LearnerID: learnerID,
		StepIndex: stepIndex,
		Valid:     valid,
		Score:     score,
	}
}

// AttemptCompletedEvent is published when the last step of an exercise is submitted
type AttemptCompletedEvent struct {
	BaseEvent
	Attempt Attempt `json:"attempt"`
}

// NewAttemptCompletedEvent creates a new attempt completed event
func NewAttemptCompletedEvent(attempt *Attempt) AttemptCompletedEvent {
	return AttemptCompletedEvent{
		BaseEvent: NewBaseEvent(EventAttemptCompleted, aggregatePractice, attempt.SessionID),
		Attempt:   *attempt,
	}
}

// -----------------------------------------------------------------------------
// Progress Events
// -----------------------------------------------------------------------------

// ModuleCompletedEvent is published when a learner finishes a course module
type ModuleCompletedEvent struct {
	BaseEvent
	ModuleID ModuleID `json:"module_id"`
	Next     ModuleID `json:"next_module"`
}

// NewModuleCompletedEvent creates a new module completed event
func NewModuleCompletedEvent(learnerID string, module, next ModuleID) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent: NewBaseEvent(EventModuleCompleted, aggregateCourseProgress, learnerID),
		ModuleID:  module,
		Next:      next,
	}
}

// BadgeEarnedEvent is published when a learner earns a badge
type BadgeEarnedEvent struct {
	BaseEvent
	Badge string `json:"badge"`
}

// NewBadgeEarnedEvent creates a new badge earned event
func NewBadgeEarnedEvent(learnerID, badge string) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent: NewBaseEvent(EventBadgeEarned, aggregateCourseProgress, learnerID),
		Badge:     badge,
	}
}

// QuizRecordedEvent is published when a module quiz result is stored
type QuizRecordedEvent struct {
	BaseEvent
	QuizID     string `json:"quiz_id"`
	Percentage int    `json:"percentage"`
}

// NewQuizRecordedEvent creates a new quiz recorded event
func NewQuizRecordedEvent(learnerID, quizID string, percentage int) QuizRecordedEvent {
	return QuizRecordedEvent{
		BaseEvent:  NewBaseEvent(EventQuizRecorded, aggregateCourseProgress, learnerID),
		QuizID:     quizID,
		Percentage: percentage,
	}
}
