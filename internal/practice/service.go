package practice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/evaluator"
)

// DefaultLearnerID is used when a session is created without a learner
const DefaultLearnerID = "anonymous"

// AttemptRecorder persists finished attempts
type AttemptRecorder interface {
	Record(ctx context.Context, attempt *domain.Attempt) error
}

// Service manages practice sessions
type Service struct {
	store     *Store
	evaluator *evaluator.Evaluator
	recorder  AttemptRecorder       // Optional: attempt history
	events    domain.EventPublisher // Optional: event fan-out
	logger    *slog.Logger
}

// NewService creates a new practice service
func NewService(store *Store, ev *evaluator.Evaluator) *Service {
	return &Service{
		store:     store,
		evaluator: ev,
		logger:    slog.Default(),
	}
}

// SetAttemptRecorder sets the store that keeps finished attempts
func (s *Service) SetAttemptRecorder(r AttemptRecorder) {
	s.recorder = r
}

// SetEventPublisher sets the destination for session events
func (s *Service) SetEventPublisher(p domain.EventPublisher) {
	s.events = p
}

// SetLogger replaces the service logger
func (s *Service) SetLogger(l *slog.Logger) {
	s.logger = l
}

// CreateRequest contains data for creating a session
type CreateRequest struct {
	LearnerID string              `json:"learner_id"`
	ModuleID  domain.ModuleID     `json:"module_id"`
	Type      domain.ExerciseType `json:"type"`
}

// Create starts a practice session on the first step of an exercise
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	ex, err := s.evaluator.Catalog().Get(req.ModuleID, req.Type)
	if err != nil {
		return nil, err
	}

	learner := req.LearnerID
	if learner == "" {
		learner = DefaultLearnerID
	}

	session := NewSession(learner, ex)
	events := session.RecordedEvents()
	session.ClearEvents()
	s.store.Save(session)

	s.publish(events)
	return session.Clone(), nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(id)
}

// List returns the sessions of one learner, or all sessions when learnerID is empty
func (s *Service) List(ctx context.Context, learnerID string) []*Session {
	return s.store.List(learnerID)
}

// Count returns active and completed session counts
func (s *Service) Count() (active, completed int) {
	return s.store.Count()
}

// ExpireIdle drops sessions idle for longer than ttl
func (s *Service) ExpireIdle(ttl time.Duration) int {
	n := s.store.Expire(time.Now().Add(-ttl))
	if n > 0 {
		s.logger.Info("expired idle practice sessions", "count", n, "ttl", ttl)
	}
	return n
}

// Delete abandons a session
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(id)
}

// UpdateAnswer replaces the answer for the current step
func (s *Service) UpdateAnswer(ctx context.Context, id, answer string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		return sess.UpdateAnswer(answer)
	})
}

// Submit checks the current step's answer
func (s *Service) Submit(ctx context.Context, id string) (*Session, *SubmitResult, error) {
	var result *SubmitResult
	session, err := s.update(ctx, id, func(sess *Session) error {
		r, err := sess.Submit(s.evaluator)
		result = r
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return session, result, nil
}

// ShowHint reveals the current step's hint
func (s *Service) ShowHint(ctx context.Context, id string) (*Session, string, error) {
	var hint string
	session, err := s.update(ctx, id, func(sess *Session) error {
		h, err := sess.ShowHint(s.evaluator)
		hint = h
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return session, hint, nil
}

// Next advances the session, completing it after the last step
func (s *Service) Next(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		return sess.Next(s.evaluator)
	})
}

// Prev moves the session back one step
func (s *Service) Prev(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		return sess.Prev()
	})
}

// Reset returns the session to an empty first step
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

func (s *Service) update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	session, events, err := s.store.Update(id, fn)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	for _, e := range events {
		if completed, ok := e.(domain.AttemptCompletedEvent); ok {
			s.record(ctx, &completed.Attempt)
		}
	}
	s.publish(events)

	return session, nil
}

// record stores a finished attempt. Failures are logged only; the learner's
// session result does not depend on history storage.
func (s *Service) record(ctx context.Context, attempt *domain.Attempt) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, attempt); err != nil {
		s.logger.Warn("failed to record attempt",
			"attempt_id", attempt.ID,
			"session_id", attempt.SessionID,
			"error", err,
		)
	}
}

func (s *Service) publish(events []domain.Event) {
	if s.events == nil {
		return
	}
	for _, e := range events {
		s.events.Publish(e)
	}
}
