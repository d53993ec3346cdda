package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/storage/local"
)

const collectionProgress = "progress"

// Summary is a learner's progress with its derived views
type Summary struct {
	Progress *domain.CourseProgress `json:"progress"`
	Percent  int                    `json:"percent"`
	Modules  []ModuleView           `json:"modules"`
	Earned   []domain.Badge         `json:"earned,omitempty"`
}

// QuizResult is returned after recording a quiz
type QuizResult struct {
	Summary
	QuizID     string `json:"quiz_id"`
	Percentage int    `json:"percentage"`
	Rating     string `json:"rating"`
}

// Service persists course progress per learner
type Service struct {
	store   *local.Store
	tracker *Tracker
	events  domain.EventPublisher // Optional

	mu sync.Mutex // serializes read-modify-write cycles
}

// NewService creates a new progress service
func NewService(store *local.Store, tracker *Tracker) *Service {
	return &Service{store: store, tracker: tracker}
}

// SetEventPublisher sets the destination for progress events
func (s *Service) SetEventPublisher(p domain.EventPublisher) {
	s.events = p
}

// Tracker returns the transition rules in use
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Get returns a learner's progress. A learner with no record starts at module 1.
func (s *Service) Get(ctx context.Context, learnerID string) (*Summary, error) {
	p, err := s.load(learnerID)
	if err != nil {
		return nil, err
	}
	return s.summarize(p, nil), nil
}

// CompleteModule marks a module completed for the learner
func (s *Service) CompleteModule(ctx context.Context, learnerID string, id domain.ModuleID, elapsed time.Duration) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(learnerID)
	if err != nil {
		return nil, err
	}

	next, earned, err := s.tracker.CompleteModule(p, id, elapsed)
	if err != nil {
		return nil, err
	}
	if err := s.save(next); err != nil {
		return nil, err
	}

	s.publish(domain.NewModuleCompletedEvent(learnerID, id, next.CurrentModule))
	s.publishBadges(learnerID, earned)

	return s.summarize(next, earned), nil
}

// SetCurrent moves the learner to another module
func (s *Service) SetCurrent(ctx context.Context, learnerID string, id domain.ModuleID) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(learnerID)
	if err != nil {
		return nil, err
	}
	next, err := s.tracker.SetCurrent(p, id)
	if err != nil {
		return nil, err
	}
	if err := s.save(next); err != nil {
		return nil, err
	}
	return s.summarize(next, nil), nil
}

// RecordQuiz stores a quiz result for the learner
func (s *Service) RecordQuiz(ctx context.Context, learnerID, quizID string, correct, total int) (*QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(learnerID)
	if err != nil {
		return nil, err
	}

	next, pct, earned, err := s.tracker.RecordQuiz(p, quizID, correct, total)
	if err != nil {
		return nil, err
	}
	if err := s.save(next); err != nil {
		return nil, err
	}

	s.publish(domain.NewQuizRecordedEvent(learnerID, quizID, pct))
	s.publishBadges(learnerID, earned)

	return &QuizResult{
		Summary:    *s.summarize(next, earned),
		QuizID:     quizID,
		Percentage: pct,
		Rating:     QuizRating(pct),
	}, nil
}

// Reset discards a learner's progress
func (s *Service) Reset(ctx context.Context, learnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(collectionProgress, learnerID); err != nil && !errors.Is(err, local.ErrNotFound) {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// Learners returns the IDs of every learner with stored progress
func (s *Service) Learners(ctx context.Context) ([]string, error) {
	return s.store.List(collectionProgress)
}

func (s *Service) load(learnerID string) (*domain.CourseProgress, error) {
	var p domain.CourseProgress
	err := s.store.Load(collectionProgress, learnerID, &p)
	switch {
	case errors.Is(err, local.ErrNotFound):
		return domain.NewCourseProgress(learnerID), nil
	case errors.Is(err, local.ErrInvalidID):
		return nil, fmt.Errorf("%w: learner %q", domain.ErrInvalidInput, learnerID)
	case err != nil:
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return p.Clone(), nil
}

func (s *Service) save(p *domain.CourseProgress) error {
	if err := s.store.Save(collectionProgress, p.LearnerID, p); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *Service) summarize(p *domain.CourseProgress, earned []domain.Badge) *Summary {
	return &Summary{
		Progress: p,
		Percent:  s.tracker.Percent(p),
		Modules:  s.tracker.Overview(p),
		Earned:   earned,
	}
}

func (s *Service) publishBadges(learnerID string, earned []domain.Badge) {
	for _, b := range earned {
		s.publish(domain.NewBadgeEarnedEvent(learnerID, b.Name))
	}
}

func (s *Service) publish(e domain.Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}
