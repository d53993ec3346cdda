package practice

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

// Store holds live practice sessions in memory. Answers are never persisted;
// only finished attempts reach the history store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Save inserts or replaces a session
func (s *Store) Save(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get returns a copy of the session
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Update applies fn to the stored session under the write lock. It returns a
// copy of the result and the events fn recorded. The change is kept even
// when fn fails, since transitions validate before mutating.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, []domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	err := fn(session)
	events := session.RecordedEvents()
	session.ClearEvents()
	if err != nil {
		return nil, nil, err
	}
	return session.Clone(), events, nil
}

// Delete removes a session
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns copies of every session, optionally filtered by learner
func (s *Store) List(learnerID string) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, session := range s.sessions {
		if learnerID != "" && session.LearnerID != learnerID {
			continue
		}
		out = append(out, session.Clone())
	}
	return out
}

// Count returns the number of sessions, split into active and completed
func (s *Store) Count() (active, completed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.IsComplete() {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}

// Expire removes sessions not touched since before cutoff and returns how many
func (s *Store) Expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
