package daemon

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/evaluator"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
	"github.com/felixgeelhaar/promptcraft/internal/practice"
	"github.com/felixgeelhaar/promptcraft/internal/progress"
)

var errNotImplemented = errors.New("mock: not implemented")

// mockSessionService implements SessionService for testing
type mockSessionService struct {
	createFn func(ctx context.Context, req practice.CreateRequest) (*practice.Session, error)
	getFn    func(ctx context.Context, id string) (*practice.Session, error)
	submitFn func(ctx context.Context, id string) (*practice.Session, *practice.SubmitResult, error)
	nextFn   func(ctx context.Context, id string) (*practice.Session, error)
	expired  int
}

func (m *mockSessionService) Create(ctx context.Context, req practice.CreateRequest) (*practice.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*practice.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockSessionService) List(ctx context.Context, learnerID string) []*practice.Session {
	return nil
}

func (m *mockSessionService) Count() (active, completed int) {
	return 0, 0
}

func (m *mockSessionService) Delete(ctx context.Context, id string) error {
	return errNotImplemented
}

func (m *mockSessionService) UpdateAnswer(ctx context.Context, id, answer string) (*practice.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionService) Submit(ctx context.Context, id string) (*practice.Session, *practice.SubmitResult, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, id)
	}
	return nil, nil, errNotImplemented
}

func (m *mockSessionService) ShowHint(ctx context.Context, id string) (*practice.Session, string, error) {
	return nil, "", errNotImplemented
}

func (m *mockSessionService) Next(ctx context.Context, id string) (*practice.Session, error) {
	if m.nextFn != nil {
		return m.nextFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockSessionService) Prev(ctx context.Context, id string) (*practice.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionService) Reset(ctx context.Context, id string) (*practice.Session, error) {
	return nil, errNotImplemented
}

func (m *mockSessionService) ExpireIdle(ttl time.Duration) int {
	m.expired++
	return 0
}

// mockProgressService implements ProgressService for testing
type mockProgressService struct {
	getFn      func(ctx context.Context, learnerID string) (*progress.Summary, error)
	learnersFn func(ctx context.Context) ([]string, error)
}

func (m *mockProgressService) Get(ctx context.Context, learnerID string) (*progress.Summary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, learnerID)
	}
	return nil, errNotImplemented
}

func (m *mockProgressService) CompleteModule(ctx context.Context, learnerID string, id domain.ModuleID, elapsed time.Duration) (*progress.Summary, error) {
	return nil, errNotImplemented
}

func (m *mockProgressService) SetCurrent(ctx context.Context, learnerID string, id domain.ModuleID) (*progress.Summary, error) {
	return nil, errNotImplemented
}

func (m *mockProgressService) RecordQuiz(ctx context.Context, learnerID, quizID string, correct, total int) (*progress.QuizResult, error) {
	return nil, errNotImplemented
}

func (m *mockProgressService) Reset(ctx context.Context, learnerID string) error {
	return errNotImplemented
}

func (m *mockProgressService) Learners(ctx context.Context) ([]string, error) {
	if m.learnersFn != nil {
		return m.learnersFn(ctx)
	}
	return nil, errNotImplemented
}

// newServerWithMocks builds a server without storage around the given services
func newServerWithMocks(t *testing.T, sessions SessionService, prog ProgressService) *Server {
	t.Helper()

	catalog, err := exercise.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	s := &Server{
		cfg:       config.DefaultLocalConfig(),
		router:    http.NewServeMux(),
		version:   "test",
		started:   time.Now(),
		catalog:   catalog,
		evaluator: evaluator.New(catalog, evaluator.DefaultConfig()),
		sessions:  sessions,
		progress:  prog,
		stop:      make(chan struct{}),
	}
	s.setupRoutes()
	return s
}
