package daemon

import (
	"context"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/practice"
	"github.com/felixgeelhaar/promptcraft/internal/progress"
	"github.com/felixgeelhaar/promptcraft/internal/storage/sqlite"
)

// SessionService is the practice session API the handlers depend on
type SessionService interface {
	Create(ctx context.Context, req practice.CreateRequest) (*practice.Session, error)
	Get(ctx context.Context, id string) (*practice.Session, error)
	List(ctx context.Context, learnerID string) []*practice.Session
	Count() (active, completed int)
	Delete(ctx context.Context, id string) error
	UpdateAnswer(ctx context.Context, id, answer string) (*practice.Session, error)
	Submit(ctx context.Context, id string) (*practice.Session, *practice.SubmitResult, error)
	ShowHint(ctx context.Context, id string) (*practice.Session, string, error)
	Next(ctx context.Context, id string) (*practice.Session, error)
	Prev(ctx context.Context, id string) (*practice.Session, error)
	Reset(ctx context.Context, id string) (*practice.Session, error)
	ExpireIdle(ttl time.Duration) int
}

// ProgressService is the course progress API the handlers depend on
type ProgressService interface {
	Get(ctx context.Context, learnerID string) (*progress.Summary, error)
	CompleteModule(ctx context.Context, learnerID string, id domain.ModuleID, elapsed time.Duration) (*progress.Summary, error)
	SetCurrent(ctx context.Context, learnerID string, id domain.ModuleID) (*progress.Summary, error)
	RecordQuiz(ctx context.Context, learnerID, quizID string, correct, total int) (*progress.QuizResult, error)
	Reset(ctx context.Context, learnerID string) error
	Learners(ctx context.Context) ([]string, error)
}

// EventLog answers analytics queries over recorded domain events
type EventLog interface {
	Query(ctx context.Context, q sqlite.EventQuery) ([]sqlite.StoredEvent, error)
}

// Pruner deletes records older than a retention window
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

var (
	_ SessionService  = (*practice.Service)(nil)
	_ ProgressService = (*progress.Service)(nil)
	_ EventLog        = (*sqlite.EventStore)(nil)
	_ Pruner          = (*sqlite.EventStore)(nil)
)
