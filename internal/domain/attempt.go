package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Attempt records a finished practice exercise
type Attempt struct {
	ID          uuid.UUID       `json:"id"`
	SessionID   string          `json:"session_id"`
	LearnerID   string          `json:"learner_id"`
	ModuleID    ModuleID        `json:"module_id"`
	Type        ExerciseType    `json:"type"`
	Score       int             `json:"score"`
	StepScores  map[int]float64 `json:"step_scores"`
	ValidSteps  int             `json:"valid_steps"`
	TotalSteps  int             `json:"total_steps"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}

// NewAttempt creates an attempt with a fresh ID
func NewAttempt(sessionID, learnerID string, module ModuleID, t ExerciseType) *Attempt {
	return &Attempt{
		ID:          uuid.New(),
		SessionID:   sessionID,
		LearnerID:   learnerID,
		ModuleID:    module,
		Type:        t,
		StepScores:  make(map[int]float64),
		CompletedAt: time.Now(),
	}
}

// Duration returns how long the attempt took
func (a *Attempt) Duration() time.Duration {
	if a.StartedAt.IsZero() {
		return 0
	}
	return a.CompletedAt.Sub(a.StartedAt)
}

// ExerciseStats aggregates attempts for one exercise
type ExerciseStats struct {
	ModuleID     ModuleID     `json:"module_id"`
	Type         ExerciseType `json:"type"`
	Attempts     int          `json:"attempts"`
	AverageScore float64      `json:"average_score"`
	BestScore    int          `json:"best_score"`
}

// AttemptFilter narrows an attempt listing. Zero fields match everything.
type AttemptFilter struct {
	LearnerID string
	ModuleID  ModuleID
	Type      ExerciseType
	Limit     int
}

// AttemptRepository keeps the history of finished attempts
type AttemptRepository interface {
	Record(ctx context.Context, attempt *Attempt) error
	Get(ctx context.Context, id uuid.UUID) (*Attempt, error)
	List(ctx context.Context, filter AttemptFilter) ([]*Attempt, error)
	Stats(ctx context.Context) ([]ExerciseStats, error)
}
