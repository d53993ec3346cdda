package practice

import (
	"maps"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/evaluator"
	"github.com/google/uuid"
)

// MinSubmitLength is the shortest answer, in UTF-16 code units, that may be
// submitted for checking
const MinSubmitLength = 10

// Status represents the session state
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is one learner's pass through a single (module, type) exercise
type Session struct {
	domain.AggregateRoot `json:"-"`

	ID         string              `json:"id"`
	LearnerID  string              `json:"learner_id"`
	ModuleID   domain.ModuleID     `json:"module_id"`
	Type       domain.ExerciseType `json:"type"`
	TotalSteps int                 `json:"total_steps"`
	Status     Status              `json:"status"`

	CurrentStep int              `json:"current_step"`
	Answers     domain.AnswerSet `json:"answers"`
	StepScores  map[int]float64  `json:"step_scores"`
	Feedback    string           `json:"feedback,omitempty"`
	HintShown   bool             `json:"hint_shown"`
	FinalScore  int              `json:"final_score"`
	Rating      string           `json:"rating,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SubmitResult is the outcome of checking the current step
type SubmitResult struct {
	StepIndex int     `json:"step_index"`
	Valid     bool    `json:"valid"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
}

// NewSession creates a session positioned on the first step
func NewSession(learnerID string, ex *domain.Exercise) *Session {
	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		LearnerID:  learnerID,
		ModuleID:   ex.ModuleID,
		Type:       ex.Type,
		TotalSteps: len(ex.Steps),
		Status:     StatusActive,
		Answers:    make(domain.AnswerSet),
		StepScores: make(map[int]float64),
		StartedAt:  now,
		UpdatedAt:  now,
	}
	s.RecordEvent(domain.NewPracticeStartedEvent(uuid.MustParse(s.ID), learnerID, ex.ModuleID, ex.Type))
	return s
}

// IsComplete reports whether the last step has been passed
func (s *Session) IsComplete() bool {
	return s.Status == StatusCompleted
}

// CurrentAnswer returns the answer for the current step, or ""
func (s *Session) CurrentAnswer() string {
	return s.Answers[s.CurrentStep]
}

// UpdateAnswer replaces the answer for the current step
func (s *Session) UpdateAnswer(answer string) error {
	if s.IsComplete() {
		return domain.ErrSessionComplete
	}
	s.Answers[s.CurrentStep] = answer
	s.touch()
	return nil
}

// Submit checks the current answer, storing its feedback and step score
func (s *Session) Submit(ev *evaluator.Evaluator) (*SubmitResult, error) {
	if s.IsComplete() {
		return nil, domain.ErrSessionComplete
	}

	answer := s.CurrentAnswer()
	if evaluator.TextLength(answer) < MinSubmitLength {
		return nil, domain.ErrAnswerTooShort
	}

	report := ev.EvaluateStep(s.ModuleID, s.Type, s.CurrentStep, answer)
	s.StepScores[s.CurrentStep] = report.Score
	s.Feedback = report.Feedback
	s.touch()

	s.RecordEvent(domain.NewStepSubmittedEvent(uuid.MustParse(s.ID), s.LearnerID, s.CurrentStep, report.Valid, report.Score))

	return &SubmitResult{
		StepIndex: s.CurrentStep,
		Valid:     report.Valid,
		Score:     report.Score,
		Feedback:  report.Feedback,
	}, nil
}

// ShowHint reveals the current step's hint
func (s *Session) ShowHint(ev *evaluator.Evaluator) (string, error) {
	if s.IsComplete() {
		return "", domain.ErrSessionComplete
	}
	step, ok := ev.Catalog().Step(s.ModuleID, s.Type, s.CurrentStep)
	if !ok {
		return "", domain.ErrStepNotFound
	}
	s.HintShown = true
	s.touch()
	return step.Hint, nil
}

// Next advances one step. Passing the last step completes the session and
// computes the final score over every answer given.
func (s *Session) Next(ev *evaluator.Evaluator) error {
	if s.IsComplete() {
		return domain.ErrSessionComplete
	}
	if s.Feedback == "" {
		return domain.ErrNotSubmitted
	}

	if s.CurrentStep < s.TotalSteps-1 {
		s.CurrentStep++
		s.clearStepView()
		s.touch()
		return nil
	}

	now := time.Now()
	s.FinalScore = ev.Score(s.ModuleID, s.Type, s.Answers)
	s.Rating = ev.Rating(s.FinalScore)
	s.Status = StatusCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now

	s.RecordEvent(domain.NewAttemptCompletedEvent(s.Attempt(ev)))
	return nil
}

// Prev moves back one step. On the first step it does nothing.
func (s *Session) Prev() error {
	if s.IsComplete() {
		return domain.ErrSessionComplete
	}
	if s.CurrentStep > 0 {
		s.CurrentStep--
		s.clearStepView()
		s.touch()
	}
	return nil
}

// Reset discards all answers and scores and returns to the first step
func (s *Session) Reset() {
	s.CurrentStep = 0
	s.Answers = make(domain.AnswerSet)
	s.StepScores = make(map[int]float64)
	s.FinalScore = 0
	s.Rating = ""
	s.Status = StatusActive
	s.CompletedAt = nil
	s.clearStepView()
	s.touch()
}

// Attempt summarizes the session as a history record
func (s *Session) Attempt(ev *evaluator.Evaluator) *domain.Attempt {
	a := domain.NewAttempt(s.ID, s.LearnerID, s.ModuleID, s.Type)
	a.Score = s.FinalScore
	a.StepScores = maps.Clone(s.StepScores)
	a.TotalSteps = s.TotalSteps
	a.StartedAt = s.StartedAt
	if s.CompletedAt != nil {
		a.CompletedAt = *s.CompletedAt
	}
	for i := 0; i < s.TotalSteps; i++ {
		if ev.Validate(s.ModuleID, s.Type, i, s.Answers[i]) {
			a.ValidSteps++
		}
	}
	return a
}

// Clone returns a copy that shares no maps with s and carries no pending events
func (s *Session) Clone() *Session {
	c := &Session{
		ID:          s.ID,
		LearnerID:   s.LearnerID,
		ModuleID:    s.ModuleID,
		Type:        s.Type,
		TotalSteps:  s.TotalSteps,
		Status:      s.Status,
		CurrentStep: s.CurrentStep,
		Answers:     maps.Clone(s.Answers),
		StepScores:  maps.Clone(s.StepScores),
		Feedback:    s.Feedback,
		HintShown:   s.HintShown,
		FinalScore:  s.FinalScore,
		Rating:      s.Rating,
		StartedAt:   s.StartedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

func (s *Session) clearStepView() {
	s.Feedback = ""
	s.HintShown = false
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
