package evaluator

import "github.com/felixgeelhaar/promptcraft/internal/domain"

// StepReport bundles everything the client shows after a submit
type StepReport struct {
	ModuleID  domain.ModuleID     `json:"module_id"`
	Type      domain.ExerciseType `json:"type"`
	StepIndex int                 `json:"step_index"`
	Found     bool                `json:"found"`
	Valid     bool                `json:"valid"`
	Score     float64             `json:"score"`
	Points    int                 `json:"points"`
	Feedback  string              `json:"feedback"`
}

// ExerciseReport summarizes a whole answer set
type ExerciseReport struct {
	ModuleID   domain.ModuleID     `json:"module_id"`
	Type       domain.ExerciseType `json:"type"`
	Found      bool                `json:"found"`
	Score      int                 `json:"score"`
	Rating     string              `json:"rating"`
	ValidSteps int                 `json:"valid_steps"`
	TotalSteps int                 `json:"total_steps"`
	Steps      []StepReport        `json:"steps"`
}

// EvaluateStep validates one answer and returns its feedback and scores
func (e *Evaluator) EvaluateStep(module domain.ModuleID, t domain.ExerciseType, stepIndex int, answer string) StepReport {
	_, found := e.catalog.Step(module, t, stepIndex)
	return StepReport{
		ModuleID:  module,
		Type:      t,
		StepIndex: stepIndex,
		Found:     found,
		Valid:     e.Validate(module, t, stepIndex, answer),
		Score:     e.StepScore(module, t, stepIndex, answer),
		Points:    e.points(module, t, stepIndex, answer),
		Feedback:  e.Feedback(module, t, stepIndex, answer),
	}
}

// EvaluateExercise scores an answer set and reports every step, answered or not
func (e *Evaluator) EvaluateExercise(module domain.ModuleID, t domain.ExerciseType, answers domain.AnswerSet) ExerciseReport {
	score := e.Score(module, t, answers)
	report := ExerciseReport{
		ModuleID: module,
		Type:     t,
		Score:    score,
		Rating:   e.Rating(score),
	}

	ex, ok := e.catalog.Exercise(module, t)
	if !ok {
		return report
	}

	report.Found = true
	report.TotalSteps = len(ex.Steps)
	report.Steps = make([]StepReport, len(ex.Steps))
	for i := range ex.Steps {
		step := e.EvaluateStep(module, t, i, answers[i])
		if step.Valid {
			report.ValidSteps++
		}
		report.Steps[i] = step
	}
	return report
}
