// Package evaluator scores free-text practice answers against the exercise
// catalog. Every operation is a pure function of the catalog, the config and
// its arguments: unresolvable lookups fail closed instead of returning errors.
package evaluator

import (
	"math"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
)

// stepPoints is the score of a step answered validly
const stepPoints = 100

// Evaluator validates, scores and gives feedback on practice answers
type Evaluator struct {
	catalog  *exercise.Catalog
	cfg      Config
	messages *Messages
}

// New creates an evaluator over a catalog
func New(catalog *exercise.Catalog, cfg Config) *Evaluator {
	return &Evaluator{
		catalog:  catalog,
		cfg:      cfg.withDefaults(),
		messages: DefaultMessages(),
	}
}

// Catalog returns the catalog the evaluator reads from
func (e *Evaluator) Catalog() *exercise.Catalog {
	return e.catalog
}

// Config returns the effective thresholds
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Validate reports whether answer satisfies the step's rule. Unknown modules,
// exercise types or step indexes return false.
func (e *Evaluator) Validate(module domain.ModuleID, t domain.ExerciseType, stepIndex int, answer string) bool {
	step, ok := e.catalog.Step(module, t, stepIndex)
	if !ok {
		return false
	}
	return e.matches(step.Rule, answer)
}

// Score returns the whole-exercise percentage in [0,100]. Each step earns 100
// points when valid, min(PartialCreditCap, len(answer)) when invalid, and 0
// when unanswered. An unknown exercise scores 0.
func (e *Evaluator) Score(module domain.ModuleID, t domain.ExerciseType, answers domain.AnswerSet) int {
	ex, ok := e.catalog.Exercise(module, t)
	if !ok || len(ex.Steps) == 0 {
		return 0
	}

	total := 0
	for i := range ex.Steps {
		total += e.points(module, t, i, answers[i])
	}

	maxScore := len(ex.Steps) * stepPoints
	return roundHalfUp(float64(total) / float64(maxScore) * 100)
}

// points is the contribution of one step to Score. A step that does not
// resolve earns nothing.
func (e *Evaluator) points(module domain.ModuleID, t domain.ExerciseType, stepIndex int, answer string) int {
	step, ok := e.catalog.Step(module, t, stepIndex)
	if !ok || answer == "" {
		return 0
	}
	if e.matches(step.Rule, answer) {
		return stepPoints
	}
	return min(e.cfg.PartialCreditCap, TextLength(answer))
}

// Feedback returns the canned feedback for an answer. The text depends only on
// whether the step resolves, the verdict, and the step's title and hint.
func (e *Evaluator) Feedback(module domain.ModuleID, t domain.ExerciseType, stepIndex int, answer string) string {
	step, ok := e.catalog.Step(module, t, stepIndex)
	if !ok {
		return e.messages.Unresolved()
	}
	if e.matches(step.Rule, answer) {
		return e.messages.Praise(step)
	}
	return e.messages.Improve(step)
}

// StepScore is the per-step score shown after a submit: 100 when valid,
// otherwise min(60, len/2) for answers longer than 20 characters. A step that
// does not resolve scores 0.
func (e *Evaluator) StepScore(module domain.ModuleID, t domain.ExerciseType, stepIndex int, answer string) float64 {
	step, ok := e.catalog.Step(module, t, stepIndex)
	if !ok {
		return 0
	}
	if e.matches(step.Rule, answer) {
		return stepPoints
	}
	if n := TextLength(answer); n > 20 {
		return math.Min(60, float64(n)/2)
	}
	return 0
}

// Rating maps a final score to its completion banner
func (e *Evaluator) Rating(score int) string {
	return e.messages.Rating(score)
}

// roundHalfUp matches the client's Math.round for non-negative values
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
