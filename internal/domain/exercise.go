package domain

import "fmt"

// ModuleID identifies a course module
type ModuleID int

// ExerciseType selects the guided or challenge variant of a module's practice
type ExerciseType string

const (
	ExerciseGuided    ExerciseType = "guided"
	ExerciseChallenge ExerciseType = "challenge"
)

// ExerciseTypes lists the valid exercise types in display order
var ExerciseTypes = []ExerciseType{ExerciseGuided, ExerciseChallenge}

// Valid reports whether t is a known exercise type
func (t ExerciseType) Valid() bool {
	return t == ExerciseGuided || t == ExerciseChallenge
}

// ParseExerciseType converts a string into an ExerciseType
func ParseExerciseType(s string) (ExerciseType, error) {
	t := ExerciseType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidExerciseType, s)
	}
	return t, nil
}

// Difficulty represents exercise difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Valid reports whether d is a known difficulty
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Exercise is a named, ordered sequence of steps for one module
type Exercise struct {
	ModuleID    ModuleID     `json:"module_id"`
	Type        ExerciseType `json:"type"`
	Title       string       `json:"title"`
	Difficulty  Difficulty   `json:"difficulty"`
	Description string       `json:"description"`
	Steps       []Step       `json:"steps"`
}

// Step is one unit of an exercise. A nil Rule means the default heuristic applies.
type Step struct {
	Title       string `json:"title"`
	Instruction string `json:"instruction"`
	Scenario    string `json:"scenario"`
	Hint        string `json:"hint"`
	Rule        *Rule  `json:"rule,omitempty"`
}

// Key returns the "module/type" key of the exercise
func (e *Exercise) Key() string {
	return ExerciseKey(e.ModuleID, e.Type)
}

// Step returns the step at index, or false if the index is out of range
func (e *Exercise) Step(index int) (*Step, bool) {
	if index < 0 || index >= len(e.Steps) {
		return nil, false
	}
	return &e.Steps[index], true
}

// ExerciseKey formats the canonical "module/type" key
func ExerciseKey(module ModuleID, t ExerciseType) string {
	return fmt.Sprintf("%d/%s", module, t)
}

// AnswerSet maps step index to the learner's free-text answer.
// It is owned by the caller; evaluation only reads it.
type AnswerSet map[int]string
