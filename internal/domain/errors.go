package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors are used by the catalog, stores and transports. Evaluation
// itself never fails: lookups that miss fall back to neutral values.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrStepNotFound        = errors.New("step not found")
	ErrModuleNotFound      = errors.New("module not found")
	ErrInvalidExerciseType = errors.New("invalid exercise type")
	ErrInvalidDifficulty   = errors.New("invalid difficulty")
	ErrInvalidRule         = errors.New("invalid validation rule")
	ErrEmptyExercise       = errors.New("exercise has no steps")
)

// Practice session errors
var (
	ErrSessionNotFound = errors.New("practice session not found")
	ErrSessionComplete = errors.New("practice session already complete")
	ErrAnswerTooShort  = errors.New("answer too short to submit")
	ErrNotSubmitted    = errors.New("current step has not been submitted")
)

// Progress errors
var (
	ErrInvalidQuiz = errors.New("invalid quiz result")
)

// History errors
var (
	ErrAttemptNotFound = errors.New("attempt not found")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
