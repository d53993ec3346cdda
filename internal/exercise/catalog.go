package exercise

import (
	"fmt"
	"slices"
	"sync"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

// Catalog is the read-only table of practice exercises, keyed by module and
// exercise type. It is built once and never mutated, so concurrent reads
// need no locking. Returned exercises must be treated as read-only.
type Catalog struct {
	exercises map[domain.ModuleID]map[domain.ExerciseType]*domain.Exercise
	modules   []domain.ModuleID
}

// NewCatalog validates the exercises and builds a catalog from them
func NewCatalog(exercises ...*domain.Exercise) (*Catalog, error) {
	c := &Catalog{
		exercises: make(map[domain.ModuleID]map[domain.ExerciseType]*domain.Exercise),
	}

	for _, ex := range exercises {
		if err := validateExercise(ex); err != nil {
			return nil, fmt.Errorf("exercise %s: %w", ex.Key(), err)
		}

		byType, ok := c.exercises[ex.ModuleID]
		if !ok {
			byType = make(map[domain.ExerciseType]*domain.Exercise)
			c.exercises[ex.ModuleID] = byType
			c.modules = append(c.modules, ex.ModuleID)
		}
		if _, dup := byType[ex.Type]; dup {
			return nil, fmt.Errorf("exercise %s: defined twice", ex.Key())
		}
		byType[ex.Type] = cloneExercise(ex)
	}

	slices.Sort(c.modules)
	return c, nil
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return NewEmbeddedLoader().LoadCatalog()
})

// Default returns the catalog shipped with the binary
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Load returns the catalog in dir, or the shipped catalog when dir is empty
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		return Default()
	}
	catalog, err := NewLoader(dir).LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", dir, err)
	}
	return catalog, nil
}

// Exercise returns the exercise for a module and type
func (c *Catalog) Exercise(module domain.ModuleID, t domain.ExerciseType) (*domain.Exercise, bool) {
	byType, ok := c.exercises[module]
	if !ok {
		return nil, false
	}
	ex, ok := byType[t]
	return ex, ok
}

// Get is Exercise with a domain error for callers that report failures
func (c *Catalog) Get(module domain.ModuleID, t domain.ExerciseType) (*domain.Exercise, error) {
	ex, ok := c.Exercise(module, t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, domain.ExerciseKey(module, t))
	}
	return ex, nil
}

// Step resolves a single step
func (c *Catalog) Step(module domain.ModuleID, t domain.ExerciseType, index int) (*domain.Step, bool) {
	ex, ok := c.Exercise(module, t)
	if !ok {
		return nil, false
	}
	return ex.Step(index)
}

// Modules returns the module IDs in ascending order
func (c *Catalog) Modules() []domain.ModuleID {
	return slices.Clone(c.modules)
}

// ModuleCount returns how many modules have at least one exercise
func (c *Catalog) ModuleCount() int {
	return len(c.modules)
}

// List returns all exercises ordered by module, guided before challenge
func (c *Catalog) List() []*domain.Exercise {
	var out []*domain.Exercise
	for _, m := range c.modules {
		out = append(out, c.ListModule(m)...)
	}
	return out
}

// ListModule returns the exercises of one module
func (c *Catalog) ListModule(module domain.ModuleID) []*domain.Exercise {
	byType := c.exercises[module]
	out := make([]*domain.Exercise, 0, len(byType))
	for _, t := range domain.ExerciseTypes {
		if ex, ok := byType[t]; ok {
			out = append(out, ex)
		}
	}
	return out
}

// ByDifficulty returns exercises filtered by difficulty
func (c *Catalog) ByDifficulty(difficulty domain.Difficulty) []*domain.Exercise {
	var out []*domain.Exercise
	for _, ex := range c.List() {
		if ex.Difficulty == difficulty {
			out = append(out, ex)
		}
	}
	return out
}

// Stats returns statistics about the catalog
func (c *Catalog) Stats() CatalogStats {
	stats := CatalogStats{
		ModuleCount:  len(c.modules),
		ByDifficulty: make(map[string]int),
	}
	for _, ex := range c.List() {
		stats.ExerciseCount++
		stats.StepCount += len(ex.Steps)
		stats.ByDifficulty[string(ex.Difficulty)]++
	}
	return stats
}

// CatalogStats holds statistics about the catalog
type CatalogStats struct {
	ModuleCount   int            `json:"module_count"`
	ExerciseCount int            `json:"exercise_count"`
	StepCount     int            `json:"step_count"`
	ByDifficulty  map[string]int `json:"by_difficulty"`
}

func validateExercise(ex *domain.Exercise) error {
	if ex.ModuleID < 1 {
		return fmt.Errorf("%w: module %d", domain.ErrModuleNotFound, ex.ModuleID)
	}
	if !ex.Type.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidExerciseType, ex.Type)
	}
	if !ex.Difficulty.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, ex.Difficulty)
	}
	if len(ex.Steps) == 0 {
		return domain.ErrEmptyExercise
	}
	for i, step := range ex.Steps {
		if step.Rule == nil {
			continue
		}
		if err := step.Rule.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func cloneExercise(ex *domain.Exercise) *domain.Exercise {
	c := *ex
	c.Steps = make([]domain.Step, len(ex.Steps))
	for i, s := range ex.Steps {
		if s.Rule != nil {
			r := *s.Rule
			r.Keywords = slices.Clone(s.Rule.Keywords)
			s.Rule = &r
		}
		c.Steps[i] = s
	}
	return &c
}
