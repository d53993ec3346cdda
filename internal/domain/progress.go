package domain

import (
	"slices"
	"time"
)

// ModuleStatus describes how a module appears to a learner
type ModuleStatus string

const (
	ModuleCompleted ModuleStatus = "completed"
	ModuleCurrent   ModuleStatus = "current"
	ModuleAvailable ModuleStatus = "available"
	ModuleLocked    ModuleStatus = "locked"
)

// Badge is an achievement a learner can earn
type Badge struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Built-in badges
var (
	BadgeFirstSteps    = Badge{ID: "first-steps", Name: "First Steps", Description: "Completed first module"}
	BadgeQuickLearner  = Badge{ID: "quick-learner", Name: "Quick Learner", Description: "Completed module in under 30 minutes"}
	BadgePerfectionist = Badge{ID: "perfectionist", Name: "Perfectionist", Description: "Scored 100% on a quiz"}
	BadgePromptMaster  = Badge{ID: "master", Name: "Prompt Master", Description: "Completed entire course"}
)

// Badges lists every built-in badge
var Badges = []Badge{BadgeFirstSteps, BadgeQuickLearner, BadgePerfectionist, BadgePromptMaster}

// CourseProgress is the session-scoped course state of one learner.
// It is passed into and returned from the progress transitions; nothing
// holds it globally.
type CourseProgress struct {
	LearnerID     string         `json:"learner_id"`
	CurrentModule ModuleID       `json:"current_module"`
	Completed     []ModuleID     `json:"completed_modules"`
	Badges        []string       `json:"badges"`
	QuizScores    map[string]int `json:"quiz_scores,omitempty"`
	TimeSpent     time.Duration  `json:"time_spent"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewCourseProgress starts a learner at module 1 with nothing completed
func NewCourseProgress(learnerID string) *CourseProgress {
	return &CourseProgress{
		LearnerID:     learnerID,
		CurrentModule: 1,
		Completed:     []ModuleID{},
		Badges:        []string{},
		QuizScores:    make(map[string]int),
		UpdatedAt:     time.Now(),
	}
}

// IsCompleted reports whether the module has been completed
func (p *CourseProgress) IsCompleted(id ModuleID) bool {
	return slices.Contains(p.Completed, id)
}

// HasBadge reports whether the learner holds the named badge
func (p *CourseProgress) HasBadge(name string) bool {
	return slices.Contains(p.Badges, name)
}

// Clone returns a deep copy so transitions never alias the input
func (p *CourseProgress) Clone() *CourseProgress {
	c := *p
	c.Completed = slices.Clone(p.Completed)
	c.Badges = slices.Clone(p.Badges)
	c.QuizScores = make(map[string]int, len(p.QuizScores))
	for k, v := range p.QuizScores {
		c.QuizScores[k] = v
	}
	if c.Completed == nil {
		c.Completed = []ModuleID{}
	}
	if c.Badges == nil {
		c.Badges = []string{}
	}
	return &c
}
