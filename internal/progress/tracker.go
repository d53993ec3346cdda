// Package progress advances a learner through the course: module completion,
// badge awards, module status and quiz results. Tracker transitions are pure;
// Service adds persistence.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

// QuickLearnerLimit is the completion time under which a module earns Quick Learner
const QuickLearnerLimit = 30 * time.Minute

// Tracker applies progress transitions for a course of a fixed size
type Tracker struct {
	moduleCount int
}

// NewTracker creates a tracker for a course with moduleCount modules
func NewTracker(moduleCount int) *Tracker {
	return &Tracker{moduleCount: moduleCount}
}

// ModuleCount returns the number of modules in the course
func (t *Tracker) ModuleCount() int {
	return t.moduleCount
}

// ModuleView pairs a module with its status for one learner
type ModuleView struct {
	ModuleID domain.ModuleID     `json:"module_id"`
	Status   domain.ModuleStatus `json:"status"`
}

// CompleteModule marks a module completed and returns the new progress with
// any badges earned by this completion. elapsed is the time spent on the
// module; zero means unknown and never earns Quick Learner. The input is not
// modified.
func (t *Tracker) CompleteModule(p *domain.CourseProgress, id domain.ModuleID, elapsed time.Duration) (*domain.CourseProgress, []domain.Badge, error) {
	if err := t.checkModule(id); err != nil {
		return nil, nil, err
	}

	next := p.Clone()
	if !next.IsCompleted(id) {
		next.Completed = append(next.Completed, id)
	}
	if elapsed > 0 {
		next.TimeSpent += elapsed
	}

	var earned []domain.Badge
	award := func(b domain.Badge) {
		if !next.HasBadge(b.Name) {
			next.Badges = append(next.Badges, b.Name)
			earned = append(earned, b)
		}
	}

	if id == 1 {
		award(domain.BadgeFirstSteps)
	}
	if elapsed > 0 && elapsed < QuickLearnerLimit {
		award(domain.BadgeQuickLearner)
	}
	if len(next.Completed) == t.moduleCount {
		award(domain.BadgePromptMaster)
	}

	if int(id) < t.moduleCount {
		next.CurrentModule = id + 1
	}
	next.UpdatedAt = time.Now()

	return next, earned, nil
}

// Status reports how a module appears to the learner
func (t *Tracker) Status(p *domain.CourseProgress, id domain.ModuleID) domain.ModuleStatus {
	switch {
	case p.IsCompleted(id):
		return domain.ModuleCompleted
	case id == p.CurrentModule:
		return domain.ModuleCurrent
	case id < p.CurrentModule:
		return domain.ModuleAvailable
	default:
		return domain.ModuleLocked
	}
}

// Overview returns the status of every module in order
func (t *Tracker) Overview(p *domain.CourseProgress) []ModuleView {
	views := make([]ModuleView, t.moduleCount)
	for i := range views {
		id := domain.ModuleID(i + 1)
		views[i] = ModuleView{ModuleID: id, Status: t.Status(p, id)}
	}
	return views
}

// Percent returns overall course completion in [0,100]
func (t *Tracker) Percent(p *domain.CourseProgress) int {
	if t.moduleCount == 0 {
		return 0
	}
	return roundHalfUp(float64(len(p.Completed)) / float64(t.moduleCount) * 100)
}

// SetCurrent moves the learner to a module without completing anything
func (t *Tracker) SetCurrent(p *domain.CourseProgress, id domain.ModuleID) (*domain.CourseProgress, error) {
	if err := t.checkModule(id); err != nil {
		return nil, err
	}
	next := p.Clone()
	next.CurrentModule = id
	next.UpdatedAt = time.Now()
	return next, nil
}

// RecordQuiz stores a quiz result, keeping the best percentage per quiz. A
// perfect result earns Perfectionist.
func (t *Tracker) RecordQuiz(p *domain.CourseProgress, quizID string, correct, total int) (*domain.CourseProgress, int, []domain.Badge, error) {
	if quizID == "" || total <= 0 || correct < 0 || correct > total {
		return nil, 0, nil, fmt.Errorf("%w: %d of %d", domain.ErrInvalidQuiz, correct, total)
	}

	pct := QuizPercentage(correct, total)
	next := p.Clone()
	if best, ok := next.QuizScores[quizID]; !ok || pct > best {
		next.QuizScores[quizID] = pct
	}

	var earned []domain.Badge
	if pct == 100 && !next.HasBadge(domain.BadgePerfectionist.Name) {
		next.Badges = append(next.Badges, domain.BadgePerfectionist.Name)
		earned = append(earned, domain.BadgePerfectionist)
	}
	next.UpdatedAt = time.Now()

	return next, pct, earned, nil
}

// QuizPercentage converts a correct count into a rounded percentage
func QuizPercentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(float64(correct) / float64(total) * 100)
}

// QuizRating returns the message shown under a quiz result
func QuizRating(pct int) string {
	switch {
	case pct >= 80:
		return "Excellent work!"
	case pct >= 60:
		return "Good job! Keep learning"
	default:
		return "Keep practicing! You've got this"
	}
}

func (t *Tracker) checkModule(id domain.ModuleID) error {
	if id < 1 || int(id) > t.moduleCount {
		return fmt.Errorf("%w: %d", domain.ErrModuleNotFound, id)
	}
	return nil
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
