package domain

import "testing"

func TestNewCourseProgress(t *testing.T) {
	p := NewCourseProgress("learner-1")

	if p.CurrentModule != 1 {
		t.Errorf("CurrentModule = %d, want 1", p.CurrentModule)
	}
	if len(p.Completed) != 0 || len(p.Badges) != 0 {
		t.Errorf("new progress should be empty: %+v", p)
	}
	if p.IsCompleted(1) || p.HasBadge(BadgeFirstSteps.Name) {
		t.Error("nothing should be completed yet")
	}
}

func TestCourseProgress_Clone(t *testing.T) {
	p := NewCourseProgress("learner-1")
	p.Completed = append(p.Completed, 1)
	p.Badges = append(p.Badges, BadgeFirstSteps.Name)
	p.QuizScores["module-1"] = 80

	c := p.Clone()
	c.Completed[0] = 9
	c.Badges[0] = "changed"
	c.QuizScores["module-1"] = 0

	if p.Completed[0] != 1 || p.Badges[0] != "First Steps" || p.QuizScores["module-1"] != 80 {
		t.Errorf("Clone() aliased the original: %+v", p)
	}
}

func TestCourseProgress_CloneNilSlices(t *testing.T) {
	p := &CourseProgress{LearnerID: "x"}
	c := p.Clone()

	if c.Completed == nil || c.Badges == nil || c.QuizScores == nil {
		t.Errorf("Clone() should normalize nil collections: %+v", c)
	}
}
