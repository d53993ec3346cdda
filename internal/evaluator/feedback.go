package evaluator

import (
	"fmt"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

// Messages holds the feedback templates
type Messages struct {
	unresolved string
	praise     string // %s: lower-cased step title
	improve    string // %s: step hint
	ratings    []rating
}

type rating struct {
	min  int
	text string
}

// DefaultMessages returns the course's feedback templates
func DefaultMessages() *Messages {
	return &Messages{
		unresolved: "Unable to provide feedback.",
		praise: "Excellent work! Your answer demonstrates a solid understanding of %s. " +
			"You've addressed the key concepts and provided thoughtful analysis.",
		improve: "Good effort! To improve your answer, consider: %s " +
			"Try to be more specific and include more of the key concepts mentioned in the hint.",
		ratings: []rating{
			{90, "Outstanding mastery!"},
			{80, "Excellent work!"},
			{70, "Great job!"},
			{60, "Good effort!"},
			{0, "Keep practicing!"},
		},
	}
}

// Unresolved is returned when the step cannot be found
func (m *Messages) Unresolved() string {
	return m.unresolved
}

// Praise formats the message for a valid answer
func (m *Messages) Praise(step *domain.Step) string {
	return fmt.Sprintf(m.praise, lowerCase(step.Title))
}

// Improve formats the message for an invalid answer
func (m *Messages) Improve(step *domain.Step) string {
	return fmt.Sprintf(m.improve, step.Hint)
}

// Rating returns the banner for the first tier the score reaches
func (m *Messages) Rating(score int) string {
	for _, r := range m.ratings {
		if score >= r.min {
			return r.text
		}
	}
	return m.ratings[len(m.ratings)-1].text
}
