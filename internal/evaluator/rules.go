package evaluator

import (
	"strings"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// matches dispatches a rule against an answer. A nil rule falls back to the
// default length heuristic.
func (e *Evaluator) matches(rule *domain.Rule, answer string) bool {
	if rule == nil {
		return e.defaultHeuristic(answer)
	}

	lower := lowerCase(answer)

	switch rule.Kind {
	case domain.RuleAnyOf:
		for _, kw := range rule.Keywords {
			if contains(lower, kw) {
				return true
			}
		}
		return false

	case domain.RuleCountAtLeast:
		return countMatches(lower, rule.Keywords) >= rule.Min

	case domain.RuleAllOf:
		for _, marker := range rule.Keywords {
			if !containsAny(lower, domain.Alternatives(marker)) {
				return false
			}
		}
		return true

	case domain.RuleDefaultLength:
		return e.defaultHeuristic(answer)

	default:
		// Catalog validation rejects unknown kinds; fail closed regardless.
		return false
	}
}

// defaultHeuristic is an effort proxy: strictly more than MinChars characters
// and strictly more than MinWords space-separated words.
func (e *Evaluator) defaultHeuristic(answer string) bool {
	return TextLength(answer) > e.cfg.MinChars && wordCount(answer) > e.cfg.MinWords
}

// countMatches counts the keywords found in an already lower-cased answer
func countMatches(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if contains(lower, kw) {
			n++
		}
	}
	return n
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if contains(lower, kw) {
			return true
		}
	}
	return false
}

func contains(lower, keyword string) bool {
	return strings.Contains(lower, lowerCase(keyword))
}

// lowerCase builds a fresh Caser per call; a Caser must not be shared
// between goroutines.
func lowerCase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// TextLength counts UTF-16 code units so lengths agree with the browser
// client that renders the same exercises.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// wordCount splits on single spaces exactly as the client does, so runs of
// spaces produce empty "words" and the empty string counts as one.
func wordCount(s string) int {
	return strings.Count(s, " ") + 1
}
