package domain

import (
	"fmt"
	"strings"
)

// RuleKind enumerates the closed set of validation rules a step may carry
type RuleKind string

const (
	// RuleAnyOf passes when at least one keyword appears
	RuleAnyOf RuleKind = "any_of"
	// RuleCountAtLeast passes when at least N distinct keywords appear
	RuleCountAtLeast RuleKind = "count_at_least"
	// RuleAllOf passes when every marker appears. A marker may list
	// alternatives separated by "|", any one of which satisfies it.
	RuleAllOf RuleKind = "all_of"
	// RuleDefaultLength applies the length and word-count heuristic
	RuleDefaultLength RuleKind = "default_length"
)

// Rule is a data-driven validation rule attached to a step
type Rule struct {
	Kind     RuleKind `json:"kind" yaml:"kind"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Min      int      `json:"min,omitempty" yaml:"min,omitempty"`
}

// AnyOf builds an any_of rule
func AnyOf(keywords ...string) *Rule {
	return &Rule{Kind: RuleAnyOf, Keywords: keywords}
}

// CountAtLeast builds a count_at_least rule
func CountAtLeast(n int, keywords ...string) *Rule {
	return &Rule{Kind: RuleCountAtLeast, Keywords: keywords, Min: n}
}

// AllOf builds an all_of rule
func AllOf(markers ...string) *Rule {
	return &Rule{Kind: RuleAllOf, Keywords: markers}
}

// DefaultLength builds a rule that defers to the length heuristic
func DefaultLength() *Rule {
	return &Rule{Kind: RuleDefaultLength}
}

// Alternatives splits an all_of marker into its "|" separated options
func Alternatives(marker string) []string {
	parts := strings.Split(marker, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the rule is well formed
func (r *Rule) Validate() error {
	switch r.Kind {
	case RuleDefaultLength:
		return nil
	case RuleAnyOf, RuleAllOf:
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%w: %s needs at least one keyword", ErrInvalidRule, r.Kind)
		}
	case RuleCountAtLeast:
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%w: %s needs at least one keyword", ErrInvalidRule, r.Kind)
		}
		if r.Min < 1 || r.Min > len(r.Keywords) {
			return fmt.Errorf("%w: %s min %d outside 1..%d", ErrInvalidRule, r.Kind, r.Min, len(r.Keywords))
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}

	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: %s has an empty keyword", ErrInvalidRule, r.Kind)
		}
	}
	return nil
}
