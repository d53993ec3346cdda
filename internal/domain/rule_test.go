package domain

import (
	"errors"
	"slices"
	"testing"
)

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    *Rule
		wantErr bool
	}{
		{"any_of", AnyOf("a", "b"), false},
		{"count_at_least", CountAtLeast(2, "a", "b", "c"), false},
		{"count equal to keywords", CountAtLeast(3, "a", "b", "c"), false},
		{"all_of", AllOf("can", "cannot|limitation"), false},
		{"default_length", DefaultLength(), false},
		{"any_of without keywords", AnyOf(), true},
		{"all_of without keywords", AllOf(), true},
		{"count zero", CountAtLeast(0, "a"), true},
		{"count above keywords", CountAtLeast(3, "a", "b"), true},
		{"blank keyword", AnyOf("a", "  "), true},
		{"unknown kind", &Rule{Kind: "regex", Keywords: []string{"a"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRule) {
				t.Errorf("Validate() error = %v, want ErrInvalidRule", err)
			}
		})
	}
}

func TestAlternatives(t *testing.T) {
	tests := []struct {
		marker string
		want   []string
	}{
		{"can", []string{"can"}},
		{"cannot|limitation", []string{"cannot", "limitation"}},
		{" a | b ", []string{"a", "b"}},
		{"a||b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		if got := Alternatives(tt.marker); !slices.Equal(got, tt.want) {
			t.Errorf("Alternatives(%q) = %v, want %v", tt.marker, got, tt.want)
		}
	}
}
