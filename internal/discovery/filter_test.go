package discovery

import (
	"testing"
)

func TestFilter_FilterByName(t *testing.T) {
	filter := NewFilter()
	logs := []string{
		"/e2e/cart/checkout.events.jsonl",
		"/e2e/cart/cart_empty.events.jsonl",
		"/e2e/auth/login.events.yml",
		"/e2e/cart/checkout_guest.events.yml",
	}

	tests := []struct {
		name     string
		pattern  string
		expected int
	}{
		{name: "empty pattern returns all", pattern: "", expected: 4},
		{name: "glob matches base name", pattern: "*.events.yml", expected: 2},
		{name: "wildcard pattern matches substring", pattern: "*checkout*", expected: 2},
		{name: "multiple wildcards", pattern: "*cart*jsonl", expected: 1},
		{name: "simple contains match", pattern: "login", expected: 1},
		{name: "directory names are not matched", pattern: "auth", expected: 0},
		{name: "no matches", pattern: "*payment*", expected: 0},
		{name: "only wildcards", pattern: "**", expected: 4},
		{name: "question mark needs an exact glob", pattern: "log?n", expected: 0},
		{name: "path glob", pattern: "cart/*.events.jsonl", expected: 2},
		{name: "path glob with double star", pattern: "e2e/**/*.yml", expected: 2},
		{name: "path glob anchored to a directory", pattern: "auth/*", expected: 1},
		{name: "malformed path glob", pattern: "cart/[", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.FilterByName(logs, tt.pattern)
			if len(result) != tt.expected {
				t.Errorf("expected %d matches, got %d: %v", tt.expected, len(result), result)
			}
		})
	}
}

func TestFilter_FilterByName_EmptyList(t *testing.T) {
	result := NewFilter().FilterByName([]string{}, "*cart*")
	if len(result) != 0 {
		t.Errorf("expected empty result, got %d items", len(result))
	}
}
