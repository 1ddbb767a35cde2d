package discovery

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter narrows event logs by file name
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps logs whose base name matches pattern.
// Supports globs like "*checkout*.jsonl", loose wildcards like "*cart*" and plain substrings.
// A pattern containing a slash is a path glob ("e2e/**/cart/*") matched against
// the end of the log path.
func (f *Filter) FilterByName(logs []string, pattern string) []string {
	if pattern == "" {
		return logs
	}

	var filtered []string
	for _, path := range logs {
		if matchLog(path, pattern) {
			filtered = append(filtered, path)
		}
	}
	return filtered
}

func matchLog(path, pattern string) bool {
	if !strings.Contains(pattern, "/") {
		return matchName(filepath.Base(path), pattern)
	}

	pattern = strings.TrimPrefix(pattern, "/")
	if !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}
	matched, err := doublestar.Match(pattern, strings.TrimPrefix(filepath.ToSlash(path), "/"))
	return err == nil && matched
}

func matchName(name, pattern string) bool {
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}
	if strings.Contains(pattern, "?") {
		return false
	}

	// every literal piece between wildcards must appear somewhere in the name
	parts := strings.Split(pattern, "*")
	nonEmpty := 0
	for _, part := range parts {
		if part == "" {
			continue
		}
		nonEmpty++
		if !strings.Contains(name, part) {
			return false
		}
	}
	return nonEmpty > 0
}
