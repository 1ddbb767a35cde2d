package discovery

import (
	"fmt"
	"sort"

	"stepagg/internal/eventlog"
)

// Parser reads event logs to list the tests they contain
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindTests returns the sorted unique titles of tests started in the log.
// Undecodable lines are skipped.
func (p *Parser) FindTests(path string) ([]string, error) {
	log, err := eventlog.ReadFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("error reading log %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for _, ev := range log.Events {
		if ev.Kind == eventlog.TestStarted && ev.Test != nil {
			seen[ev.Test.Title] = true
		}
	}

	tests := make([]string, 0, len(seen))
	for title := range seen {
		tests = append(tests, title)
	}
	sort.Strings(tests)
	return tests, nil
}
