package domain

import (
	"strconv"
	"strings"
	"time"
)

// StepEvent is a step as reported by the host test runner.
// Parent points at the enclosing meta-step; the same parent object is shared
// by every step nested in it.
type StepEvent struct {
	ID        string
	Title     string
	Args      []string
	Status    string
	StartTime time.Time
	EndTime   time.Time
	Parent    *StepEvent
	Grouping  bool
}

// String renders the step the way it is shown in reports: the title followed by
// its quoted arguments.
func (e *StepEvent) String() string {
	if len(e.Args) == 0 {
		return e.Title
	}
	quoted := make([]string, len(e.Args))
	for i, arg := range e.Args {
		quoted[i] = strconv.Quote(arg)
	}
	return e.Title + " " + strings.Join(quoted, ", ")
}

// Duration returns the step duration in milliseconds when both timestamps are known.
func (e *StepEvent) Duration() (int64, bool) {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return 0, false
	}
	return e.EndTime.Sub(e.StartTime).Milliseconds(), true
}

// StepNode is one node of the accumulated step tree.
// Children is non-nil exactly when the node represents a meta-step.
type StepNode struct {
	ID       string      `json:"-"`
	Title    string      `json:"title"`
	Outcome  Outcome     `json:"outcome,omitempty"`
	Duration *int64      `json:"duration,omitempty"`
	Children []*StepNode `json:"stepResults,omitempty"`
}

// IsGroup reports whether the node was created from a meta-step.
func (n *StepNode) IsGroup() bool {
	return n.Children != nil
}

// AutotestStep is the structural projection of a StepNode used for test registration.
type AutotestStep struct {
	Title string         `json:"title" yaml:"title"`
	Steps []AutotestStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Outcome is a test-management status.
type Outcome string

const (
	OutcomePassed  Outcome = "Passed"
	OutcomeFailed  Outcome = "Failed"
	OutcomePending Outcome = "Pending"
	OutcomeBlocked Outcome = "Blocked"
	OutcomeSkipped Outcome = "Skipped"
)

// Raw statuses reported by the host runner.
const (
	StepStatusSuccess = "success"
	StepStatusFailed  = "failed"

	TestStatePassed   = "passed"
	TestStateFailed   = "failed"
	TestStateSkipped  = "skipped"
	TestStateFinished = "finished"
)

var stepOutcomes = map[string]Outcome{
	StepStatusSuccess: OutcomePassed,
	StepStatusFailed:  OutcomeFailed,
}

var testOutcomes = map[string]Outcome{
	TestStatePassed:  OutcomePassed,
	TestStateFailed:  OutcomeFailed,
	TestStateSkipped: OutcomeSkipped,
}

// StepOutcome maps a raw step status. The second result is false for empty or unknown statuses.
func StepOutcome(status string) (Outcome, bool) {
	o, ok := stepOutcomes[status]
	return o, ok
}

// TestOutcome maps a raw test state. The second result is false for empty or unknown states.
func TestOutcome(state string) (Outcome, bool) {
	o, ok := testOutcomes[state]
	return o, ok
}
