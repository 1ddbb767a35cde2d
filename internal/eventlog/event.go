package eventlog

import (
	"errors"

	"stepagg/internal/domain"
)

// Kind names a host lifecycle event.
type Kind string

const (
	RunBefore    Kind = "run.before"
	RunAfter     Kind = "run.after"
	TestBefore   Kind = "test.before"
	TestStarted  Kind = "test.started"
	TestPassed   Kind = "test.passed"
	TestFailed   Kind = "test.failed"
	TestAfter    Kind = "test.after"
	StepBefore   Kind = "step.before"
	StepFinished Kind = "step.finished"
	StepComment  Kind = "step.comment"
)

var (
	// ErrUnknownEvent is returned for records with an unsupported event kind.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMissingPayload is returned when a record lacks the test, step or comment its kind needs.
	ErrMissingPayload = errors.New("missing event payload")
)

// Event is one decoded record of an event log.
type Event struct {
	Kind    Kind
	Line    int
	Test    *domain.TestInfo
	Step    *domain.StepEvent
	Comment string
}

func (k Kind) known() bool {
	switch k {
	case RunBefore, RunAfter, TestBefore, TestStarted, TestPassed, TestFailed, TestAfter,
		StepBefore, StepFinished, StepComment:
		return true
	}
	return false
}

func (k Kind) needsTest() bool {
	switch k {
	case TestBefore, TestStarted, TestPassed, TestFailed, TestAfter:
		return true
	}
	return false
}

func (k Kind) needsStep() bool {
	return k == StepBefore || k == StepFinished
}
