package eventlog

import (
	"context"
	"fmt"

	"stepagg/internal/domain"
)

// Handler receives host lifecycle events in the order they were recorded
type Handler interface {
	ResetTestState()
	InitTest(test domain.TestInfo)
	InitStep(step *domain.StepEvent)
	CompleteStep(step *domain.StepEvent)
	HandleStepComment(text string)
	InitAutotest(test domain.TestInfo)
	CompleteTest(test domain.TestInfo)
}

// Dispatch delivers events to h one at a time. It stops early when ctx is done.
func Dispatch(ctx context.Context, events []Event, h Handler) error {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch ev.Kind {
		case RunBefore, RunAfter, TestFailed:
			// run bookkeeping and failure notifications carry nothing for the step tree
		case TestBefore:
			h.ResetTestState()
		case TestStarted:
			h.InitTest(*ev.Test)
		case StepBefore:
			h.InitStep(ev.Step)
		case StepFinished:
			h.CompleteStep(ev.Step)
		case StepComment:
			h.HandleStepComment(ev.Comment)
		case TestPassed:
			h.InitAutotest(*ev.Test)
		case TestAfter:
			h.CompleteTest(*ev.Test)
		default:
			return fmt.Errorf("line %d: %w %q", ev.Line, ErrUnknownEvent, ev.Kind)
		}
	}
	return nil
}
