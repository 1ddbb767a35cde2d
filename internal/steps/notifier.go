package steps

import "stepagg/internal/domain"

// Notifier receives step notifications from the host runner in execution order.
type Notifier interface {
	NotifyStep(event *domain.StepEvent)
	NotifyComment(text string)
	ResetForNewTest()
}

var _ Notifier = (*Processor)(nil)

// NotifyStep implements Notifier.
func (p *Processor) NotifyStep(event *domain.StepEvent) { p.ProcessStep(event) }

// NotifyComment implements Notifier.
func (p *Processor) NotifyComment(text string) { p.ProcessComment(text) }

// ResetForNewTest implements Notifier.
func (p *Processor) ResetForNewTest() { p.Reset() }
