// Package steps rebuilds step trees from a flat stream of step and comment events.
//
// A Processor holds the state of a single test execution. Steps arrive in
// execution order and may reference a chain of meta-steps through Parent. Each
// meta-step is inserted once, keyed by its identifier, and later steps that
// share it are attached under the existing node. Comments are buffered and
// emitted as leaves right before the next ordinary step.
//
// A Processor is not safe for concurrent use.
package steps

import (
	"io"
	"log/slog"

	"stepagg/internal/domain"
)

// Processor accumulates the step tree of one test execution.
type Processor struct {
	roots   []*domain.StepNode
	index   map[string]*domain.StepNode
	comment string
	logger  *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used to report dropped events at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates an empty Processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		index:  make(map[string]*domain.StepNode),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reset returns the processor to its initial empty state.
func (p *Processor) Reset() {
	p.roots = nil
	p.index = make(map[string]*domain.StepNode)
	p.comment = ""
}

// ProcessComment buffers text until the next ordinary step. A comment that is
// still pending is replaced.
func (p *Processor) ProcessComment(text string) {
	if text == "" {
		return
	}
	p.comment = text
}

// ProcessStep attaches the event to the tree, inserting any meta-steps above it
// that have not been seen yet. Events without an identifier are ignored.
func (p *Processor) ProcessStep(event *domain.StepEvent) {
	if event == nil || event.ID == "" {
		p.logger.Debug("step without id ignored")
		return
	}

	chain := p.unregisteredChain(event)
	for i := len(chain) - 1; i >= 0; i-- {
		p.attach(chain[i])
	}
}

// unregisteredChain returns the event followed by its ancestors that still
// need to be inserted, innermost first.
func (p *Processor) unregisteredChain(event *domain.StepEvent) []*domain.StepEvent {
	chain := []*domain.StepEvent{event}
	seen := map[string]struct{}{event.ID: {}}
	for parent := event.Parent; parent != nil && parent.ID != ""; parent = parent.Parent {
		if _, ok := p.index[parent.ID]; ok {
			break
		}
		if _, ok := seen[parent.ID]; ok {
			break
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, parent)
	}
	return chain
}

// attach appends the event under its parent. A non-grouping event consumes the
// pending comment and every event is indexed, even when its parent cannot hold
// it and nothing is appended.
func (p *Processor) attach(event *domain.StepEvent) {
	node := newNode(event)
	target, ok := p.target(event)

	if p.comment != "" && !event.Grouping {
		if ok {
			*target = append(*target, &domain.StepNode{Title: p.comment})
		}
		p.comment = ""
	}

	if ok {
		*target = append(*target, node)
	} else {
		p.logger.Debug("step parent not attachable, step dropped", "step", event.ID, "title", event.String())
	}

	if _, ok := p.index[event.ID]; !ok {
		p.index[event.ID] = node
	}
}

// target resolves the sequence the event is appended to.
func (p *Processor) target(event *domain.StepEvent) (*[]*domain.StepNode, bool) {
	if event.Parent == nil {
		return &p.roots, true
	}
	if event.Parent.ID == "" {
		return nil, false
	}
	parent, ok := p.index[event.Parent.ID]
	if !ok || !parent.IsGroup() {
		return nil, false
	}
	return &parent.Children, true
}

func newNode(event *domain.StepEvent) *domain.StepNode {
	node := &domain.StepNode{
		ID:    event.ID,
		Title: event.String(),
	}
	if outcome, ok := domain.StepOutcome(event.Status); ok {
		node.Outcome = outcome
	}
	if ms, ok := event.Duration(); ok {
		node.Duration = &ms
	}
	if event.Grouping {
		node.Children = []*domain.StepNode{}
	}
	return node
}
