package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"stepagg/internal/domain"
)

const (
	branchMid  = "├── "
	branchLast = "└── "
	pipeMid    = "│   "
	pipeLast   = "    "
)

type treeFrame struct {
	prefix string
	last   bool
	result *domain.StepNode
	def    *domain.AutotestStep
}

// ResultTreeLines renders step results one line per node. Deep trees are
// walked with an explicit stack.
func ResultTreeLines(nodes []*domain.StepNode) []string {
	stack := make([]treeFrame, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, treeFrame{last: i == len(nodes)-1, result: nodes[i]})
	}

	var lines []string
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		lines = append(lines, f.prefix+branch(f.last)+resultLabel(f.result))

		children := f.result.Children
		childPrefix := f.prefix + pipe(f.last)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, treeFrame{prefix: childPrefix, last: i == len(children)-1, result: children[i]})
		}
	}
	return lines
}

// DefinitionTreeLines renders registered steps one line per step
func DefinitionTreeLines(steps []domain.AutotestStep) []string {
	stack := make([]treeFrame, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		stack = append(stack, treeFrame{last: i == len(steps)-1, def: &steps[i]})
	}

	var lines []string
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		lines = append(lines, f.prefix+branch(f.last)+f.def.Title)

		children := f.def.Steps
		childPrefix := f.prefix + pipe(f.last)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, treeFrame{prefix: childPrefix, last: i == len(children)-1, def: &children[i]})
		}
	}
	return lines
}

func branch(last bool) string {
	if last {
		return branchLast
	}
	return branchMid
}

func pipe(last bool) string {
	if last {
		return pipeLast
	}
	return pipeMid
}

func resultLabel(node *domain.StepNode) string {
	label := node.Title
	if node.Duration != nil {
		label += color.HiBlackString(" (%s)", formatMillis(*node.Duration))
	}

	switch {
	case isComment(node):
		return color.YellowString("» " + label)
	case node.Outcome == domain.OutcomePassed:
		return color.GreenString("✓ ") + label
	case node.Outcome == domain.OutcomeFailed:
		return color.RedString("✗ ") + color.RedString(label)
	default:
		return color.CyanString("- ") + label
	}
}

// isComment reports whether node is a comment leaf. Steps with an unmapped
// status still have a duration or children.
func isComment(node *domain.StepNode) bool {
	return node.Outcome == "" && node.Duration == nil && !node.IsGroup()
}

// OutcomeGlyph returns the marker printed before a test title
func OutcomeGlyph(outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomePassed:
		return "✓"
	case domain.OutcomeFailed:
		return "✗"
	case domain.OutcomeSkipped:
		return "↷"
	default:
		return "-"
	}
}

func formatMillis(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return (time.Duration(ms) * time.Millisecond).Round(10 * time.Millisecond).String()
}
