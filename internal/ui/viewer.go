package ui

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"stepagg/internal/domain"
)

// Viewer displays replay reports interactively
type Viewer interface {
	View(output *domain.ReplayOutput) error
}

// ReportViewer is a TUI with the test list on the left and the selected
// test's step tree on the right.
type ReportViewer struct{}

var _ Viewer = (*ReportViewer)(nil)

// NewReportViewer creates a new ReportViewer
func NewReportViewer() *ReportViewer {
	return &ReportViewer{}
}

// View runs the TUI until Ctrl+C or q
func (rv *ReportViewer) View(output *domain.ReplayOutput) error {
	if len(output.Reports) == 0 {
		color.Yellow("No registered tests in this replay.")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(true).
		SetHighlightFullLine(true)
	for i, report := range output.Reports {
		list.AddItem(listItemText(i, report), "[gray]"+tview.Escape(report.Log), 0, nil)
	}
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	tree := tview.NewTreeView().SetGraphics(true)
	tree.SetBorder(true)

	definitions := false
	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	updateHeader := func() {
		mode := "results"
		if definitions {
			mode = "definitions"
		}
		headerView.SetText(fmt.Sprintf(
			" %d test(s), showing %s | ↑↓ navigate, → open tree, ← back, [yellow]D[white] toggle definitions, Ctrl+C to exit ",
			len(output.Reports), mode))
	}

	showSelected := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(output.Reports) {
			return
		}
		report := output.Reports[index]
		root := BuildTree(report, definitions)
		tree.SetRoot(root).SetCurrentNode(root)
		tree.SetTitle(" " + tview.Escape(report.Test.Title) + " ")
	}

	list.SetChangedFunc(func(int, string, string, rune) { showSelected() })
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(tree)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'd', 'D':
				definitions = !definitions
				updateHeader()
				showSelected()
				return nil
			case 'q':
				app.Stop()
				return nil
			}
		}
		return event
	})
	tree.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	updateHeader()
	showSelected()

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(tree, 0, 2, false)
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(body, 0, 1, true)

	if err := app.SetRoot(layout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func listItemText(index int, report domain.TestReport) string {
	var outcome domain.Outcome
	if report.Result != nil {
		outcome = report.Result.Outcome
	}
	tag := "[green]"
	if outcome == domain.OutcomeFailed {
		tag = "[red]"
	}
	return fmt.Sprintf("[yellow]%d.%s %s [white]%s", index+1, tag, OutcomeGlyph(outcome), tview.Escape(report.Test.Title))
}

// BuildTree converts a report into tview nodes rooted at the test title
func BuildTree(report domain.TestReport, definitions bool) *tview.TreeNode {
	root := tview.NewTreeNode(report.Test.Title).SetColor(tcell.ColorYellow)

	type frame struct {
		parent *tview.TreeNode
		result *domain.StepNode
		def    *domain.AutotestStep
	}

	var stack []frame
	switch {
	case definitions && report.Autotest != nil:
		for i := len(report.Autotest.Steps) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent: root, def: &report.Autotest.Steps[i]})
		}
	case !definitions && report.Result != nil:
		for i := len(report.Result.StepResults) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent: root, result: report.Result.StepResults[i]})
		}
	}

	// children are pushed in reverse so AddChild sees them in order
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.def != nil {
			node := tview.NewTreeNode(f.def.Title).SetReference(f.def)
			f.parent.AddChild(node)
			for i := len(f.def.Steps) - 1; i >= 0; i-- {
				stack = append(stack, frame{parent: node, def: &f.def.Steps[i]})
			}
			continue
		}

		nodeColor := outcomeColor(f.result.Outcome)
		if isComment(f.result) {
			nodeColor = tcell.ColorYellow
		}
		node := tview.NewTreeNode(treeNodeText(f.result)).
			SetReference(f.result).
			SetColor(nodeColor)
		f.parent.AddChild(node)
		for i := len(f.result.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent: node, result: f.result.Children[i]})
		}
	}
	return root
}

func treeNodeText(node *domain.StepNode) string {
	text := node.Title
	if node.Outcome != "" {
		text = OutcomeGlyph(node.Outcome) + " " + text
	}
	if node.Duration != nil {
		text += " (" + formatMillis(*node.Duration) + ")"
	}
	return text
}

func outcomeColor(outcome domain.Outcome) tcell.Color {
	switch outcome {
	case domain.OutcomePassed:
		return tcell.ColorGreen
	case domain.OutcomeFailed:
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}
