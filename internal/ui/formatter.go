package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"stepagg/internal/config"
	"stepagg/internal/discovery"
	"stepagg/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to color.Output
func NewFormatter(cfg *config.Config, parser *discovery.Parser) *Formatter {
	return &Formatter{
		config: cfg,
		parser: parser,
		out:    color.Output,
	}
}

// SetOutput redirects the formatter
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

const (
	rowSeparator = "├─────────────────────────────────┼─────────────────────────────┤"
	tableTop     = "┌─────────────────────────────────┬─────────────────────────────┐"
	tableBottom  = "└─────────────────────────────────┴─────────────────────────────┘"
)

// PrintMetaStats displays the statistics of a replay run
func (f *Formatter) PrintMetaStats(output *domain.ReplayOutput) {
	meta := output.Meta

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                    Step Replay Statistics                     ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Event Logs", fmt.Sprint(meta.TotalLogs), white},
		{"Failed Logs", fmt.Sprint(meta.FailedLogs), red},
		{"Tests", fmt.Sprint(meta.TotalTests), white},
		{"Passed Tests", fmt.Sprint(meta.PassedTests), green},
		{"Failed Tests", fmt.Sprint(meta.FailedTests), red},
		{"Skipped Tests", fmt.Sprint(meta.SkippedTests), yellow},
		{"Registered Autotests", fmt.Sprint(meta.Registered), white},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Workers", fmt.Sprint(meta.Workers), white},
		{"Timestamp", meta.Timestamp, white},
	}

	fmt.Fprintln(f.out, tableTop)
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, rowSeparator)
		}
	}
	fmt.Fprintln(f.out, tableBottom)

	fmt.Fprintln(f.out)
	if len(output.Warnings) > 0 {
		yellow.Fprintf(f.out, "⚠ %d warning(s):\n", len(output.Warnings))
		for _, w := range output.Warnings {
			fmt.Fprintf(f.out, "  %s\n", w)
		}
		fmt.Fprintln(f.out)
	}

	switch {
	case meta.FailedLogs == 0 && meta.FailedTests == 0:
		green.Fprintln(f.out, "✓ All tests passed!")
	default:
		red.Fprintf(f.out, "✗ %d log(s) failed to replay, %d test(s) failed\n", meta.FailedLogs, meta.FailedTests)
	}
}

// PrintReports prints every report of a replay output
func (f *Formatter) PrintReports(output *domain.ReplayOutput, definitions bool) {
	if len(output.Reports) == 0 {
		yellow.Fprintln(f.out, "No registered tests in this replay.")
		return
	}
	for i, report := range output.Reports {
		f.PrintReport(report, definitions)
		if i < len(output.Reports)-1 {
			fmt.Fprintln(f.out)
		}
	}
}

// PrintReport prints one test with its result tree, or with its definition
// tree when definitions is set.
func (f *Formatter) PrintReport(report domain.TestReport, definitions bool) {
	var outcome domain.Outcome
	var duration string
	if report.Result != nil {
		outcome = report.Result.Outcome
		duration = formatMillis(report.Result.Duration)
	}

	header := OutcomeGlyph(outcome) + " " + report.Test.Title
	if report.Test.Suite != "" {
		header = report.Test.Suite + " › " + header
	}
	if outcome == domain.OutcomeFailed {
		red.Fprint(f.out, header)
	} else {
		green.Fprint(f.out, header)
	}
	if duration != "" {
		fmt.Fprint(f.out, color.HiBlackString(" (%s)", duration))
	}
	fmt.Fprintln(f.out)
	cyan.Fprintf(f.out, "  %s\n", f.relative(report.Log))

	var lines []string
	switch {
	case definitions && report.Autotest != nil:
		lines = DefinitionTreeLines(report.Autotest.Steps)
	case report.Result != nil:
		lines = ResultTreeLines(report.Result.StepResults)
	}
	if len(lines) == 0 {
		fmt.Fprintf(f.out, "  %s\n", color.HiBlackString("(no steps)"))
	}
	for _, line := range lines {
		fmt.Fprintf(f.out, "  %s\n", line)
	}

	if report.Result != nil && report.Result.Traces != "" {
		red.Fprintf(f.out, "  %s\n", report.Result.Traces)
	}
}

// PrintLogList prints discovered event logs, optionally with their tests
func (f *Formatter) PrintLogList(logs []string, showTests bool) {
	green.Fprintf(f.out, "Found %d event log(s):\n\n", len(logs))

	for i, log := range logs {
		isLastLog := i == len(logs)-1
		cyan.Fprintf(f.out, "%s%s\n", branch(isLastLog), f.relative(log))
		if !showTests {
			continue
		}

		tests, err := f.parser.FindTests(log)
		if err != nil {
			red.Fprintf(f.out, "%s%s%v\n", pipe(isLastLog), branchLast, err)
			continue
		}
		if len(tests) == 0 {
			fmt.Fprintf(f.out, "%s%s%s\n", pipe(isLastLog), branchLast, red.Sprint("(no tests found)"))
			continue
		}
		for j, test := range tests {
			fmt.Fprintf(f.out, "%s%s%s\n", pipe(isLastLog), branch(j == len(tests)-1), yellow.Sprint(test))
		}
	}
}

// PrintSchedule prints which logs each worker replays
func (f *Formatter) PrintSchedule(shares [][]string) {
	for i, share := range shares {
		cyan.Fprintf(f.out, "worker %d: %d log(s)\n", i+1, len(share))
		for j, log := range share {
			fmt.Fprintf(f.out, "  %s%s\n", branch(j == len(share)-1), f.relative(log))
		}
	}
}

func (f *Formatter) relative(path string) string {
	if f.config == nil || path == "" {
		return path
	}
	if rel, err := filepath.Rel(f.config.ProjectPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
