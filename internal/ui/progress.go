package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar shows replay progress on stderr
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar over count event logs
func NewProgressBar(count int) *ProgressBar {
	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription(describe(0, 0)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

func describe(passed, failed int) string {
	return color.CyanString("Replaying logs: ") +
		color.GreenString("[passed: %d", passed) +
		" | " +
		color.RedString("failed: %d]", failed)
}

// Update moves the bar to completed logs and shows test outcome counts
func (p *ProgressBar) Update(completed, passed, failed int) {
	p.bar.Set(completed)
	p.bar.Describe(describe(passed, failed))
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	p.bar.Finish()
}
