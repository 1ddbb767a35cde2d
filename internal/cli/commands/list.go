package commands

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stepagg/internal/config"
	"stepagg/internal/discovery"
	"stepagg/internal/execution"
	"stepagg/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	filter    *discovery.Filter
	scheduler execution.Scheduler
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	filter *discovery.Filter,
	scheduler execution.Scheduler,
	formatter *ui.Formatter,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		filter:    filter,
		scheduler: scheduler,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	logs, err := scanLogs(lc.config, lc.filter)
	if errors.Is(err, discovery.ErrNoLogs) {
		color.Yellow("No event logs found")
		return nil
	}
	if err != nil {
		return err
	}

	if lc.config.Flags.ShowSchedule {
		lc.formatter.PrintSchedule(lc.scheduler.Schedule(logs, lc.config.Processors))
		return nil
	}
	lc.formatter.PrintLogList(logs, lc.config.Flags.ShowTests)
	return nil
}
