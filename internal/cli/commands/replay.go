package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stepagg/internal/config"
	"stepagg/internal/discovery"
	"stepagg/internal/domain"
	"stepagg/internal/execution"
	"stepagg/internal/storage"
	"stepagg/internal/ui"
)

// ReplayCommand handles the replay command
type ReplayCommand struct {
	config    *config.Config
	filter    *discovery.Filter
	runner    *execution.Runner
	executor  *execution.WorkerPool
	formatter *ui.Formatter
	viewer    ui.Viewer
}

// NewReplayCommand creates a new ReplayCommand
func NewReplayCommand(
	cfg *config.Config,
	filter *discovery.Filter,
	runner *execution.Runner,
	executor *execution.WorkerPool,
	formatter *ui.Formatter,
	viewer ui.Viewer,
) *ReplayCommand {
	return &ReplayCommand{
		config:    cfg,
		filter:    filter,
		runner:    runner,
		executor:  executor,
		formatter: formatter,
		viewer:    viewer,
	}
}

// Execute runs the command
func (rc *ReplayCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logs, err := scanLogs(rc.config, rc.filter)
	if errors.Is(err, discovery.ErrNoLogs) {
		color.Yellow("No event logs to replay")
		return nil
	}
	if err != nil {
		return err
	}

	st, closeStorage, err := storage.Open(ctx, rc.config)
	if err != nil {
		return err
	}
	defer closeStorage()

	registered, err := st.Registered(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registered autotests: %w", err)
	}
	rc.runner.SetRegistered(registered)

	rc.executor.SetProgress(ui.NewProgressBar(len(logs)))
	results, duration, err := rc.executor.Execute(ctx, logs)
	if err != nil {
		return err
	}
	output := domain.NewReplayOutput(results, duration, rc.config.Processors, time.Now())

	if err := st.Save(ctx, output); err != nil {
		return fmt.Errorf("failed to save replay results: %w", err)
	}
	if err := st.Register(ctx, storage.RegisteredIDs(output)); err != nil {
		return fmt.Errorf("failed to register autotests: %w", err)
	}

	rc.formatter.PrintReports(output, rc.config.Flags.Definitions)
	rc.formatter.PrintMetaStats(output)

	if rc.config.Flags.OpenViewer {
		return rc.viewer.View(output)
	}
	return nil
}
