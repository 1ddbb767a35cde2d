package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stepagg/internal/config"
	"stepagg/internal/domain"
	"stepagg/internal/execution"
	"stepagg/internal/storage"
	"stepagg/internal/ui"
)

// WatchCommand handles the watch command
type WatchCommand struct {
	config    *config.Config
	runner    *execution.Runner
	formatter *ui.Formatter
}

// NewWatchCommand creates a new WatchCommand
func NewWatchCommand(cfg *config.Config, runner *execution.Runner, formatter *ui.Formatter) *WatchCommand {
	return &WatchCommand{config: cfg, runner: runner, formatter: formatter}
}

// Execute runs the command until interrupted. Tests that pass while watching
// are registered, so their later failures are reported.
func (wc *WatchCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStorage, err := storage.Open(ctx, wc.config)
	if err != nil {
		return err
	}
	defer closeStorage()

	registered, err := st.Registered(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registered autotests: %w", err)
	}
	wc.runner.SetRegistered(registered)

	root := wc.config.GetLogPath()
	watcher := execution.NewWatcher(wc.runner, wc.config.PathsToIgnore, wc.config.Flags.Debounce, nil)

	color.Cyan("Watching %s for event logs (Ctrl+C to stop)", root)
	return watcher.Watch(ctx, root, func(result domain.ReplayResult) {
		wc.printResult(result)

		output := &domain.ReplayOutput{Reports: result.Reports}
		ids := storage.RegisteredIDs(output)
		if len(ids) == 0 {
			return
		}
		if err := st.Register(ctx, ids); err != nil {
			color.Red("✗ failed to register autotests: %v", err)
			return
		}
		// replays run one at a time, so the runner is idle here
		for _, id := range ids {
			registered[id] = true
		}
	})
}

func (wc *WatchCommand) printResult(result domain.ReplayResult) {
	fmt.Println()
	if result.Error != nil {
		color.Red("✗ %s: %v", result.LogPath, result.Error)
		return
	}
	for _, w := range result.Warnings {
		color.Yellow("⚠ %s", w)
	}
	for _, report := range result.Reports {
		wc.formatter.PrintReport(report, wc.config.Flags.Definitions)
	}
	if len(result.Reports) == 0 {
		color.Yellow("%s: no registered tests", result.LogPath)
	}
}
