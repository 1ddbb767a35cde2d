package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stepagg/internal/cli"
	"stepagg/internal/config"
	"stepagg/internal/discovery"
	"stepagg/internal/execution"
	"stepagg/internal/logging"
	"stepagg/internal/migration"
	"stepagg/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Replay  *ReplayCommand
	List    *ListCommand
	Show    *ShowCommand
	View    *ViewCommand
	Migrate *MigrateCommand
	Watch   *WatchCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	// Initialize dependencies
	filter := discovery.NewFilter()
	parser := discovery.NewParser()
	runner := execution.NewRunner(cfg, nil)
	scheduler := execution.NewRoundRobinScheduler()
	executor := execution.NewWorkerPool(cfg, runner, scheduler)
	formatter := ui.NewFormatter(cfg, parser)
	viewer := ui.NewReportViewer()
	dbManager := migration.NewDatabaseManager(cfg, migration.NewSchemaMigrator(migration.Migrations))

	return &Commands{
		Replay:  NewReplayCommand(cfg, filter, runner, executor, formatter, viewer),
		List:    NewListCommand(cfg, filter, scheduler, formatter),
		Show:    NewShowCommand(cfg, formatter),
		View:    NewViewCommand(cfg, viewer),
		Migrate: NewMigrateCommand(cfg, dbManager),
		Watch:   NewWatchCommand(cfg, runner, formatter),
	}
}

// scanLogs discovers and filters event logs. Ignored directories come from the
// loaded config, so the scanner is built per call.
func scanLogs(cfg *config.Config, filter *discovery.Filter) ([]string, error) {
	logs, err := discovery.NewScanner(cfg.PathsToIgnore).Scan(cfg.GetLogPath())
	if err != nil {
		return nil, err
	}
	logs = filter.FilterByName(logs, cfg.Flags.NameFilter)
	if len(logs) == 0 {
		return nil, fmt.Errorf("%w matching %q", discovery.ErrNoLogs, cfg.Flags.NameFilter)
	}
	return logs, nil
}

// prepare loads the project config once flags are parsed
func prepare(flags *cli.Flags, cfg *config.Config) error {
	loaded, err := config.Load(flags.ProjectPath)
	if err != nil {
		return err
	}
	// dependencies hold cfg, so it is updated in place
	*cfg = *loaded
	cfg.ApplyFlags(flags.ToConfigFlags())

	if _, err := logging.Configure(cfg.LogLevel, os.Stderr); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	return nil
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&flags.ProjectPath, "project-path", config.DefaultProjectPath, "Project root holding .stepagg.yml, .env and the storage folder")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return prepare(flags, cfg)
	}

	// Replay command
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded event logs into step trees",
		Long:  "Discover recorded event logs, rebuild the definition and result step trees of every test, and store the reports",
		RunE:  c.Replay.Execute,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
	}
	replayCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of logs replayed in parallel")
	replayCmd.Flags().StringVarP(&flags.LogPath, "log-path", "l", "", "Folder where event log discovery starts")
	replayCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter logs by name pattern or path glob (e.g. '*checkout*', 'e2e/**/*.yml')")
	replayCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop after the first log that fails to replay or has a failed test")
	replayCmd.Flags().BoolVar(&flags.MySQL, "mysql", false, "Store reports in MySQL instead of the JSON file")
	replayCmd.Flags().BoolVar(&flags.Strict, "strict", false, "Fail a log on the first undecodable line")
	replayCmd.Flags().BoolVar(&flags.OpenViewer, "open", false, "Open the interactive viewer when the replay finishes")
	replayCmd.Flags().BoolVarP(&flags.Definitions, "definitions", "d", false, "Print definition trees instead of result trees")
	replayCmd.Flags().StringVar(&flags.ProjectID, "project-id", "", "Project id written into autotest payloads")
	replayCmd.Flags().StringVar(&flags.ConfigurationID, "configuration-id", "", "Configuration id written into result payloads")
	rootCmd.AddCommand(replayCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered event logs",
		Long:  "Scan and list recorded event logs without replaying them",
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.LogPath, "log-path", "l", "", "Folder where event log discovery starts")
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter logs by name pattern or path glob (e.g. '*checkout*', 'e2e/**/*.yml')")
	listCmd.Flags().BoolVarP(&flags.ShowTests, "tests", "t", false, "List the tests recorded in every log")
	listCmd.Flags().BoolVar(&flags.ShowSchedule, "plan", false, "Show how logs are distributed across workers")
	listCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of workers for --plan")
	rootCmd.AddCommand(listCmd)

	// Show command
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored reports as step trees",
		RunE:  c.Show.Execute,
	}
	showCmd.Flags().BoolVarP(&flags.Definitions, "definitions", "d", false, "Print definition trees instead of result trees")
	showCmd.Flags().BoolVar(&flags.MySQL, "mysql", false, "Read reports from MySQL instead of the JSON file")
	rootCmd.AddCommand(showCmd)

	// View command
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the stored reports interactively",
		Long:  "Display the tests of the last replay with their step trees in an interactive viewer",
		RunE:  c.View.Execute,
	}
	viewCmd.Flags().BoolVar(&flags.MySQL, "mysql", false, "Read reports from MySQL instead of the JSON file")
	rootCmd.AddCommand(viewCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the MySQL report schema",
		Long:  "Create the report database when missing and apply pending schema migrations",
		RunE:  c.Migrate.Execute,
	}
	rootCmd.AddCommand(migrateCmd)

	// Watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay event logs as they are written",
		Long:  "Watch the log folder and print the step trees of every event log that is created or changed",
		RunE:  c.Watch.Execute,
	}
	watchCmd.Flags().StringVarP(&flags.LogPath, "log-path", "l", "", "Folder to watch for event logs")
	watchCmd.Flags().BoolVar(&flags.Strict, "strict", false, "Fail a log on the first undecodable line")
	watchCmd.Flags().BoolVarP(&flags.Definitions, "definitions", "d", false, "Print definition trees instead of result trees")
	watchCmd.Flags().DurationVar(&flags.Debounce, "debounce", execution.DefaultDebounce, "How long a log must stay unchanged before it is replayed")
	rootCmd.AddCommand(watchCmd)
}
