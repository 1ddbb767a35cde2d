package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stepagg/internal/cli"
	"stepagg/internal/cli/commands"
	"stepagg/internal/config"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "stepagg",
		Short:         "Step tree aggregator for recorded test runs",
		Long:          `Replays recorded test runner event logs and rebuilds, for every test, the definition tree used to register it and the result tree with per-step outcomes and durations.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults, replaced once flags are parsed
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
