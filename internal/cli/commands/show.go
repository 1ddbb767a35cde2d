package commands

import (
	"context"
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stepagg/internal/config"
	"stepagg/internal/domain"
	"stepagg/internal/storage"
	"stepagg/internal/ui"
)

// ShowCommand handles the show command
type ShowCommand struct {
	config    *config.Config
	formatter *ui.Formatter
}

// NewShowCommand creates a new ShowCommand
func NewShowCommand(cfg *config.Config, formatter *ui.Formatter) *ShowCommand {
	return &ShowCommand{config: cfg, formatter: formatter}
}

// Execute runs the command
func (sc *ShowCommand) Execute(cmd *cobra.Command, args []string) error {
	output, err := loadOutput(cmd.Context(), sc.config)
	if err != nil || output == nil {
		return err
	}

	sc.formatter.PrintReports(output, sc.config.Flags.Definitions)
	sc.formatter.PrintMetaStats(output)
	return nil
}

// loadOutput reads the last stored replay. A nil output with a nil error
// means nothing has been stored yet and the user was told so.
func loadOutput(ctx context.Context, cfg *config.Config) (*domain.ReplayOutput, error) {
	st, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStorage()

	output, err := st.Load(ctx)
	if errors.Is(err, storage.ErrNoResults) {
		color.Yellow("No stored replay found, run `stepagg replay` first")
		return nil, nil
	}
	return output, err
}
