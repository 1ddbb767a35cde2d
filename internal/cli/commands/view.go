package commands

import (
	"github.com/spf13/cobra"

	"stepagg/internal/config"
	"stepagg/internal/ui"
)

// ViewCommand handles the view command
type ViewCommand struct {
	config *config.Config
	viewer ui.Viewer
}

// NewViewCommand creates a new ViewCommand
func NewViewCommand(cfg *config.Config, viewer ui.Viewer) *ViewCommand {
	return &ViewCommand{config: cfg, viewer: viewer}
}

// Execute runs the command
func (vc *ViewCommand) Execute(cmd *cobra.Command, args []string) error {
	output, err := loadOutput(cmd.Context(), vc.config)
	if err != nil || output == nil {
		return err
	}
	return vc.viewer.View(output)
}
