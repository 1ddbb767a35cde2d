package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stepagg/internal/config"
	"stepagg/internal/migration"
)

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	config    *config.Config
	dbManager *migration.DatabaseManager
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(cfg *config.Config, dbManager *migration.DatabaseManager) *MigrateCommand {
	return &MigrateCommand{
		config:    cfg,
		dbManager: dbManager,
	}
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	color.Cyan("Preparing database %s on %s:%s", mc.config.Database.Name, mc.config.Database.Host, mc.config.Database.Port)

	applied, err := mc.dbManager.Ensure(cmd.Context())
	for _, name := range applied {
		color.Green("  ✓ %s", name)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if len(applied) == 0 {
		color.White("Nothing to migrate")
	}
	return nil
}
