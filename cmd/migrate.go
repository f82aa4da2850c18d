package cmd

import (
	"fmt"

	"github.com/psds-microservice/support-relay/internal/application"
	"github.com/psds-microservice/support-relay/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	db, err := application.OpenStorage(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	if err := database.Close(db); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("migrate up: ok")
	return nil
}
