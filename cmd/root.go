package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/psds-microservice/support-relay/internal/application"
	"github.com/psds-microservice/support-relay/internal/config"
	"github.com/psds-microservice/support-relay/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "support-relay",
	Short:         "Telegram support bot: relays user messages to the staff group as tickets",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(republishCmd)
}

// loadConfig читает конфигурацию и создаёт логгер по ней.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat, cfg.AppEnv), nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := application.NewBot(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := bot.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}
