package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/support-relay/internal/application"
	"github.com/psds-microservice/support-relay/internal/database"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/kafka"
	"github.com/psds-microservice/support-relay/internal/service"
	"github.com/psds-microservice/support-relay/internal/store"
	"github.com/spf13/cobra"
)

const republishPage = 100

var republishCmd = &cobra.Command{
	Use:   "republish",
	Short: "Send a ticket.snapshot event for every stored ticket to Kafka",
	RunE:  runRepublish,
}

func runRepublish(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	brokers := kafka.ParseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 || cfg.KafkaTopicTicket == "" {
		return fmt.Errorf("%w: KAFKA_BROKERS and KAFKA_TOPIC_TICKET are required", errs.ErrConfiguration)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := application.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	producer := kafka.NewProducer(brokers, cfg.KafkaTopicTicket, log)
	svc := service.NewTicketService(store.NewTicketStore(db), producer, log)

	sent, err := svc.Republish(ctx, republishPage, func(done int, total int64) {
		log.Info().Int("sent", done).Int64("total", total).Msg("republish: progress")
	})
	closeErr := producer.Close()
	if err != nil {
		return fmt.Errorf("republish: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("republish: flush kafka: %w", closeErr)
	}
	log.Info().Int("sent", sent).Msg("republish: done")
	return nil
}
