package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/support-relay/internal/config"
	"github.com/psds-microservice/support-relay/internal/database"
	"github.com/psds-microservice/support-relay/internal/handler"
	"github.com/psds-microservice/support-relay/internal/kafka"
	"github.com/psds-microservice/support-relay/internal/relay"
	"github.com/psds-microservice/support-relay/internal/router"
	"github.com/psds-microservice/support-relay/internal/service"
	"github.com/psds-microservice/support-relay/internal/store"
	"github.com/psds-microservice/support-relay/internal/telegram"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Bot объединяет цикл приёма Telegram и административный HTTP API.
type Bot struct {
	cfg      *config.Config
	log      zerolog.Logger
	db       *gorm.DB
	producer *kafka.Producer
	poller   *telegram.Poller
	relay    *relay.Relay
	httpSrv  *http.Server
}

// OpenStorage подготавливает базу: создаёт (postgres), открывает и мигрирует.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.DB.Driver == database.DriverPostgres {
		if err := database.EnsureDatabase(cfg.DatabaseURL(), log); err != nil {
			return nil, fmt.Errorf("ensure database: %w", err)
		}
	}
	db, err := database.Open(cfg.DB.Driver, cfg.StorageDSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.MigrateUp(ctx, db, cfg.DB.Driver, log); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewBot собирает все компоненты. Ошибка конфигурации не даёт процессу стартовать.
func NewBot(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	broadcast, err := cfg.Broadcast()
	if err != nil {
		return nil, err
	}

	db, err := OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	producer := kafka.NewProducer(kafka.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopicTicket, log)
	ticketSvc := service.NewTicketService(store.NewTicketStore(db), producer, log)

	client, err := telegram.NewClient(cfg.APIToken, cfg.PollTimeout, log)
	if err != nil {
		_ = producer.Close()
		_ = database.Close(db)
		return nil, err
	}
	rl := relay.New(ticketSvc, client, relay.Options{
		Broadcast:  broadcast,
		StaffGroup: cfg.GroupID,
		AnchorWait: cfg.AnchorWait,
	}, log)
	poller := telegram.NewPoller(client.Bot(), telegram.PollerConfig{
		Timeout:    cfg.PollTimeout,
		MaxRetries: cfg.PollMaxRetries,
	}, log)

	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(handler.NewTicketHandler(ticketSvc), ping),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Bot{
		cfg:      cfg,
		log:      log,
		db:       db,
		producer: producer,
		poller:   poller,
		relay:    rl,
		httpSrv:  httpSrv,
	}, nil
}

// Run блокируется до отмены ctx или фатального сбоя приёма.
func (b *Bot) Run(ctx context.Context) error {
	host := b.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + b.cfg.HTTPPort
	b.log.Info().
		Str("addr", b.httpSrv.Addr).
		Str("swagger", base+"/swagger").
		Str("api", base+"/api/v1/").
		Msg("HTTP server listening")

	go func() {
		if err := b.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error().Err(err).Msg("http")
		}
	}()

	b.log.Info().Int64("group_id", b.cfg.GroupID).Str("channel", b.cfg.ChannelID).Msg("relay started")
	runErr := b.poller.Run(ctx, b.relay)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.httpSrv.Shutdown(shutdownCtx); err != nil {
		b.log.Warn().Err(err).Msg("http shutdown")
	}
	if err := b.producer.Close(); err != nil {
		b.log.Warn().Err(err).Msg("kafka close")
	}
	if err := database.Close(b.db); err != nil {
		b.log.Warn().Err(err).Msg("database close")
	}
	return runErr
}
