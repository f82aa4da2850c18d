package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/relay"
	"github.com/rs/zerolog"
)

// UpdatesSource отдаёт обновления через long-poll (tgbotapi.BotAPI).
type UpdatesSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Handler обрабатывает события по одному.
type Handler interface {
	Handle(ctx context.Context, m *relay.Message)
	Sweep(ctx context.Context)
}

type PollerConfig struct {
	// long-poll таймаут getUpdates
	Timeout time.Duration
	// сколько сбоев подряд терпеть до выхода, 0 без ограничения
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Poller крутит единственный цикл приёма. Каждое событие обрабатывается
// до конца перед получением следующего.
type Poller struct {
	src    UpdatesSource
	cfg    PollerConfig
	log    zerolog.Logger
	offset int
}

func NewPoller(src UpdatesSource, cfg PollerConfig, log zerolog.Logger) *Poller {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = time.Minute
	}
	return &Poller{src: src, cfg: cfg, log: log}
}

func (p *Poller) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.cfg.InitialInterval
	eb.MaxInterval = p.cfg.MaxInterval
	eb.MaxElapsedTime = 0
	if p.cfg.MaxRetries > 0 {
		return backoff.WithMaxRetries(eb, p.cfg.MaxRetries)
	}
	return eb
}

// Run блокируется до отмены ctx. Сбои getUpdates повторяются с экспоненциальной
// задержкой; после MaxRetries подряд возвращается ошибка errs.ErrTransport.
func (p *Poller) Run(ctx context.Context, h Handler) error {
	b := p.newBackOff()
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := p.src.GetUpdates(tgbotapi.UpdateConfig{
			Offset:         p.offset,
			Timeout:        int(p.cfg.Timeout / time.Second),
			AllowedUpdates: []string{"message"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := b.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("%w: get updates: %w", errs.ErrTransport, sanitize(err))
			}
			p.log.Warn().Err(sanitize(err)).Dur("retry_in", wait).Msg("telegram: get updates failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		b.Reset()
		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			if m := convertMessage(u.Message); m != nil {
				p.handle(ctx, h, m)
			}
		}
		h.Sweep(ctx)
	}
}

func (p *Poller) handle(ctx context.Context, h Handler, m *relay.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int64("chat_id", m.ChatID).Int("message_id", m.ID).Msg("telegram: handler panic")
		}
	}()
	h.Handle(ctx, m)
}
