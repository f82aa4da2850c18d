// Package telegram реализует транспорт мессенджера поверх Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/relay"
	"github.com/rs/zerolog"
)

// предел Bot API на скачивание файла
const maxDownloadSize = 20 << 20

// Client реализует relay.Transport.
type Client struct {
	bot  *tgbotapi.BotAPI
	http *http.Client
	log  zerolog.Logger
}

// NewClient подключается к Bot API (getMe). Таймаут HTTP больше long-poll таймаута.
func NewClient(token string, pollTimeout time.Duration, log zerolog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: pollTimeout + 15*time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: connect bot: %w", errs.ErrTransport, sanitize(err))
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram: authorized")
	return &Client{bot: bot, http: httpClient, log: log}, nil
}

// Bot возвращает клиент Bot API для цикла приёма.
func (c *Client) Bot() *tgbotapi.BotAPI {
	return c.bot
}

func (c *Client) Send(ctx context.Context, to relay.Target, msg content.Content, replyTo int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	chattable, err := buildChattable(to, msg, replyTo)
	if err != nil {
		return 0, err
	}
	sent, err := c.bot.Send(chattable)
	if err != nil {
		return 0, fmt.Errorf("%w: send %s to %s: %w", errs.ErrTransport, msg.Kind(), to, sanitize(err))
	}
	return sent.MessageID, nil
}

// FetchFile скачивает файл по его FileID.
func (c *Client) FetchFile(ctx context.Context, fileID string) (content.File, error) {
	link, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return content.File{}, fmt.Errorf("%w: get file %s: %w", errs.ErrTransport, fileID, sanitize(err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return content.File{}, fmt.Errorf("download file %s: %w", fileID, sanitize(err))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return content.File{}, fmt.Errorf("%w: download file %s: %w", errs.ErrTransport, fileID, sanitize(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return content.File{}, fmt.Errorf("%w: download file %s: status %d", errs.ErrTransport, fileID, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return content.File{}, fmt.Errorf("%w: read file %s: %w", errs.ErrTransport, fileID, sanitize(err))
	}
	if len(data) > maxDownloadSize {
		return content.File{}, fmt.Errorf("download file %s: larger than %d bytes", fileID, maxDownloadSize)
	}
	return content.File{Name: path.Base(link), Data: data}, nil
}

// sanitize убирает URL запроса из ошибки: в нём токен бота.
func sanitize(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
