// Package relay маршрутизирует сообщения между пользователями и группой поддержки.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/psds-microservice/support-relay/internal/service"
	"github.com/rs/zerolog"
)

// Target задаёт адресата отправки: числовой id чата или @username канала.
type Target struct {
	ChatID   int64
	Username string
}

func ChatTarget(id int64) Target {
	return Target{ChatID: id}
}

// ParseTarget разбирает "-100123" или "@channel".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "@") && len(s) > 1 {
		return Target{Username: s}, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return Target{}, fmt.Errorf("invalid chat target %q", s)
	}
	return Target{ChatID: id}, nil
}

// Is сообщает, указывает ли адресат на чат chatID.
func (t Target) Is(chatID int64) bool {
	return t.Username == "" && t.ChatID == chatID
}

func (t Target) String() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ChatID, 10)
}

// Transport отправляет сообщения и скачивает файлы мессенджера.
type Transport interface {
	// Send отправляет содержимое; при replyTo == 0 без ответа на сообщение.
	// Возвращает id отправленного сообщения.
	Send(ctx context.Context, to Target, c content.Content, replyTo int) (int, error)
	FetchFile(ctx context.Context, fileID string) (content.File, error)
}

// Tickets перечисляет операции над тикетами, нужные маршрутизаторам.
type Tickets interface {
	OpenTicket(ctx context.Context, req service.OpenTicketRequest) (*model.Ticket, error)
	RecordStaffReply(ctx context.Context, id int64, text string) (*model.Ticket, error)
	CloseTicket(ctx context.Context, id int64) (int64, error)
	LinkThreadAnchor(ctx context.Context, id, anchorID int64) error
	RecordAnnouncement(ctx context.Context, id, messageID int64) error
	RebindReplyTarget(ctx context.Context, anchorID, ticketID, chatID int64) (*model.Ticket, error)
	ActiveTicketFor(ctx context.Context, chatID int64) (*model.Ticket, bool, error)
	GetByID(ctx context.Context, id int64) (*model.Ticket, error)

	DeferForward(ctx context.Context, ticketID, chatID int64, c content.Content) error
	ReleaseForwards(ctx context.Context, ticketID int64) ([]service.Forward, error)
	StaleForwards(ctx context.Context, maxWait time.Duration) ([]service.Forward, error)
	DropForward(ctx context.Context, id int64) error
}

// Message это входящее сообщение, уже разобранное транспортом.
type Message struct {
	ID         int
	ChatID     int64
	Private    bool
	SenderID   int64
	SenderName string
	// сообщение переслано в группу автоматически из связанного канала
	AutoForward bool
	// команда без "/" и упоминания бота, например "start"
	Command string
	Content content.Content
	ReplyTo *Quote
}

// Quote описывает сообщение, на которое ответили.
type Quote struct {
	ID   int
	Text string
}

// Options задаёт чаты поддержки.
type Options struct {
	// канал, куда публикуются анонсы новых тикетов
	Broadcast Target
	// группа сотрудников
	StaffGroup int64
	// сколько держать сообщения пользователя до привязки ветки;
	// при 0 они пересылаются сразу, вне ветки
	AnchorWait time.Duration
}

// Relay принимает события по одному и доводит каждое до конца.
type Relay struct {
	inbound  *Inbound
	outbound *Outbound
	backlog  *backlog
	fw       *forwarder
	opts     Options
	log      zerolog.Logger
}

func New(tickets Tickets, tr Transport, opts Options, log zerolog.Logger) *Relay {
	fw := &forwarder{tr: tr}
	bl := &backlog{tickets: tickets, fw: fw, staffGroup: opts.StaffGroup, log: log}
	return &Relay{
		inbound:  &Inbound{tickets: tickets, fw: fw, opts: opts, log: log},
		outbound: &Outbound{tickets: tickets, fw: fw, backlog: bl, staffGroup: opts.StaffGroup, log: log},
		backlog:  bl,
		fw:       fw,
		opts:     opts,
		log:      log,
	}
}

// Handle обрабатывает одно событие. Ошибки не выходят наружу: они логируются
// и по возможности превращаются в текстовое уведомление.
func (r *Relay) Handle(ctx context.Context, m *Message) {
	if m == nil || m.Content == nil {
		return
	}
	log := r.log.With().Int64("chat_id", m.ChatID).Int("message_id", m.ID).Logger()
	switch {
	case m.Private:
		if err := r.inbound.Handle(ctx, m); err != nil {
			r.inboundFailed(ctx, m, err, log)
		}
	case m.ChatID == r.opts.StaffGroup:
		if err := r.outbound.Handle(ctx, m); err != nil {
			r.outboundFailed(ctx, m, err, log)
		}
	default:
		log.Debug().Msg("relay: message from unknown chat ignored")
	}
}

// Sweep пересылает без привязки к ветке сообщения, ждущие якорь дольше AnchorWait.
func (r *Relay) Sweep(ctx context.Context) {
	if r.opts.AnchorWait <= 0 {
		return
	}
	if err := r.backlog.sweep(ctx, r.opts.AnchorWait); err != nil {
		r.log.Error().Err(err).Msg("relay: sweep pending forwards")
	}
}

func (r *Relay) inboundFailed(ctx context.Context, m *Message, err error, log zerolog.Logger) {
	text := processingErrorText
	if errors.Is(err, errs.ErrUnsupportedContent) {
		log.Warn().Err(err).Msg("relay: unsupported content")
		text = unsupportedText
	} else {
		log.Error().Err(err).Msg("relay: inbound message")
	}
	if _, err := r.fw.text(ctx, ChatTarget(m.ChatID), text, m.ID); err != nil {
		log.Error().Err(err).Msg("relay: notify requester about failure")
	}
}

func (r *Relay) outboundFailed(ctx context.Context, m *Message, err error, log zerolog.Logger) {
	log.Error().Err(err).Msg("relay: staff message")
	text := staffErrorText
	if errors.Is(err, errs.ErrTicketNotFound) {
		text = staffTicketNotFoundText
	}
	if _, err := r.fw.text(ctx, ChatTarget(m.ChatID), text, m.ID); err != nil {
		log.Error().Err(err).Msg("relay: notify staff about failure")
	}
}
