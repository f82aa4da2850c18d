package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/rs/zerolog"
)

// Outbound обрабатывает текстовые сообщения группы поддержки.
type Outbound struct {
	tickets    Tickets
	fw         *forwarder
	backlog    *backlog
	staffGroup int64
	log        zerolog.Logger
}

// Handle выполняет обе проверки на каждом сообщении: ответ в ветку тикета
// и обнаружение якоря по автопересылке из канала.
func (o *Outbound) Handle(ctx context.Context, m *Message) error {
	text, ok := m.Content.(content.Text)
	if !ok {
		return nil
	}
	return errors.Join(
		o.routeReply(ctx, m, text.Body),
		o.discoverAnchor(ctx, m, text.Body),
	)
}

func (o *Outbound) routeReply(ctx context.Context, m *Message, body string) error {
	if m.ReplyTo == nil {
		return nil
	}
	id, ok := ParseTicketNumber(m.ReplyTo.Text)
	if !ok {
		return nil
	}
	ticket, err := o.tickets.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ticket #%d: %w", id, err)
	}
	log := o.log.With().Int64("ticket_id", id).Logger()
	if ticket.Closed {
		log.Debug().Msg("relay: reply to closed ticket ignored")
		return nil
	}

	if isCloseCommand(body) {
		chatID, err := o.tickets.CloseTicket(ctx, id)
		if err != nil {
			return fmt.Errorf("close ticket #%d: %w", id, err)
		}
		log.Info().Msg("relay: ticket closed")
		_, staffErr := o.fw.text(ctx, ChatTarget(m.ChatID), staffClosedText(id), 0)
		_, userErr := o.fw.text(ctx, ChatTarget(chatID), closedNoticeText, 0)
		return errors.Join(staffErr, userErr)
	}

	ticket, err = o.tickets.RecordStaffReply(ctx, id, body)
	if errors.Is(err, errs.ErrTicketAlreadyClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record reply to ticket #%d: %w", id, err)
	}
	if _, err := o.fw.text(ctx, ChatTarget(ticket.RequesterChatID), body, 0); err != nil {
		return fmt.Errorf("deliver reply to ticket #%d: %w", id, err)
	}
	return nil
}

// discoverAnchor делает автопересланный из канала анонс якорем ветки тикета.
// Эхо принимается, только если это анонс текущего активного тикета пользователя.
func (o *Outbound) discoverAnchor(ctx context.Context, m *Message, body string) error {
	if m.ChatID != o.staffGroup || !m.AutoForward {
		return nil
	}
	id, ok := ParseTicketNumber(body)
	if !ok {
		return nil
	}
	log := o.log.With().Int64("ticket_id", id).Int("anchor_id", m.ID).Logger()
	announced, err := o.tickets.GetByID(ctx, id)
	if errors.Is(err, errs.ErrTicketNotFound) {
		log.Debug().Msg("relay: echo of unknown ticket ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ticket #%d: %w", id, err)
	}
	if !isAnnouncementOf(body, announced) {
		log.Debug().Msg("relay: echo is not an announcement")
		return nil
	}
	ticket, err := o.tickets.RebindReplyTarget(ctx, int64(m.ID), announced.ID, announced.RequesterChatID)
	if err != nil {
		return fmt.Errorf("rebind reply target: %w", err)
	}
	if ticket == nil {
		log.Debug().Msg("relay: echo of inactive ticket ignored")
		return nil
	}
	log.Info().Msg("relay: thread anchor linked")
	return o.backlog.release(ctx, ticket)
}
