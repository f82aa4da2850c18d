package relay

import (
	"context"
	"fmt"

	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/psds-microservice/support-relay/internal/service"
	"github.com/rs/zerolog"
)

// Inbound обрабатывает личные сообщения пользователей.
type Inbound struct {
	tickets Tickets
	fw      *forwarder
	opts    Options
	log     zerolog.Logger
}

func (in *Inbound) Handle(ctx context.Context, m *Message) error {
	if m.Command == "start" {
		_, err := in.fw.text(ctx, ChatTarget(m.ChatID), welcomeText, m.ID)
		return err
	}
	if !in.fw.supports(m.Content.Kind()) {
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedContent, m.Content.Kind())
	}
	ticket, ok, err := in.tickets.ActiveTicketFor(ctx, m.ChatID)
	if err != nil {
		return fmt.Errorf("active ticket: %w", err)
	}
	if !ok {
		return in.open(ctx, m)
	}
	return in.follow(ctx, ticket, m)
}

// open создаёт тикет и публикует анонс в канале.
func (in *Inbound) open(ctx context.Context, m *Message) error {
	ticket, err := in.tickets.OpenTicket(ctx, service.OpenTicketRequest{
		RequesterID: m.SenderID,
		ChatID:      m.ChatID,
		DisplayName: m.SenderName,
		Summary:     content.Summary(m.Content),
	})
	if err != nil {
		return fmt.Errorf("open ticket: %w", err)
	}
	log := in.log.With().Int64("ticket_id", ticket.ID).Logger()
	log.Info().Int64("requester_id", ticket.RequesterID).Msg("relay: ticket opened")

	announceID, err := in.announce(ctx, ticket)
	if err != nil {
		return err
	}
	if m.Content.Kind() != content.KindText {
		if _, err := in.fw.relay(ctx, in.opts.Broadcast, m.Content, announceID); err != nil {
			log.Warn().Err(err).Str("kind", string(m.Content.Kind())).Msg("relay: first message content not relayed")
		}
	}
	_, err = in.fw.text(ctx, ChatTarget(m.ChatID), acceptedText, m.ID)
	return err
}

// announce публикует анонс тикета, запоминает его id и, если анонс вышел прямо
// в группе, делает его якорем ветки.
func (in *Inbound) announce(ctx context.Context, ticket *model.Ticket) (int, error) {
	log := in.log.With().Int64("ticket_id", ticket.ID).Logger()
	announceID, err := in.fw.text(ctx, in.opts.Broadcast, announcementText(ticket), 0)
	if err != nil {
		return 0, fmt.Errorf("announce ticket %d: %w", ticket.ID, err)
	}
	msgID := int64(announceID)
	if err := in.tickets.RecordAnnouncement(ctx, ticket.ID, msgID); err != nil {
		log.Warn().Err(err).Msg("relay: record announcement")
	} else {
		ticket.AnnouncementMessageID = &msgID
	}
	if in.opts.Broadcast.Is(in.opts.StaffGroup) {
		if err := in.tickets.LinkThreadAnchor(ctx, ticket.ID, msgID); err != nil {
			log.Warn().Err(err).Msg("relay: link thread anchor")
		} else if !ticket.HasAnchor() {
			ticket.ThreadAnchorID = &msgID
		}
	}
	return announceID, nil
}

// follow пересылает сообщение в ветку открытого тикета. Если анонс тикета
// так и не был опубликован, он публикуется сначала.
func (in *Inbound) follow(ctx context.Context, ticket *model.Ticket, m *Message) error {
	if ticket.AnnouncementMessageID == nil {
		in.log.Info().Int64("ticket_id", ticket.ID).Msg("relay: announcing ticket again")
		if _, err := in.announce(ctx, ticket); err != nil {
			return err
		}
	}
	staff := ChatTarget(in.opts.StaffGroup)
	if ticket.HasAnchor() {
		if _, err := in.fw.relay(ctx, staff, m.Content, int(*ticket.ThreadAnchorID)); err != nil {
			return fmt.Errorf("forward to ticket %d: %w", ticket.ID, err)
		}
		return nil
	}
	if in.opts.AnchorWait > 0 {
		in.log.Debug().Int64("ticket_id", ticket.ID).Msg("relay: thread anchor not linked yet, deferring")
		return in.tickets.DeferForward(ctx, ticket.ID, m.ChatID, m.Content)
	}
	if _, err := in.fw.untargeted(ctx, staff, ticket.ID, ticket.RequesterID, m.Content); err != nil {
		return fmt.Errorf("forward to ticket %d: %w", ticket.ID, err)
	}
	return nil
}
