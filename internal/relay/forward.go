package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/rs/zerolog"
)

// relayAction пересылает содержимое одного типа.
type relayAction func(ctx context.Context, tr Transport, to Target, c content.Content, replyTo int) (int, error)

var relayActions = map[content.Kind]relayAction{
	content.KindText:      sendAsIs,
	content.KindPhoto:     fetchAndSend,
	content.KindDocument:  fetchAndSend,
	content.KindVoice:     fetchAndSend,
	content.KindAudio:     fetchAndSend,
	content.KindVideo:     fetchAndSend,
	content.KindAnimation: fetchAndSend,
	content.KindVideoNote: fetchAndSend,
	content.KindSticker:   sendAsIs,
	content.KindContact:   sendAsIs,
	content.KindLocation:  sendAsIs,
	content.KindVenue:     sendAsIs,
	content.KindPoll:      describePoll,
	content.KindDice:      describeDice,
}

func sendAsIs(ctx context.Context, tr Transport, to Target, c content.Content, replyTo int) (int, error) {
	return tr.Send(ctx, to, c, replyTo)
}

// fetchAndSend скачивает файл и загружает его заново.
func fetchAndSend(ctx context.Context, tr Transport, to Target, c content.Content, replyTo int) (int, error) {
	m, ok := c.(content.Media)
	if !ok {
		return 0, fmt.Errorf("%w: %T", errs.ErrUnsupportedContent, c)
	}
	if m.File == nil {
		f, err := tr.FetchFile(ctx, m.FileID)
		if err != nil {
			return 0, fmt.Errorf("fetch %s: %w", m.Type, err)
		}
		m.File = &f
	}
	return tr.Send(ctx, to, m, replyTo)
}

func describePoll(ctx context.Context, tr Transport, to Target, c content.Content, replyTo int) (int, error) {
	p, ok := c.(content.Poll)
	if !ok {
		return 0, fmt.Errorf("%w: %T", errs.ErrUnsupportedContent, c)
	}
	return tr.Send(ctx, to, content.Text{Body: pollText(p.Question)}, replyTo)
}

func describeDice(ctx context.Context, tr Transport, to Target, c content.Content, replyTo int) (int, error) {
	d, ok := c.(content.Dice)
	if !ok {
		return 0, fmt.Errorf("%w: %T", errs.ErrUnsupportedContent, c)
	}
	return tr.Send(ctx, to, content.Text{Body: diceText(d.Value)}, replyTo)
}

type forwarder struct {
	tr Transport
}

func (f *forwarder) supports(k content.Kind) bool {
	_, ok := relayActions[k]
	return ok
}

func (f *forwarder) relay(ctx context.Context, to Target, c content.Content, replyTo int) (int, error) {
	action, ok := relayActions[c.Kind()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errs.ErrUnsupportedContent, c.Kind())
	}
	return action(ctx, f.tr, to, c, replyTo)
}

func (f *forwarder) text(ctx context.Context, to Target, text string, replyTo int) (int, error) {
	return f.tr.Send(ctx, to, content.Text{Body: text}, replyTo)
}

// untargeted пересылает содержимое в группу вне ветки: сначала подпись с номером
// тикета и id пользователя, затем само содержимое ответом на подпись.
func (f *forwarder) untargeted(ctx context.Context, staff Target, ticketID, requesterID int64, c content.Content) (int, error) {
	labelID, err := f.text(ctx, staff, untargetedLabel(ticketID, requesterID), 0)
	if err != nil {
		return 0, err
	}
	return f.relay(ctx, staff, c, labelID)
}

// backlog держит сообщения пользователей до привязки ветки тикета.
type backlog struct {
	tickets    Tickets
	fw         *forwarder
	staffGroup int64
	log        zerolog.Logger
}

// release пересылает отложенные сообщения тикета ответом на его якорь.
func (b *backlog) release(ctx context.Context, t *model.Ticket) error {
	if !t.HasAnchor() {
		return nil
	}
	items, err := b.tickets.ReleaseForwards(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("release forwards of ticket %d: %w", t.ID, err)
	}
	var errList []error
	for _, it := range items {
		if _, err := b.fw.relay(ctx, ChatTarget(b.staffGroup), it.Content, int(*t.ThreadAnchorID)); err != nil {
			errList = append(errList, fmt.Errorf("forward pending %d: %w", it.ID, err))
		}
		if err := b.tickets.DropForward(ctx, it.ID); err != nil {
			errList = append(errList, err)
		}
	}
	if len(items) > 0 {
		b.log.Info().Int64("ticket_id", t.ID).Int("count", len(items)).Msg("relay: released pending forwards")
	}
	return errors.Join(errList...)
}

// sweep пересылает без ответа на сообщение всё, что ждёт дольше maxWait.
func (b *backlog) sweep(ctx context.Context, maxWait time.Duration) error {
	items, err := b.tickets.StaleForwards(ctx, maxWait)
	if err != nil {
		return err
	}
	var errList []error
	for _, it := range items {
		b.log.Warn().Int64("ticket_id", it.TicketID).Int64("pending_id", it.ID).Msg("relay: thread anchor not linked in time, forwarding without thread")
		if _, err := b.fw.untargeted(ctx, ChatTarget(b.staffGroup), it.TicketID, it.ChatID, it.Content); err != nil {
			errList = append(errList, fmt.Errorf("forward pending %d: %w", it.ID, err))
		}
		if err := b.tickets.DropForward(ctx, it.ID); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
