package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/kafka"
	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/psds-microservice/support-relay/internal/store"
	"github.com/rs/zerolog"
)

// OpenTicketRequest несёт данные первого сообщения пользователя.
type OpenTicketRequest struct {
	RequesterID int64
	ChatID      int64
	DisplayName string
	Summary     string
}

// TicketService ведёт жизненный цикл тикета. Только он работает с хранилищем.
type TicketService struct {
	store  store.Store
	events kafka.TicketEventProducer
	log    zerolog.Logger
	now    func() time.Time
}

func NewTicketService(st store.Store, events kafka.TicketEventProducer, log zerolog.Logger) *TicketService {
	return &TicketService{
		store:  st,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// OpenTicket всегда создаёт новый тикет и делает его активным для чата.
// Индекс активных тикетов проверяет вызывающий.
func (s *TicketService) OpenTicket(ctx context.Context, req OpenTicketRequest) (*model.Ticket, error) {
	var ticket *model.Ticket
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		id, err := tx.AllocateNextID(ctx)
		if err != nil {
			return fmt.Errorf("allocate id: %w", err)
		}
		now := s.now()
		t := &model.Ticket{
			ID:                    id,
			RequesterID:           req.RequesterID,
			RequesterChatID:       req.ChatID,
			RequesterDisplayName:  req.DisplayName,
			InitialMessageSummary: req.Summary,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := tx.InsertTicket(ctx, t); err != nil {
			return fmt.Errorf("insert ticket %d: %w", id, err)
		}
		if err := tx.SetActive(ctx, req.ChatID, id); err != nil {
			return fmt.Errorf("set active: %w", err)
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, kafka.EventTicketOpened, ticket)
	return ticket, nil
}

// RecordStaffReply дописывает ответ сотрудника в комментарии тикета.
// Для закрытого тикета возвращает errs.ErrTicketAlreadyClosed и ничего не меняет.
func (s *TicketService) RecordStaffReply(ctx context.Context, id int64, text string) (*model.Ticket, error) {
	var ticket *model.Ticket
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if t.Closed {
			return errs.ErrTicketAlreadyClosed
		}
		if t.StaffCommentary == "" {
			t.StaffCommentary = text
		} else {
			t.StaffCommentary += "\n" + text
		}
		if err := tx.UpdateCommentary(ctx, id, t.StaffCommentary); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, kafka.EventTicketReplied, ticket)
	return ticket, nil
}

// CloseTicket закрывает тикет и возвращает чат пользователя для уведомления.
// Повторное закрытие ничего не меняет и возвращает тот же результат.
func (s *TicketService) CloseTicket(ctx context.Context, id int64) (int64, error) {
	var (
		ticket *model.Ticket
		closed bool
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		ticket = t
		if t.Closed {
			return nil
		}
		now := s.now()
		if err := tx.SetClosed(ctx, id, now); err != nil {
			return err
		}
		if err := tx.ClearActive(ctx, t.RequesterChatID); err != nil {
			return fmt.Errorf("clear active: %w", err)
		}
		t.Closed = true
		t.ClosedAt = &now
		closed = true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if closed {
		s.emit(ctx, kafka.EventTicketClosed, ticket)
	}
	return ticket.RequesterChatID, nil
}

// LinkThreadAnchor фиксирует сообщение в группе поддержки, в ветку которого идут ответы.
// Уже привязанный якорь не меняется.
func (s *TicketService) LinkThreadAnchor(ctx context.Context, id, anchorID int64) error {
	var ticket *model.Ticket
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if t.HasAnchor() {
			return nil
		}
		if err := tx.SetThreadAnchor(ctx, id, anchorID); err != nil {
			return err
		}
		t.ThreadAnchorID = &anchorID
		ticket = t
		return nil
	})
	if err != nil {
		return err
	}
	if ticket != nil {
		s.emit(ctx, kafka.EventTicketLinked, ticket)
	}
	return nil
}

// RecordAnnouncement сохраняет id анонса тикета в канале.
func (s *TicketService) RecordAnnouncement(ctx context.Context, id, messageID int64) error {
	return s.store.SetAnnouncement(ctx, id, messageID)
}

// RebindReplyTarget переносит якорь ветки тикета ticketID на сообщение anchorID,
// только если это текущий активный тикет чата chatID. Иначе возвращает nil.
func (s *TicketService) RebindReplyTarget(ctx context.Context, anchorID, ticketID, chatID int64) (*model.Ticket, error) {
	var ticket *model.Ticket
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		id, ok, err := tx.GetActiveTicketFor(ctx, chatID)
		if err != nil || !ok || id != ticketID {
			return err
		}
		t, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.SetThreadAnchor(ctx, id, anchorID); err != nil {
			return err
		}
		t.ThreadAnchorID = &anchorID
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ticket != nil {
		s.emit(ctx, kafka.EventTicketLinked, ticket)
	}
	return ticket, nil
}

// ActiveTicketFor возвращает открытый тикет чата, если он есть.
func (s *TicketService) ActiveTicketFor(ctx context.Context, chatID int64) (*model.Ticket, bool, error) {
	id, ok, err := s.store.GetActiveTicketFor(ctx, chatID)
	if err != nil || !ok {
		return nil, false, err
	}
	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("active ticket %d: %w", id, err)
	}
	return t, true, nil
}

func (s *TicketService) GetByID(ctx context.Context, id int64) (*model.Ticket, error) {
	return s.store.GetTicket(ctx, id)
}

func (s *TicketService) List(ctx context.Context, filter store.Filter, limit, offset int) ([]model.Ticket, int64, error) {
	return s.store.ListTickets(ctx, filter, limit, offset)
}

// Republish отправляет снимок каждого тикета в поток событий, страницами по pageSize.
// progress вызывается после каждой страницы.
func (s *TicketService) Republish(ctx context.Context, pageSize int, progress func(done int, total int64)) (int, error) {
	if s.events == nil {
		return 0, nil
	}
	done := 0
	for {
		items, total, err := s.store.ListTickets(ctx, store.Filter{}, pageSize, done)
		if err != nil {
			return done, fmt.Errorf("list tickets: %w", err)
		}
		for i := range items {
			s.events.ProduceTicketEvent(ctx, kafka.EventTicketSnapshot, &items[i])
		}
		done += len(items)
		if progress != nil {
			progress(done, total)
		}
		if len(items) < pageSize || int64(done) >= total {
			return done, nil
		}
	}
}

// Forward описывает отложенное сообщение пользователя.
type Forward struct {
	ID       int64
	TicketID int64
	ChatID   int64
	Content  content.Content
}

// DeferForward откладывает пересылку до привязки ветки тикета.
func (s *TicketService) DeferForward(ctx context.Context, ticketID, chatID int64, c content.Content) error {
	kind, payload, err := content.Encode(c)
	if err != nil {
		return err
	}
	return s.store.InsertPending(ctx, &model.PendingForward{
		TicketID:  ticketID,
		ChatID:    chatID,
		Kind:      string(kind),
		Payload:   payload,
		CreatedAt: s.now(),
	})
}

// ReleaseForwards возвращает отложенные сообщения тикета в порядке поступления.
func (s *TicketService) ReleaseForwards(ctx context.Context, ticketID int64) ([]Forward, error) {
	rows, err := s.store.ListPendingFor(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.decode(ctx, rows), nil
}

// StaleForwards возвращает отложенные сообщения, ждущие дольше maxWait.
func (s *TicketService) StaleForwards(ctx context.Context, maxWait time.Duration) ([]Forward, error) {
	rows, err := s.store.ListPendingBefore(ctx, s.now().Add(-maxWait))
	if err != nil {
		return nil, err
	}
	return s.decode(ctx, rows), nil
}

// DropForward удаляет отложенное сообщение после попытки пересылки.
func (s *TicketService) DropForward(ctx context.Context, id int64) error {
	return s.store.DeletePending(ctx, id)
}

func (s *TicketService) decode(ctx context.Context, rows []model.PendingForward) []Forward {
	out := make([]Forward, 0, len(rows))
	for _, r := range rows {
		c, err := content.Decode(content.Kind(r.Kind), r.Payload)
		if err != nil {
			s.log.Error().Err(err).Int64("pending_id", r.ID).Msg("drop undecodable pending forward")
			if err := s.store.DeletePending(ctx, r.ID); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error().Err(err).Int64("pending_id", r.ID).Msg("delete pending forward")
			}
			continue
		}
		out = append(out, Forward{ID: r.ID, TicketID: r.TicketID, ChatID: r.ChatID, Content: c})
	}
	return out
}

func (s *TicketService) emit(ctx context.Context, event string, t *model.Ticket) {
	if s.events == nil {
		return
	}
	s.events.ProduceTicketEvent(ctx, event, t)
}
