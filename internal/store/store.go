// Package store хранит тикеты и индекс активных тикетов.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/model"
	"gorm.io/gorm"
)

// Store описывает операции хранилища для менеджера жизненного цикла тикетов.
type Store interface {
	// Transaction выполняет fn атомарно; fn получает Store, привязанный к транзакции.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	AllocateNextID(ctx context.Context) (int64, error)
	InsertTicket(ctx context.Context, t *model.Ticket) error
	GetTicket(ctx context.Context, id int64) (*model.Ticket, error)
	ListTickets(ctx context.Context, filter Filter, limit, offset int) ([]model.Ticket, int64, error)
	UpdateCommentary(ctx context.Context, id int64, text string) error
	SetClosed(ctx context.Context, id int64, at time.Time) error
	SetThreadAnchor(ctx context.Context, id, anchorID int64) error
	SetAnnouncement(ctx context.Context, id, messageID int64) error

	GetActiveTicketFor(ctx context.Context, chatID int64) (int64, bool, error)
	SetActive(ctx context.Context, chatID, ticketID int64) error
	ClearActive(ctx context.Context, chatID int64) error

	InsertPending(ctx context.Context, p *model.PendingForward) error
	ListPendingFor(ctx context.Context, ticketID int64) ([]model.PendingForward, error)
	ListPendingBefore(ctx context.Context, before time.Time) ([]model.PendingForward, error)
	DeletePending(ctx context.Context, id int64) error
}

// Filter задаёт условия выборки для ListTickets. Нулевые поля не фильтруют.
type Filter struct {
	RequesterID int64
	Closed      *bool
}

// TicketStore реализует Store поверх gorm.
type TicketStore struct {
	db *gorm.DB
}

func NewTicketStore(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TicketStore{db: tx})
	})
}

// AllocateNextID возвращает max(id)+1 или 1 для пустой таблицы.
// Вызывать внутри Transaction вместе с InsertTicket: на postgres таблица
// блокируется до конца транзакции.
func (s *TicketStore) AllocateNextID(ctx context.Context) (int64, error) {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("LOCK TABLE tickets IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return 0, err
		}
	}
	var maxID int64
	if err := db.Model(&model.Ticket{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

func (s *TicketStore) InsertTicket(ctx context.Context, t *model.Ticket) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", t.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return errs.ErrDuplicateID
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.ErrDuplicateID
		}
		return err
	}
	return nil
}

func (s *TicketStore) GetTicket(ctx context.Context, id int64) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TicketStore) ListTickets(ctx context.Context, filter Filter, limit, offset int) ([]model.Ticket, int64, error) {
	var items []model.Ticket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	if filter.RequesterID != 0 {
		tx = tx.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.Closed != nil {
		tx = tx.Where("closed = ?", *filter.Closed)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *TicketStore) UpdateCommentary(ctx context.Context, id int64, text string) error {
	return s.update(ctx, id, map[string]interface{}{"staff_commentary": text})
}

func (s *TicketStore) SetClosed(ctx context.Context, id int64, at time.Time) error {
	return s.update(ctx, id, map[string]interface{}{"closed": true, "closed_at": at})
}

func (s *TicketStore) SetThreadAnchor(ctx context.Context, id, anchorID int64) error {
	return s.update(ctx, id, map[string]interface{}{"thread_anchor_id": anchorID})
}

func (s *TicketStore) SetAnnouncement(ctx context.Context, id, messageID int64) error {
	return s.update(ctx, id, map[string]interface{}{"announcement_message_id": messageID})
}

func (s *TicketStore) update(ctx context.Context, id int64, changes map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrTicketNotFound
	}
	return nil
}

func (s *TicketStore) GetActiveTicketFor(ctx context.Context, chatID int64) (int64, bool, error) {
	var row model.ActiveTicket
	err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.TicketID, true, nil
}

func (s *TicketStore) SetActive(ctx context.Context, chatID, ticketID int64) error {
	return s.db.WithContext(ctx).Create(&model.ActiveTicket{ChatID: chatID, TicketID: ticketID}).Error
}

func (s *TicketStore) ClearActive(ctx context.Context, chatID int64) error {
	return s.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&model.ActiveTicket{}).Error
}

func (s *TicketStore) InsertPending(ctx context.Context, p *model.PendingForward) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *TicketStore) ListPendingFor(ctx context.Context, ticketID int64) ([]model.PendingForward, error) {
	var items []model.PendingForward
	err := s.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("id").Find(&items).Error
	return items, err
}

func (s *TicketStore) ListPendingBefore(ctx context.Context, before time.Time) ([]model.PendingForward, error) {
	var items []model.PendingForward
	err := s.db.WithContext(ctx).Where("created_at < ?", before).Order("id").Find(&items).Error
	return items, err
}

func (s *TicketStore) DeletePending(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&model.PendingForward{}, id).Error
}
