package model

import "time"

// Ticket описывает обращение пользователя в поддержку.
type Ticket struct {
	ID                    int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RequesterID           int64  `gorm:"index;not null" json:"requester_id"`
	RequesterChatID       int64  `gorm:"not null" json:"requester_chat_id"`
	RequesterDisplayName  string `gorm:"type:text;not null" json:"requester_display_name"`
	InitialMessageSummary string `gorm:"type:text;not null" json:"initial_message_summary"`
	StaffCommentary       string `gorm:"type:text;not null" json:"staff_commentary"`
	Closed                bool   `gorm:"index;not null" json:"closed"`

	// id анонса в канале
	AnnouncementMessageID *int64 `json:"announcement_message_id,omitempty"`
	// id сообщения в группе поддержки, на которое отвечают сотрудники
	ThreadAnchorID *int64 `json:"thread_anchor_id,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func (Ticket) TableName() string { return "tickets" }

// HasAnchor сообщает, можно ли отвечать в ветку тикета.
func (t *Ticket) HasAnchor() bool {
	return t.ThreadAnchorID != nil
}

// ActiveTicket связывает чат пользователя с его открытым тикетом.
type ActiveTicket struct {
	ChatID   int64 `gorm:"primaryKey;autoIncrement:false"`
	TicketID int64 `gorm:"uniqueIndex;not null"`
}

func (ActiveTicket) TableName() string { return "active_index" }

// PendingForward хранит сообщение пользователя, пока у тикета нет ветки.
type PendingForward struct {
	ID        int64  `gorm:"primaryKey"`
	TicketID  int64  `gorm:"index;not null"`
	ChatID    int64  `gorm:"not null"`
	Kind      string `gorm:"type:varchar(32);not null"`
	Payload   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (PendingForward) TableName() string { return "pending_forwards" }
