package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	EventTicketOpened   = "ticket.opened"
	EventTicketReplied  = "ticket.replied"
	EventTicketClosed   = "ticket.closed"
	EventTicketLinked   = "ticket.linked"
	EventTicketSnapshot = "ticket.snapshot"
)

// TicketEventProducer отправляет события тикета в Kafka (интерфейс для подмены моком в тестах).
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket)
}

// Producer пишет события тикетов в топик Kafka (best-effort, не блокирует цикл приёма).
type Producer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewProducer создаёт продюсер. Если brokers пустой или topic пустой, методы no-op.
func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	log = log.With().Str("topic", topic).Logger()
	return &Producer{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Warn().Err(err).Int("messages", len(messages)).Msg("kafka: write ticket events")
				}
			},
		},
	}
}

// Enabled сообщает, настроена ли отправка.
func (p *Producer) Enabled() bool {
	return p.writer != nil
}

type ticketEvent struct {
	Event                 string     `json:"event"`
	TicketID              int64      `json:"ticket_id"`
	RequesterID           int64      `json:"requester_id"`
	RequesterDisplayName  string     `json:"requester_display_name"`
	InitialMessageSummary string     `json:"initial_message_summary"`
	StaffCommentary       string     `json:"staff_commentary"`
	Closed                bool       `json:"closed"`
	ThreadAnchorID        *int64     `json:"thread_anchor_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	ClosedAt              *time.Time `json:"closed_at,omitempty"`
}

// ProduceTicketEvent отправляет событие тикета в топик; ключом служит id тикета,
// так что события одного тикета попадают в одну партицию по порядку.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil || t == nil {
		return
	}
	body, err := json.Marshal(ticketEvent{
		Event:                 event,
		TicketID:              t.ID,
		RequesterID:           t.RequesterID,
		RequesterDisplayName:  t.RequesterDisplayName,
		InitialMessageSummary: t.InitialMessageSummary,
		StaffCommentary:       t.StaffCommentary,
		Closed:                t.Closed,
		ThreadAnchorID:        t.ThreadAnchorID,
		CreatedAt:             t.CreatedAt,
		ClosedAt:              t.ClosedAt,
	})
	if err != nil {
		p.log.Error().Err(err).Msg("kafka: marshal ticket event")
		return
	}
	key := []byte(strconv.FormatInt(t.ID, 10))
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: body}); err != nil {
		p.log.Warn().Err(err).Str("event", event).Int64("ticket_id", t.ID).Msg("kafka: write ticket event")
	}
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers разбивает строку брокеров "host1:9092,host2:9092" на слайс.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
