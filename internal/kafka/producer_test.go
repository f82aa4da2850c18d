package kafka

import (
	"context"
	"testing"

	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, ParseBrokers(""))
}

func TestNewProducer_DisabledWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, "tickets", zerolog.Nop())
	assert.False(t, p.Enabled())
	// no-op без брокеров
	p.ProduceTicketEvent(context.Background(), EventTicketOpened, &model.Ticket{ID: 1})
	assert.NoError(t, p.Close())

	p = NewProducer([]string{"localhost:9092"}, "", zerolog.Nop())
	assert.False(t, p.Enabled())
}
