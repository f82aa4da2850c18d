package relay

import (
	"testing"

	"github.com/psds-microservice/support-relay/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseTicketNumber(t *testing.T) {
	id, ok := ParseTicketNumber("Ticket #12 from Ann (5): hello")
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)

	_, ok = ParseTicketNumber("Re: Ticket #12")
	assert.False(t, ok)
	_, ok = ParseTicketNumber("Ticket #0 from Ann (5): hello")
	assert.False(t, ok)
}

func TestIsAnnouncementOf(t *testing.T) {
	ticket := &model.Ticket{ID: 3, RequesterID: 501, RequesterDisplayName: "Bob (2)", InitialMessageSummary: "hi"}

	assert.Equal(t, "Ticket #3 from Bob (2) (501): hi", announcementText(ticket))
	assert.True(t, isAnnouncementOf("Ticket #3 from Bob (2) (501): hi", ticket))
	assert.False(t, isAnnouncementOf("Ticket #3 from Bob (2) (502): hi", ticket))
	assert.False(t, isAnnouncementOf("New poll: Ticket #3 from Bob (2) (501): hi", ticket))
	assert.False(t, isAnnouncementOf("Ticket #3 (501):", ticket))
}

func TestUntargetedLabelIsReplyable(t *testing.T) {
	id, ok := ParseTicketNumber(untargetedLabel(7, 501))
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestIsCloseCommand(t *testing.T) {
	assert.True(t, isCloseCommand("/solved"))
	assert.True(t, isCloseCommand("/solved@support_bot"))
	assert.False(t, isCloseCommand("/solved please"))
	assert.False(t, isCloseCommand("/solved@"))
	assert.False(t, isCloseCommand("solved"))
}

func TestParseTarget(t *testing.T) {
	tg, err := ParseTarget("-100123")
	assert.NoError(t, err)
	assert.Equal(t, ChatTarget(-100123), tg)
	assert.True(t, tg.Is(-100123))

	tg, err = ParseTarget("@support_news")
	assert.NoError(t, err)
	assert.Equal(t, "@support_news", tg.String())
	assert.False(t, tg.Is(0))

	_, err = ParseTarget("channel")
	assert.Error(t, err)
	_, err = ParseTarget("@")
	assert.Error(t, err)
}
