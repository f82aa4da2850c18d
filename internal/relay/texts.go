package relay

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/psds-microservice/support-relay/internal/model"
)

// CloseCommand закрывает тикет, когда это весь текст ответа на анонс.
const CloseCommand = "/solved"

const (
	welcomeText             = "Hi! 👋 I'm your technical support assistant. How can I help?"
	acceptedText            = "Your request has been received! We are already working on it. A manager will contact you soon. 🛠️"
	closedNoticeText        = "Your ticket has been closed. Thank you for reaching out! If you have any new questions, feel free to write to us again. 😊"
	unsupportedText         = "This message type is not supported."
	processingErrorText     = "An error occurred while processing your message."
	staffErrorText          = "Failed to process this reply."
	staffTicketNotFoundText = "Ticket not found."
)

var ticketNumberRe = regexp.MustCompile(`^Ticket #(\d+)`)

func announcementPrefix(t *model.Ticket) string {
	return fmt.Sprintf("Ticket #%d from %s (%d): ", t.ID, t.RequesterDisplayName, t.RequesterID)
}

func announcementText(t *model.Ticket) string {
	return announcementPrefix(t) + t.InitialMessageSummary
}

// isAnnouncementOf сообщает, что s это анонс тикета t. Сравнивается весь
// заголовок целиком, поэтому скобки в имени или в тексте не сбивают разбор.
func isAnnouncementOf(s string, t *model.Ticket) bool {
	return strings.HasPrefix(s, announcementPrefix(t))
}

// untargetedLabel подписывает сообщение, пересланное в группу вне ветки тикета.
// Ответ сотрудника на подпись попадает в тикет, как ответ на анонс.
func untargetedLabel(ticketID, requesterID int64) string {
	return fmt.Sprintf("Ticket #%d (%d):", ticketID, requesterID)
}

func staffClosedText(id int64) string {
	return fmt.Sprintf("Ticket #%d closed", id)
}

func pollText(question string) string {
	return "New poll: " + question
}

func diceText(value int) string {
	return "Dice roll: " + strconv.Itoa(value)
}

// ParseTicketNumber извлекает N из текста анонса "Ticket #N ...".
func ParseTicketNumber(s string) (int64, bool) {
	m := ticketNumberRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// isCloseCommand принимает "/solved" и "/solved@botname".
func isCloseCommand(s string) bool {
	s = strings.TrimSpace(s)
	if s == CloseCommand {
		return true
	}
	rest, ok := strings.CutPrefix(s, CloseCommand+"@")
	return ok && rest != "" && !strings.ContainsAny(rest, " \n\t")
}
