package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/relay"
)

// от имени этого пользователя приходят автопересылки из связанного канала
const telegramServiceUserID = 777000

// extractor возвращает содержимое, если сообщение его несёт.
type extractor func(m *tgbotapi.Message) (content.Content, bool)

// extractors проверяются по порядку, потому что animation приходит вместе
// с document, а venue вместе с location.
var extractors = []extractor{
	func(m *tgbotapi.Message) (content.Content, bool) {
		return content.Text{Body: m.Text}, m.Text != ""
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Animation == nil {
			return nil, false
		}
		return media(content.KindAnimation, m.Animation.FileID, m.Caption), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if len(m.Photo) == 0 {
			return nil, false
		}
		// последний размер самый крупный
		return media(content.KindPhoto, m.Photo[len(m.Photo)-1].FileID, m.Caption), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Document == nil {
			return nil, false
		}
		return media(content.KindDocument, m.Document.FileID, m.Caption), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Voice == nil {
			return nil, false
		}
		return media(content.KindVoice, m.Voice.FileID, m.Caption), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Audio == nil {
			return nil, false
		}
		return media(content.KindAudio, m.Audio.FileID, m.Caption), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Video == nil {
			return nil, false
		}
		return media(content.KindVideo, m.Video.FileID, m.Caption), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.VideoNote == nil {
			return nil, false
		}
		return media(content.KindVideoNote, m.VideoNote.FileID, ""), true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Sticker == nil {
			return nil, false
		}
		return content.Sticker{FileID: m.Sticker.FileID}, true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Venue == nil {
			return nil, false
		}
		return content.Venue{
			Location:     content.Location{Latitude: m.Venue.Location.Latitude, Longitude: m.Venue.Location.Longitude},
			Title:        m.Venue.Title,
			Address:      m.Venue.Address,
			FoursquareID: m.Venue.FoursquareID,
		}, true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Location == nil {
			return nil, false
		}
		return content.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}, true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Contact == nil {
			return nil, false
		}
		return content.Contact{PhoneNumber: m.Contact.PhoneNumber, FirstName: m.Contact.FirstName, LastName: m.Contact.LastName}, true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Poll == nil {
			return nil, false
		}
		return content.Poll{Question: m.Poll.Question}, true
	},
	func(m *tgbotapi.Message) (content.Content, bool) {
		if m.Dice == nil {
			return nil, false
		}
		return content.Dice{Emoji: m.Dice.Emoji, Value: m.Dice.Value}, true
	},
}

func media(kind content.Kind, fileID, caption string) content.Media {
	return content.Media{Type: kind, FileID: fileID, Caption: caption}
}

func extractContent(m *tgbotapi.Message) content.Content {
	for _, extract := range extractors {
		if c, ok := extract(m); ok {
			return c
		}
	}
	return content.Unsupported{Type: "unknown"}
}

// convertMessage переводит сообщение Bot API во входящее сообщение маршрутизатора.
func convertMessage(m *tgbotapi.Message) *relay.Message {
	if m == nil || m.Chat == nil {
		return nil
	}
	out := &relay.Message{
		ID:          m.MessageID,
		ChatID:      m.Chat.ID,
		Private:     m.Chat.IsPrivate(),
		AutoForward: isAutomaticForward(m),
		Content:     extractContent(m),
	}
	if m.From != nil {
		out.SenderID = m.From.ID
		out.SenderName = m.From.FirstName
	}
	if m.IsCommand() {
		out.Command = m.Command()
	}
	if r := m.ReplyToMessage; r != nil {
		out.ReplyTo = &relay.Quote{ID: r.MessageID, Text: r.Text}
	}
	return out
}

func isAutomaticForward(m *tgbotapi.Message) bool {
	if m.From != nil && (m.From.ID == telegramServiceUserID || m.From.FirstName == "Telegram") {
		return true
	}
	return m.SenderChat != nil && m.SenderChat.Type == "channel"
}
