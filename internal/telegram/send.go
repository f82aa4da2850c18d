package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/relay"
)

// sendBuilder строит запрос Bot API для одного типа содержимого.
type sendBuilder func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error)

var sendBuilders = map[content.Kind]sendBuilder{
	content.KindText: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		t, err := as[content.Text](c)
		return tgbotapi.MessageConfig{BaseChat: bc, Text: t.Body}, err
	},
	content.KindPhoto: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.PhotoConfig{BaseFile: baseFile(bc, m), Caption: m.Caption}, err
	},
	content.KindDocument: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.DocumentConfig{BaseFile: baseFile(bc, m), Caption: m.Caption}, err
	},
	content.KindVoice: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.VoiceConfig{BaseFile: baseFile(bc, m), Caption: m.Caption}, err
	},
	content.KindAudio: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.AudioConfig{BaseFile: baseFile(bc, m), Caption: m.Caption}, err
	},
	content.KindVideo: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.VideoConfig{BaseFile: baseFile(bc, m), Caption: m.Caption}, err
	},
	content.KindAnimation: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.AnimationConfig{BaseFile: baseFile(bc, m), Caption: m.Caption}, err
	},
	content.KindVideoNote: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		m, err := as[content.Media](c)
		return tgbotapi.VideoNoteConfig{BaseFile: baseFile(bc, m)}, err
	},
	content.KindSticker: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		s, err := as[content.Sticker](c)
		return tgbotapi.StickerConfig{BaseFile: tgbotapi.BaseFile{BaseChat: bc, File: tgbotapi.FileID(s.FileID)}}, err
	},
	content.KindContact: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		ct, err := as[content.Contact](c)
		return tgbotapi.ContactConfig{BaseChat: bc, PhoneNumber: ct.PhoneNumber, FirstName: ct.FirstName, LastName: ct.LastName}, err
	},
	content.KindLocation: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		l, err := as[content.Location](c)
		return tgbotapi.LocationConfig{BaseChat: bc, Latitude: l.Latitude, Longitude: l.Longitude}, err
	},
	content.KindVenue: func(bc tgbotapi.BaseChat, c content.Content) (tgbotapi.Chattable, error) {
		v, err := as[content.Venue](c)
		return tgbotapi.VenueConfig{
			BaseChat:     bc,
			Latitude:     v.Latitude,
			Longitude:    v.Longitude,
			Title:        v.Title,
			Address:      v.Address,
			FoursquareID: v.FoursquareID,
		}, err
	},
}

func buildChattable(to relay.Target, c content.Content, replyTo int) (tgbotapi.Chattable, error) {
	build, ok := sendBuilders[c.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: cannot send %s", errs.ErrUnsupportedContent, c.Kind())
	}
	return build(baseChat(to, replyTo), c)
}

func baseChat(to relay.Target, replyTo int) tgbotapi.BaseChat {
	return tgbotapi.BaseChat{
		ChatID:                   to.ChatID,
		ChannelUsername:          to.Username,
		ReplyToMessageID:         replyTo,
		AllowSendingWithoutReply: true,
	}
}

// baseFile загружает скачанный файл или, если он не скачан, ссылается на FileID.
func baseFile(bc tgbotapi.BaseChat, m content.Media) tgbotapi.BaseFile {
	var file tgbotapi.RequestFileData = tgbotapi.FileID(m.FileID)
	if m.File != nil {
		file = tgbotapi.FileBytes{Name: m.File.Name, Bytes: m.File.Data}
	}
	return tgbotapi.BaseFile{BaseChat: bc, File: file}
}

func as[T content.Content](c content.Content) (T, error) {
	v, ok := c.(T)
	if !ok {
		return v, fmt.Errorf("%w: unexpected payload %T for %s", errs.ErrUnsupportedContent, c, c.Kind())
	}
	return v, nil
}
