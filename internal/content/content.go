// Package content описывает типы содержимого сообщений мессенджера в виде
// размеченного объединения: каждый вариант несёт свою типизированную нагрузку.
package content

import "strings"

type Kind string

const (
	KindText      Kind = "text"
	KindPhoto     Kind = "photo"
	KindDocument  Kind = "document"
	KindVoice     Kind = "voice"
	KindAudio     Kind = "audio"
	KindVideo     Kind = "video"
	KindAnimation Kind = "animation"
	KindVideoNote Kind = "video_note"
	KindSticker   Kind = "sticker"
	KindContact   Kind = "contact"
	KindLocation  Kind = "location"
	KindVenue     Kind = "venue"
	KindPoll      Kind = "poll"
	KindDice      Kind = "dice"
)

// Content представляет содержимое одного сообщения.
type Content interface {
	Kind() Kind
}

type Text struct {
	Body string `json:"body"`
}

// Media ссылается на файл, хранящийся у мессенджера (photo, document, voice, audio,
// video, animation, video_note). File заполняется после скачивания.
type Media struct {
	Type    Kind   `json:"type"`
	FileID  string `json:"file_id"`
	Caption string `json:"caption,omitempty"`
	File    *File  `json:"-"`
}

// File содержит скачанные байты медиа.
type File struct {
	Name string
	Data []byte
}

type Sticker struct {
	FileID string `json:"file_id"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Venue struct {
	Location
	Title        string `json:"title"`
	Address      string `json:"address"`
	FoursquareID string `json:"foursquare_id,omitempty"`
}

type Poll struct {
	Question string `json:"question"`
}

type Dice struct {
	Emoji string `json:"emoji,omitempty"`
	Value int    `json:"value"`
}

// Unsupported обозначает сообщение, тип которого адаптер не распознал.
type Unsupported struct {
	Type string `json:"type"`
}

func (Text) Kind() Kind { return KindText }
func (m Media) Kind() Kind { return m.Type }
func (Sticker) Kind() Kind { return KindSticker }
func (Contact) Kind() Kind { return KindContact }
func (Location) Kind() Kind { return KindLocation }
func (Venue) Kind() Kind { return KindVenue }
func (Poll) Kind() Kind { return KindPoll }
func (Dice) Kind() Kind { return KindDice }
func (u Unsupported) Kind() Kind { return Kind(u.Type) }

var mediaKinds = map[Kind]bool{
	KindPhoto:     true,
	KindDocument:  true,
	KindVoice:     true,
	KindAudio:     true,
	KindVideo:     true,
	KindAnimation: true,
	KindVideoNote: true,
}

// IsMedia сообщает, хранится ли содержимое этого типа как файл.
func IsMedia(k Kind) bool {
	return mediaKinds[k]
}

var tags = map[Kind]string{
	KindPhoto:     "[Photo]",
	KindDocument:  "[Document]",
	KindVoice:     "[Voice]",
	KindAudio:     "[Audio]",
	KindVideo:     "[Video]",
	KindAnimation: "[Animation]",
	KindVideoNote: "[Video note]",
	KindSticker:   "[Sticker]",
	KindContact:   "[Contact]",
	KindLocation:  "[Location]",
	KindVenue:     "[Venue]",
	KindPoll:      "[Poll]",
	KindDice:      "[Dice]",
}

// Tag возвращает метку типа в квадратных скобках, например "[Photo]".
func Tag(k Kind) string {
	if t, ok := tags[k]; ok {
		return t
	}
	s := strings.ReplaceAll(string(k), "_", " ")
	if s == "" {
		return "[Unknown]"
	}
	return "[" + strings.ToUpper(s[:1]) + s[1:] + "]"
}

// Summary возвращает снимок первого сообщения для тикета: текст как есть,
// для остального содержимого метку типа.
func Summary(c Content) string {
	if t, ok := c.(Text); ok {
		return t.Body
	}
	return Tag(c.Kind())
}
