package content

import (
	"encoding/json"
	"fmt"
)

// Encode сериализует содержимое для отложенной пересылки.
// Скачанный файл медиа не сохраняется, только FileID.
func Encode(c Content) (Kind, string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", c.Kind(), err)
	}
	return c.Kind(), string(body), nil
}

// Decode восстанавливает содержимое, сохранённое через Encode.
func Decode(kind Kind, payload string) (Content, error) {
	var (
		c   Content
		err error
	)
	switch {
	case kind == KindText:
		var v Text
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	case IsMedia(kind):
		var v Media
		err = json.Unmarshal([]byte(payload), &v)
		v.Type = kind
		c = v
	case kind == KindSticker:
		var v Sticker
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	case kind == KindContact:
		var v Contact
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	case kind == KindLocation:
		var v Location
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	case kind == KindVenue:
		var v Venue
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	case kind == KindPoll:
		var v Poll
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	case kind == KindDice:
		var v Dice
		err = json.Unmarshal([]byte(payload), &v)
		c = v
	default:
		return nil, fmt.Errorf("decode %q: unknown kind", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return c, nil
}
