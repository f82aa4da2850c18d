package content_test

import (
	"testing"

	"github.com/psds-microservice/support-relay/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		in   content.Content
		want string
	}{
		{name: "text is kept literally", in: content.Text{Body: "hello"}, want: "hello"},
		{name: "photo", in: content.Media{Type: content.KindPhoto, FileID: "f"}, want: "[Photo]"},
		{name: "video note", in: content.Media{Type: content.KindVideoNote, FileID: "f"}, want: "[Video note]"},
		{name: "location", in: content.Location{Latitude: 1, Longitude: 2}, want: "[Location]"},
		{name: "venue", in: content.Venue{Title: "Cafe"}, want: "[Venue]"},
		{name: "dice", in: content.Dice{Value: 6}, want: "[Dice]"},
		{name: "unknown type", in: content.Unsupported{Type: "game_score"}, want: "[Game score]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, content.Summary(tt.in))
		})
	}
}

func TestIsMedia(t *testing.T) {
	assert.True(t, content.IsMedia(content.KindPhoto))
	assert.True(t, content.IsMedia(content.KindVideoNote))
	assert.False(t, content.IsMedia(content.KindSticker))
	assert.False(t, content.IsMedia(content.KindText))
}

func TestDecodeRestoresVariant(t *testing.T) {
	venue := content.Venue{
		Location:     content.Location{Latitude: 55.75, Longitude: 37.62},
		Title:        "Office",
		Address:      "Main st. 1",
		FoursquareID: "4sq",
	}
	kind, payload, err := content.Encode(venue)
	require.NoError(t, err)
	assert.Equal(t, content.KindVenue, kind)

	got, err := content.Decode(kind, payload)
	require.NoError(t, err)
	assert.Equal(t, venue, got)
}

func TestDecodeMediaDropsDownloadedFile(t *testing.T) {
	m := content.Media{
		Type:    content.KindDocument,
		FileID:  "doc-1",
		Caption: "invoice",
		File:    &content.File{Name: "a.pdf", Data: []byte("x")},
	}
	kind, payload, err := content.Encode(m)
	require.NoError(t, err)

	got, err := content.Decode(kind, payload)
	require.NoError(t, err)
	media, ok := got.(content.Media)
	require.True(t, ok)
	assert.Equal(t, content.KindDocument, media.Type)
	assert.Equal(t, "doc-1", media.FileID)
	assert.Equal(t, "invoice", media.Caption)
	assert.Nil(t, media.File)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := content.Decode("game", "{}")
	assert.Error(t, err)
}
