package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(writer("json", &buf), "warn", "test")

	log.Info().Msg("dropped")
	log.Warn().Int64("ticket_id", 3).Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "support-relay", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.EqualValues(t, 3, entry["ticket_id"])
}

func TestConsoleWriterByDefault(t *testing.T) {
	_, ok := writer("", &bytes.Buffer{}).(zerolog.ConsoleWriter)
	assert.True(t, ok)
}
