package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const service = "support-relay"

// New создаёт логгер сервиса. format: "json" или "console" (по умолчанию).
func New(level, format, env string) zerolog.Logger {
	return newWithWriter(writer(format, os.Stdout), level, env)
}

func newWithWriter(w io.Writer, level, env string) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Str("service", service).
		Str("environment", env).
		Logger().
		Level(parseLevel(level))
}

func writer(format string, out io.Writer) io.Writer {
	if strings.EqualFold(format, "json") {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
