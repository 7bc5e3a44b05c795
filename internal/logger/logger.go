package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

// NewWithWriter builds the service logger. Development gets a console writer
// at debug level; every other environment gets JSON at info level.
func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	var writer io.Writer = out
	if environment == "development" {
		level = zerolog.DebugLevel
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", "contractor-ledger").
		Logger()
}
