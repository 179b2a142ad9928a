package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns the process logger. Development gets human-readable console output.
func New(env string) zerolog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, out io.Writer) zerolog.Logger {
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	logger := zerolog.New(out).With().Timestamp().Str("service", "medisync").Logger()
	if env == "test" {
		return logger.Level(zerolog.WarnLevel)
	}
	return logger
}
