// Package logging builds the zerolog loggers used by the CLI and the HTTP
// gateway. The codec packages do not log.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ssargent/rsv/pkg/config"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "RSV_LOG_LEVEL"

// ParseLevel maps a level name to a zerolog level. Unknown names mean info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// New returns a logger writing to out, which defaults to stderr. It also
// becomes the global logger.
func New(app string, cfg config.Logging, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level := cfg.Level
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", app).
		Logger()
	log.Logger = logger
	return logger
}
