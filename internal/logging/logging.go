// Package logging builds the zerolog loggers used by the commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var ErrUnknownFormat = eris.New("unknown log format")

type Options struct {
	// Level is a zerolog level name. Empty means info.
	Level string
	// Format is "json" or "console". Empty means console.
	Format string
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New returns a logger with timestamps at the requested level and format.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), eris.Wrapf(err, "invalid log level %q", opts.Level)
		}
		level = parsed
	}

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return zerolog.Nop(), eris.Wrapf(ErrUnknownFormat, "%q", opts.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// SetGlobal installs logger as the package-level logger that the ecs and
// engine packages fall back to.
func SetGlobal(logger zerolog.Logger) {
	log.Logger = logger
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
