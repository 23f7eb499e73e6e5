// Package logging builds the zerolog logger used across the module.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New constructs a logger writing to w. Format is "console" (human
// readable) or "json". An empty level means info.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing log level: %w", err)
	}

	var out io.Writer
	switch strings.ToLower(format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
		out = w
	default:
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", format)
	}

	return zerolog.New(out).With().Timestamp().Logger().Level(lvl), nil
}

// Stderr is New writing to os.Stderr, which keeps stdout free for command
// output (revised text, JSON) in the CLI.
func Stderr(level, format string) (zerolog.Logger, error) {
	return New(os.Stderr, level, format)
}
