// Package log configures the component loggers used across lemurs.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggerType selects the log encoding.
type LoggerType uint8

const (
	ConsoleLogger LoggerType = iota
	JSONLogger
)

var (
	Root   = zerolog.New(os.Stderr).Level(zerolog.InfoLevel)
	Cpu    = Root.With().Str("component", "cpu").Logger()
	Asm    = Root.With().Str("component", "asm").Logger()
	Evolve = Root.With().Str("component", "evolve").Logger()
)

// Options for Init.
type Options struct {
	Level  zerolog.Level // Minimum level, default Info.
	Type   LoggerType    // Console or JSON encoding.
	Output io.Writer     // Destination, default os.Stderr.
}

// ParseLevel parses a level name such as "debug" or "info".
func ParseLevel(level string) (zerolog.Level, error) {
	if len(level) == 0 {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(level)
}

// Init replaces the component loggers.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch opts.Type {
	case ConsoleLogger:
		Root = zerolog.New(newConsoleWriter(out)).Level(opts.Level).
			With().Timestamp().Logger()
	default:
		Root = zerolog.New(out).Level(opts.Level).
			With().Timestamp().Logger()
	}

	Cpu = Root.With().Str("component", "cpu").Logger()
	Asm = Root.With().Str("component", "asm").Logger()
	Evolve = Root.With().Str("component", "evolve").Logger()
}

func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	return cw
}
