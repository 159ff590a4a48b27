// Package logger builds the process logger.
package logger

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger at the given level. Format "text" writes through a
// console writer with RFC3339 timestamps, "json" writes raw JSON lines.
// Debug, info and warn go to stdout, error and above to stderr.
func New(level, format string, stdout, stderr io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("unknown log level %q", level)
	}

	var out, errOut io.Writer
	switch strings.ToLower(format) {
	case "", "text":
		out = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
		errOut = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	case "json":
		out, errOut = stdout, stderr
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	writer := zerolog.MultiLevelWriter(
		SpecificLevelWriter{
			Writer: out,
			Levels: []zerolog.Level{zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel},
		},
		SpecificLevelWriter{
			Writer: errOut,
			Levels: []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		},
	)
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}

// SpecificLevelWriter forwards only the listed levels to Writer.
type SpecificLevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w SpecificLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
