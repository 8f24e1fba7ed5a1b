package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats accepted by New.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// Options selects the backend and destination of a logger built by New.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, text (slog) or console (zerolog)
	// File, when set, receives a copy of the output and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds a Logger from opts. The returned closer releases the log file
// and must be called on shutdown.
func New(opts Options) (Logger, io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	fileOut := io.Writer(nil)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		fileOut = lj
		closer = lj
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatJSON, FormatText:
		var level slog.Level
		if err := level.UnmarshalText([]byte(orDefaultString(opts.Level, "info"))); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		w := out
		if fileOut != nil {
			w = io.MultiWriter(out, fileOut)
		}
		hopts := &slog.HandlerOptions{Level: level}
		var h slog.Handler
		if strings.EqualFold(opts.Format, FormatText) {
			h = slog.NewTextHandler(w, hopts)
		} else {
			h = slog.NewJSONHandler(w, hopts)
		}
		return NewSlogLogger(slog.New(h)), closer, nil

	case FormatConsole:
		level, err := zerolog.ParseLevel(strings.ToLower(orDefaultString(opts.Level, "info")))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		w := io.Writer(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly})
		if fileOut != nil {
			// the file gets plain JSON lines, the terminal the pretty form
			w = zerolog.MultiLevelWriter(w, fileOut)
		}
		zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
		return NewZerologLogger(zl), closer, nil
	}

	return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
