package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options selects where log lines go
type Options struct {
	Level zerolog.Level
	// File receives JSON lines when set. The deck owns the terminal, so this
	// is the only sink while it runs.
	File string
	// Console additionally writes human-readable lines to Stderr
	Console bool
	Stderr  io.Writer
}

// Logger wraps a zerolog logger together with the file it writes to
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a logger from opts. With neither File nor Console set the
// logger discards everything.
func New(opts Options) (*Logger, error) {
	var writers []io.Writer

	if opts.Console {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	var f *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
	}

	var zl zerolog.Logger
	switch len(writers) {
	case 0:
		zl = zerolog.Nop()
	case 1:
		zl = zerolog.New(writers[0])
	default:
		zl = zerolog.New(zerolog.MultiLevelWriter(writers...))
	}

	zl = zl.Level(opts.Level).With().Timestamp().Logger()
	return &Logger{Logger: zl, file: f}, nil
}

// Component returns a child logger tagged with a component name
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
