// Package logging sets up the process-wide slog handler: a console handler
// on stderr plus an optional JSON file sink.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
)

type Options struct {
	Level string
	// File receives JSON records when set
	File string
	// Quiet drops the console handler. The TUI owns the terminal, so it
	// only logs to the file.
	Quiet bool
}

// Preinit installs a console logger so anything logged before the config is
// loaded still shows up.
func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

// Init builds the handler for opts and makes it the default. The returned
// closer releases the log file, if any.
func Init(opts Options) (io.Closer, error) {
	level := ParseLevel(opts.Level)

	var file *os.File
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, oops.In("logging").With("path", opts.File).Wrapf(err, "failed to open log file")
		}
		file = f
	}

	var consoleW io.Writer
	if !opts.Quiet {
		consoleW = os.Stderr
	}

	var jsonW io.Writer
	if file != nil {
		jsonW = file
	}

	slog.SetDefault(slog.New(NewHandler(consoleW, jsonW, level)))

	if file == nil {
		return nopCloser{}, nil
	}
	return file, nil
}

// NewHandler fans records out to a console writer and a JSON writer. Either
// may be nil. With both nil every record is discarded.
func NewHandler(consoleW, jsonW io.Writer, level slog.Level) slog.Handler {
	router := slogmulti.Router()

	if consoleW != nil {
		router = router.Add(console.NewHandler(consoleW, &console.HandlerOptions{
			AddSource: level == slog.LevelDebug,
			Level:     level,
		}))
	}

	if jsonW != nil {
		router = router.Add(
			slog.NewJSONHandler(jsonW, &slog.HandlerOptions{Level: level}),
			func(_ context.Context, r slog.Record) bool {
				return r.Level >= level
			},
		)
	}

	return router.Handler()
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
