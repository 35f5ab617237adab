// Package logging installs the process-wide slog handler.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Setup installs a colored handler when stderr is a terminal and a text
// handler otherwise, and returns the logger
func Setup(level slog.Level) *slog.Logger {
	var h slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		h = newTerminalHandler(os.Stderr, level)
	} else {
		h = newTextHandler(os.Stderr, level)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				v := a.Value.Any().(slog.Level)
				a.Value = slog.StringValue(strings.ToLower(v.String()))
			}
			return a
		},
	})
}

func newTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		AddSource:  level <= slog.LevelDebug,
		Level:      level,
		TimeFormat: time.TimeOnly,
	})
}
