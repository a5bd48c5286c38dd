package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/gadget1999/gobox/internal/utils"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger fans out to a rotated log file and, with debug, to stderr.
func newLogger(logFile string, debug bool, stderr io.Writer) (*slog.Logger, io.Closer) {
	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	if debug {
		noColor := true
		if f, ok := stderr.(*os.File); ok {
			noColor = !isatty.IsTerminal(f.Fd())
		}
		handlers = append(handlers, tint.NewHandler(stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    noColor,
		}))
	}

	if logFile != "" {
		if err := utils.EnsureParent(logFile); err == nil {
			rotator := &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28,
			}
			closer = rotator
			handlers = append(handlers, slog.NewTextHandler(rotator, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	}

	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), closer
	}
	return slog.New(utils.NewMultiLogHandler(handlers...)), closer
}
