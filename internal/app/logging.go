package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"speechpdf/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging installs the default slog logger. With toFile set, records go
// to LOG_FILE so they do not draw over the terminal UI; otherwise to stderr.
// DEBUG lowers the level to debug.
func SetupLogging(cfg config.Config, toFile bool) (io.Closer, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if toFile {
		if cfg.LogFile == "" {
			w = io.Discard
		} else {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			w, closer = f, f
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closer, nil
}
