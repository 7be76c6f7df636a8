// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// New returns a text logger writing to out and, when path is set, also to
// that file in append mode. The returned closer releases the file.
func New(out io.Writer, level, path string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if path == "" {
		return slog.New(slog.NewTextHandler(out, opts)), nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l := slog.New(slog.NewTextHandler(out, opts))
		l.Error("failed to open log file", "path", path, "err", err)
		return l, nopCloser{}, nil
	}
	l := slog.New(slog.NewTextHandler(io.MultiWriter(out, f), opts))
	return l, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
