package main

import (
	"io"
	"log/slog"
)

// newLogger builds the process logger: text or JSON lines, info or debug level
func newLogger(w io.Writer, json, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
