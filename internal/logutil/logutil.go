// SPDX-License-Identifier: EPL-2.0

// Package logutil configures the process-wide slog logger.
package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrUnknownLevel is returned for a level ParseLevel does not know.
var ErrUnknownLevel = fmt.Errorf("unknown log level")

// Levels lists the accepted level names.
var Levels = []string{"none", "error", "warn", "info", "debug"}

// ParseLevel maps a level name to a slog.Level. "none" reports ok false.
func ParseLevel(name string) (level slog.Level, ok bool, err error) {
	switch strings.ToLower(name) {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "", "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	}
	return 0, false, fmt.Errorf("%w %q, want one of %s", ErrUnknownLevel, name, strings.Join(Levels, ", "))
}

// New builds a logger at level writing text to w.
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !ok {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// ConfigureDefaultLogger sets the default slog logger.
//
// With an empty file the logger writes text to stderr. Otherwise it writes
// JSON to file, which is truncated, and the file is returned so the caller
// can close it:
//
//	f, err := logutil.ConfigureDefaultLogger("debug", "run.log")
//	if err != nil {
//		return err
//	}
//	if f != nil {
//		defer f.Close()
//	}
func ConfigureDefaultLogger(level, file string) (*os.File, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	}

	opts := &slog.HandlerOptions{Level: lvl}

	if file == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return nil, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(f, opts)))
	return f, nil
}
