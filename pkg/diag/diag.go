// Package diag opens the diagnostic log named by an environment variable.
//
// The variable's value selects the destination:
//
//	-          standard output
//	--         standard error
//	NAME=path  the file after '='
//	path       a file opened for append (never truncated)
//
// An unset or empty variable disables diagnostics.
package diag

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables naming the host and device log destinations.
const (
	EnvHost   = "LIBISEIO_LOG"
	EnvDevice = "LIBISEIO_PLUG_LOG"
	EnvLevel  = "ISEIO_LOG_LEVEL"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Destination resolves a variable value to a writer. The returned closer
// releases an opened file; it is a no-op for stdout and stderr. A nil writer
// means logging is off.
func Destination(value string) (io.Writer, io.Closer, error) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, '='); i >= 0 {
		value = value[i+1:]
	}
	switch value {
	case "":
		return nil, nopCloser{}, nil
	case "-":
		return os.Stdout, nopCloser{}, nil
	case "--":
		return os.Stderr, nopCloser{}, nil
	}
	f, err := os.OpenFile(value, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nopCloser{}, err
	}
	return f, f, nil
}

// New builds a text logger on the destination named by value. The level
// comes from ISEIO_LOG_LEVEL and defaults to debug.
func New(value string) (*slog.Logger, io.Closer, error) {
	w, closer, err := Destination(value)
	if err != nil || w == nil {
		return Discard(), closer, err
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level(os.Getenv(EnvLevel))})
	return slog.New(h), closer, nil
}

// FromEnv builds a logger from the variable name (EnvHost or EnvDevice).
// An unusable destination disables logging rather than failing the caller.
func FromEnv(name string) (*slog.Logger, io.Closer) {
	logger, closer, err := New(os.Getenv(name))
	if err != nil {
		return Discard(), nopCloser{}
	}
	return logger, closer
}

// Level parses a level name. Unknown or empty names are debug.
func Level(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelDebug
	}
	return l
}
