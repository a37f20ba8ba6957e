package diag

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDestination(t *testing.T) {
	tests := []struct {
		value string
		want  *os.File
	}{
		{"-", os.Stdout},
		{"--", os.Stderr},
		{"LOG=-", os.Stdout},
	}

	for _, tt := range tests {
		w, c, err := Destination(tt.value)
		if err != nil {
			t.Fatalf("Destination(%q) error: %v", tt.value, err)
		}
		if w != tt.want {
			t.Errorf("Destination(%q) = %v, want %v", tt.value, w, tt.want)
		}
		if err := c.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}

	w, _, err := Destination("")
	if err != nil || w != nil {
		t.Errorf("Destination(\"\") = %v, %v; want nil writer", w, err)
	}
}

func TestNewAppendsToFile(t *testing.T) {
	t.Setenv(EnvLevel, "")
	path := filepath.Join(t.TempDir(), "iseio.log")
	if err := os.WriteFile(path, []byte("previous\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger, closer, err := New("LIBISEIO_LOG=" + path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("channel open", "dev", "ise0", "ch", 6)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "previous\n") {
		t.Errorf("file was truncated: %q", out)
	}
	if !strings.Contains(out, "dev=ise0") || !strings.Contains(out, "ch=6") {
		t.Errorf("missing attributes in %q", out)
	}
}

func TestNewUnwritableDestination(t *testing.T) {
	logger, _, err := New(filepath.Join(t.TempDir(), "missing", "dir", "log"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if logger == nil {
		t.Fatal("logger must never be nil")
	}
}

func TestFromEnvUnset(t *testing.T) {
	t.Setenv(EnvHost, "")
	logger, closer := FromEnv(EnvHost)
	defer closer.Close()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("unset destination should discard")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := Level(tt.in); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
