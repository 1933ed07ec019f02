package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "curator.log")

	logger, err := New(Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("organize complete", String("path", "/tmp/a.txt"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"organize complete"`) {
		t.Fatalf("expected JSON record, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
}

func TestConsoleHandlerOrdersComponentFirst(t *testing.T) {
	var sb strings.Builder
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&sb, lvl))

	logger.Info("watching", String("path", "/tmp"), String(FieldComponent, "watcher"))

	line := sb.String()
	if !strings.Contains(line, "component=watcher path=/tmp") {
		t.Fatalf("expected component attr first, got %q", line)
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "organizer")
	// Must not panic and must accept records.
	logger.Info("noop")
}
