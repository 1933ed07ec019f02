package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("watch lock", statusOK, "free", false)
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no ANSI codes, got %q", line)
	}
	if !strings.Contains(line, "watch lock:") || !strings.Contains(line, "[ok] free") {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("database", statusError, "integrity check failed", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red wrapping, got %q", line)
	}
}

func TestStatusKindLabels(t *testing.T) {
	cases := map[statusKind]string{
		statusInfo:  "info",
		statusOK:    "ok",
		statusWarn:  "warn",
		statusError: "error",
	}
	for kind, want := range cases {
		if got := statusKindLabel(kind); got != want {
			t.Fatalf("kind %d: expected %q, got %q", kind, want, got)
		}
	}
}
