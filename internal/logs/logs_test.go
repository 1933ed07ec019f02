package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/logs"
	"curator/internal/testsupport"
)

func TestLatestPicksNewestLog(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "curator-20240101T000000Z.log")
	recent := filepath.Join(dir, "curator-20240601T000000Z.log")
	testsupport.WriteFile(t, old, "old\n")
	testsupport.WriteFile(t, recent, "recent\n")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	latest, err := logs.Latest(dir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != recent {
		t.Fatalf("expected %s, got %s", recent, latest)
	}
}

func TestLatestEmptyDir(t *testing.T) {
	latest, err := logs.Latest(t.TempDir())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != "" {
		t.Fatalf("expected no log file, got %s", latest)
	}
}

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curator-x.log")
	testsupport.WriteFile(t, path, "one\ntwo\nthree\nfour\n")

	lines, offset, err := logs.LastLines(path, 2)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Fatalf("unexpected lines %v", lines)
	}
	if offset == 0 {
		t.Fatal("expected non-zero resume offset")
	}
}

func TestLastLinesMissingFile(t *testing.T) {
	lines, offset, err := logs.LastLines(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result for missing file, got %v %d %v", lines, offset, err)
	}
}

func TestFollowDeliversNewLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curator-x.log")
	testsupport.WriteFile(t, path, "seed\n")

	_, offset, err := logs.LastLines(path, 0)
	if err != nil {
		t.Fatalf("LastLines: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, func(line string) { got <- line })
	}()

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := file.WriteString("fresh line\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	file.Close()

	select {
	case line := <-got:
		if line != "fresh line" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for followed line")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
