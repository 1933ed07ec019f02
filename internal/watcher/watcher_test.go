package watcher_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/services"
	"curator/internal/templates"
	"curator/internal/testsupport"
	"curator/internal/watcher"
)

const eventWait = 5 * time.Second

func newWatchedTemplate(t *testing.T) (templates.Template, string) {
	t.Helper()
	base := t.TempDir()
	return templates.Template{
		ID:       "tpl-" + filepath.Base(base),
		Name:     "Inbox",
		BasePath: base,
		Watch:    true,
	}, base
}

func collectOne(t *testing.T, events <-chan watcher.Event) watcher.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(eventWait):
		t.Fatal("timed out waiting for event")
		return watcher.Event{}
	}
}

func TestWatchEmitsAfterQuiescence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	path := filepath.Join(base, "report.pdf")
	testsupport.WriteFile(t, path, "content")

	ev := collectOne(t, w.Events())
	if ev.Type != watcher.FileAppeared {
		t.Fatalf("unexpected event type %q", ev.Type)
	}
	if ev.Path != path || ev.FileName != "report.pdf" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Template.ID != tpl.ID {
		t.Fatalf("expected template %q, got %q", tpl.ID, ev.Template.ID)
	}
}

func TestBurstWritesEmitSingleEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	path := filepath.Join(base, "download.bin")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := file.Write([]byte("chunk")); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
		if err := file.Sync(); err != nil {
			t.Fatalf("sync: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ev := collectOne(t, w.Events())
	if ev.Type != watcher.FileAppeared || ev.Path != path {
		t.Fatalf("unexpected event %+v", ev)
	}

	select {
	case extra := <-w.Events():
		t.Fatalf("expected exactly one event, got extra %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestHiddenFilesAreIgnored(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	testsupport.WriteFile(t, filepath.Join(base, ".DS_Store"), "junk")
	testsupport.WriteFile(t, filepath.Join(base, "visible.txt"), "content")

	ev := collectOne(t, w.Events())
	if ev.FileName != "visible.txt" {
		t.Fatalf("expected only the visible file, got %+v", ev)
	}
}

func TestHiddenDirectoryCreatedLaterIsIgnored(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	hidden := filepath.Join(base, ".cache")
	if err := os.Mkdir(hidden, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	testsupport.WriteFile(t, filepath.Join(hidden, "inside.txt"), "content")

	select {
	case ev := <-w.Events():
		t.Fatalf("expected silence for file under hidden directory, got %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}

	testsupport.WriteFile(t, filepath.Join(base, "visible.txt"), "content")
	ev := collectOne(t, w.Events())
	if ev.FileName != "visible.txt" {
		t.Fatalf("expected only the visible file, got %+v", ev)
	}
}

func TestWatchNewSubdirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	sub := filepath.Join(base, "nested", "deeper")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the watcher a beat to register the new directories.
	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(sub, "nested.txt")
	testsupport.WriteFile(t, path, "content")

	ev := collectOne(t, w.Events())
	if ev.Path != path {
		t.Fatalf("expected nested file, got %+v", ev)
	}
}

func TestWatchMissingBasePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	err := w.Watch(templates.Template{ID: "x", Name: "Missing", BasePath: "/nonexistent/curator-watch"})
	if !errors.Is(err, services.ErrPathUnavailable) {
		t.Fatalf("expected path unavailable, got %v", err)
	}
}

func TestWatchTwiceIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("second Watch: %v", err)
	}

	testsupport.WriteFile(t, filepath.Join(base, "once.txt"), "content")
	ev := collectOne(t, w.Events())
	if ev.FileName != "once.txt" {
		t.Fatalf("unexpected event %+v", ev)
	}
	select {
	case extra := <-w.Events():
		t.Fatalf("duplicate watch produced extra event %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestUnwatchAndStopAllAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)

	tpl, _ := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	w.Unwatch(tpl.ID)
	w.Unwatch(tpl.ID)
	w.Unwatch("never-watched")

	w.StopAll()
	w.StopAll()

	if _, ok := <-w.Events(); ok {
		t.Fatal("expected event channel closed after StopAll")
	}
}

func TestUnwatchedTemplateStopsEmitting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(cfg, nil)
	defer w.StopAll()

	tpl, base := newWatchedTemplate(t)
	if err := w.Watch(tpl); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	w.Unwatch(tpl.ID)

	testsupport.WriteFile(t, filepath.Join(base, "after-unwatch.txt"), "content")
	select {
	case ev := <-w.Events():
		t.Fatalf("expected silence after Unwatch, got %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
