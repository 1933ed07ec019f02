package annotate_test

import (
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"curator/internal/annotate"
	"curator/internal/config"
	"curator/internal/testsupport"
)

// xattrSupported reports whether the test filesystem accepts user xattrs;
// tmpfs on some CI kernels does not.
func xattrSupported(t *testing.T, path string) bool {
	t.Helper()
	err := unix.Setxattr(path, "user.curator.probe", []byte("1"), 0)
	if err != nil {
		if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
			return false
		}
		t.Fatalf("probe xattr: %v", err)
	}
	return true
}

func TestXAttrRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	testsupport.WriteFile(t, path, "content")
	if !xattrSupported(t, path) {
		t.Skip("filesystem does not support user xattrs")
	}

	annotator := annotate.XAttr{}
	if err := annotator.AddTags(path, []string{"finance", "2024"}); err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if err := annotator.AddComment(path, "Quarterly report."); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	tags, err := annotate.ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "finance" || tags[1] != "2024" {
		t.Fatalf("unexpected tags %v", tags)
	}
	comment, err := annotate.ReadComment(path)
	if err != nil {
		t.Fatalf("ReadComment: %v", err)
	}
	if comment != "Quarterly report." {
		t.Fatalf("unexpected comment %q", comment)
	}
}

func TestXAttrEmptyInputsAreNoops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	testsupport.WriteFile(t, path, "x")

	annotator := annotate.XAttr{}
	if err := annotator.AddTags(path, nil); err != nil {
		t.Fatalf("AddTags with no tags: %v", err)
	}
	if err := annotator.AddComment(path, ""); err != nil {
		t.Fatalf("AddComment with empty text: %v", err)
	}
}

func TestXAttrMissingFile(t *testing.T) {
	annotator := annotate.XAttr{}
	if err := annotator.AddTags("/nonexistent/file.txt", []string{"a"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadAbsentAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	testsupport.WriteFile(t, path, "x")
	if !xattrSupported(t, path) {
		t.Skip("filesystem does not support user xattrs")
	}

	tags, err := annotate.ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if tags != nil {
		t.Fatalf("expected no tags, got %v", tags)
	}
	comment, err := annotate.ReadComment(path)
	if err != nil {
		t.Fatalf("ReadComment: %v", err)
	}
	if comment != "" {
		t.Fatalf("expected no comment, got %q", comment)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Annotate.Enabled = false
	if _, ok := annotate.NewFromConfig(cfg).(annotate.Nop); !ok {
		t.Fatal("expected no-op annotator when disabled")
	}
	cfg.Annotate.Enabled = true
	if _, ok := annotate.NewFromConfig(cfg).(annotate.XAttr); !ok {
		t.Fatal("expected xattr annotator when enabled")
	}
	if _, ok := annotate.NewFromConfig((*config.Config)(nil)).(annotate.Nop); !ok {
		t.Fatal("expected no-op annotator for nil config")
	}
}
