package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/services"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreAt(filepath.Join(t.TempDir(), "templates.json"))
}

func TestListAbsentFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty collection, got %d", len(all))
	}
}

func TestAddAssignsID(t *testing.T) {
	store := newTestStore(t)
	tpl, err := store.Add(Template{Name: "Documents", BasePath: "/tmp/docs", NamingPattern: "{category}/{title}"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tpl.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.Get(tpl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Documents" {
		t.Fatalf("unexpected template %+v", got)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	tpl, err := store.Add(Template{ID: "fixed", Name: "A", BasePath: "/a", NamingPattern: "{title}"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(Template{ID: tpl.ID, Name: "B", BasePath: "/b", NamingPattern: "{title}"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateMissingTemplate(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(Template{ID: "ghost", Name: "X", BasePath: "/x", NamingPattern: "{title}"})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRemoves(t *testing.T) {
	store := newTestStore(t)
	tpl, err := store.Add(Template{Name: "A", BasePath: "/a", NamingPattern: "{title}"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Delete(tpl.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(tpl.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(tpl.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestWatchedFiltersByFlag(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add(Template{Name: "watched", BasePath: "/w", NamingPattern: "{title}", Watch: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(Template{Name: "manual", BasePath: "/m", NamingPattern: "{title}"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	watched, err := store.Watched()
	if err != nil {
		t.Fatalf("Watched: %v", err)
	}
	if len(watched) != 1 || watched[0].Name != "watched" {
		t.Fatalf("unexpected watched set %+v", watched)
	}
}

func TestLoadToleratesHandEditedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	content := `[
  {"id": "docs", "name": "Docs", "basePath": "~/docs", "namingPattern": "{category}/{title}", "caseStyle": "kebab", "watch": true, "folderWhitelist": ["Contracts", "Invoices"]}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := NewStoreAt(path)
	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || !all[0].Restricted() || all[0].FolderWhitelist[0] != "Contracts" {
		t.Fatalf("unexpected parse result %+v", all)
	}
}

func TestLoadMalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewStoreAt(path).List(); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
