package main

import (
	"testing"

	"curator/internal/templates"
	"curator/internal/testsupport"
)

func TestSelectTemplateByNameAndID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := templates.NewStore(cfg)

	docs, err := store.Add(templates.Template{Name: "Documents", BasePath: t.TempDir(), NamingPattern: "{title}"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(templates.Template{Name: "Media", BasePath: t.TempDir(), NamingPattern: "{title}"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	byID, err := selectTemplate(store, docs.ID)
	if err != nil || byID.Name != "Documents" {
		t.Fatalf("by id: %+v %v", byID, err)
	}
	byName, err := selectTemplate(store, "Media")
	if err != nil || byName.Name != "Media" {
		t.Fatalf("by name: %+v %v", byName, err)
	}
	if _, err := selectTemplate(store, "Nope"); err == nil {
		t.Fatal("expected error for unknown template")
	}
	if _, err := selectTemplate(store, ""); err == nil {
		t.Fatal("expected error with two templates and no flag")
	}
}

func TestSelectTemplateImplicitSingle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := templates.NewStore(cfg)
	if _, err := store.Add(templates.Template{Name: "Only", BasePath: t.TempDir(), NamingPattern: "{title}"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	tpl, err := selectTemplate(store, "")
	if err != nil || tpl.Name != "Only" {
		t.Fatalf("implicit: %+v %v", tpl, err)
	}
}
