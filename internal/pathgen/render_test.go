package pathgen

import (
	"testing"
)

func TestExpandSubstitutesKnownTokens(t *testing.T) {
	facts := map[string]string{"category": "Legal", "title": "Service Agreement"}
	got := Expand("{category}/{year}/{title}", facts)
	if got != "Legal/{year}/Service Agreement" {
		t.Fatalf("unexpected expansion %q", got)
	}
}

func TestExpandEmptyFact(t *testing.T) {
	got := Expand("{category}/{title}", map[string]string{"category": "", "title": "x"})
	if got != "/x" {
		t.Fatalf("unexpected expansion %q", got)
	}
}

func TestRenderCaseConvertsFinalSegmentOnly(t *testing.T) {
	facts := map[string]string{"category": "Legal", "title": "Service Agreement"}
	got, err := Render("{category}/{title}", facts, "/tmp/docs", "pdf", StyleKebab)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "/tmp/docs/Legal/service-agreement.pdf" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestRenderStripsLeadingNonWord(t *testing.T) {
	got, err := Render("{title}", map[string]string{"title": "--- Draft Notes"}, "/tmp/docs", "txt", StyleSnake)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "/tmp/docs/draft_notes.txt" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestRenderFallbackName(t *testing.T) {
	got, err := Render("{title}", map[string]string{"title": "!!!"}, "/tmp/docs", "txt", StyleSnake)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "/tmp/docs/untitled.txt" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestRenderExtensionOptional(t *testing.T) {
	got, err := Render("{title}", map[string]string{"title": "notes"}, "/tmp/docs", "", StyleSnake)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "/tmp/docs/notes" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestValidateFolderWhitelistMember(t *testing.T) {
	whitelist := []string{"Contracts", "Invoices"}
	folder, fellBack := ValidateFolder("Invoices", whitelist)
	if fellBack || folder != "Invoices" {
		t.Fatalf("expected accepted member, got %q fellBack=%v", folder, fellBack)
	}
}

func TestValidateFolderFallsBackToFirstEntry(t *testing.T) {
	whitelist := []string{"Contracts", "Invoices"}
	folder, fellBack := ValidateFolder("Legal/Misc", whitelist)
	if !fellBack || folder != "Contracts" {
		t.Fatalf("expected fallback to first entry, got %q fellBack=%v", folder, fellBack)
	}
}

func TestValidateFolderCreativeMode(t *testing.T) {
	folder, fellBack := ValidateFolder("Projects/2024/Q3", nil)
	if fellBack || folder != "Projects/2024/Q3" {
		t.Fatalf("expected verbatim acceptance, got %q fellBack=%v", folder, fellBack)
	}
}

func TestValidateFolderPropertyAlwaysMember(t *testing.T) {
	whitelist := []string{"A", "B", "C"}
	suggestions := []string{"A", "B", "C", "D", "", "a", "B/C", "  A  "}
	members := map[string]struct{}{"A": {}, "B": {}, "C": {}}
	for _, suggestion := range suggestions {
		folder, _ := ValidateFolder(suggestion, whitelist)
		if _, ok := members[folder]; !ok {
			t.Errorf("ValidateFolder(%q) produced non-member %q", suggestion, folder)
		}
	}
}
