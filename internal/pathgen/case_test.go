package pathgen

import "testing"

func TestChangeCaseStyles(t *testing.T) {
	cases := []struct {
		in    string
		style Style
		want  string
	}{
		{"Service Agreement", StyleSnake, "service_agreement"},
		{"Service Agreement", StyleLowerSnake, "service_agreement"},
		{"Service Agreement", StyleUpperSnake, "SERVICE_AGREEMENT"},
		{"Service Agreement", StyleKebab, "service-agreement"},
		{"Service Agreement", StyleCamel, "serviceAgreement"},
		{"Service Agreement", StylePascal, "ServiceAgreement"},
		{"q3-report_final", StyleSnake, "q3_report_final"},
		{"Invoice #42 (draft)", StyleKebab, "invoice-42-draft"},
		{"HTTPServerNotes", StyleSnake, "http_server_notes"},
		{"", StyleSnake, ""},
		{"!!!", StyleSnake, ""},
	}
	for _, tc := range cases {
		if got := ChangeCase(tc.in, tc.style); got != tc.want {
			t.Errorf("ChangeCase(%q, %s) = %q, want %q", tc.in, tc.style, got, tc.want)
		}
	}
}

func TestChangeCaseIdempotent(t *testing.T) {
	inputs := []string{"Service Agreement", "annual report 2024", "HTTPServerNotes", "mixed_Case-input"}
	styles := []Style{StyleSnake, StyleLowerSnake, StyleUpperSnake, StyleKebab, StyleCamel, StylePascal}
	for _, input := range inputs {
		for _, style := range styles {
			once := ChangeCase(input, style)
			twice := ChangeCase(once, style)
			if once != twice {
				t.Errorf("ChangeCase not idempotent for %q in %s: %q != %q", input, style, once, twice)
			}
		}
	}
}

func TestParseStyle(t *testing.T) {
	if style, ok := ParseStyle(" Kebab "); !ok || style != StyleKebab {
		t.Fatalf("expected kebab, got %q ok=%v", style, ok)
	}
	if style, ok := ParseStyle("unknown"); ok || style != DefaultStyle {
		t.Fatalf("expected default fallback, got %q ok=%v", style, ok)
	}
	if style, ok := ParseStyle(""); ok || style != DefaultStyle {
		t.Fatalf("expected default for empty, got %q ok=%v", style, ok)
	}
}
