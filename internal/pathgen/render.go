package pathgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	tokenPattern     = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)
	leadingNonWord   = regexp.MustCompile(`^[^A-Za-z0-9]+`)
	fallbackFileName = "untitled"
)

// Expand substitutes {token} placeholders from the fact map. Tokens without a
// fact are left as literal text; callers wanting strictness pre-validate
// coverage themselves.
func Expand(pattern string, facts map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		key := match[1 : len(match)-1]
		if value, ok := facts[key]; ok {
			return value
		}
		return match
	})
}

// Render expands a naming pattern against the fact map and produces the
// absolute destination path: directories come from the pattern as-is, the
// final segment is stripped of leading non-word characters and case-converted,
// and baseDir has ~ expanded before the result is resolved absolute.
func Render(pattern string, facts map[string]string, baseDir, extension string, style Style) (string, error) {
	expanded := Expand(pattern, facts)

	segments := strings.Split(filepath.ToSlash(expanded), "/")
	dirs := make([]string, 0, len(segments))
	for _, segment := range segments[:len(segments)-1] {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			dirs = append(dirs, trimmed)
		}
	}

	name := leadingNonWord.ReplaceAllString(segments[len(segments)-1], "")
	name = ChangeCase(name, style)
	if name == "" {
		name = fallbackFileName
	}
	if ext := strings.TrimPrefix(strings.TrimSpace(extension), "."); ext != "" {
		name = name + "." + ext
	}

	base, err := ExpandHome(baseDir)
	if err != nil {
		return "", err
	}
	parts := append([]string{base}, dirs...)
	parts = append(parts, name)
	abs, err := filepath.Abs(filepath.Join(parts...))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
	}
	return trimmed, nil
}

// ValidateFolder enforces a template's folder whitelist against a suggested
// relative folder. With an empty whitelist any suggestion is accepted
// verbatim (creative mode). Otherwise the suggestion must exactly match an
// entry; on mismatch the first whitelist entry is the deterministic fallback
// and fellBack reports true so the caller can log the validation error.
func ValidateFolder(suggested string, whitelist []string) (folder string, fellBack bool) {
	cleaned := strings.Trim(strings.TrimSpace(suggested), "/")
	if len(whitelist) == 0 {
		return cleaned, false
	}
	for _, entry := range whitelist {
		if cleaned == strings.Trim(strings.TrimSpace(entry), "/") {
			return cleaned, false
		}
	}
	return strings.Trim(strings.TrimSpace(whitelist[0]), "/"), true
}
