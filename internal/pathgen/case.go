package pathgen

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style names a filename casing convention.
type Style string

const (
	StyleSnake      Style = "snake"
	StyleLowerSnake Style = "lower_snake"
	StyleUpperSnake Style = "upper_snake"
	StyleKebab      Style = "kebab"
	StyleCamel      Style = "camel"
	StylePascal     Style = "pascal"
)

// DefaultStyle applies when neither template nor config chooses one.
const DefaultStyle = StyleSnake

// ParseStyle converts a string into a known Style.
func ParseStyle(value string) (Style, bool) {
	normalized := Style(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StyleSnake, StyleLowerSnake, StyleUpperSnake, StyleKebab, StyleCamel, StylePascal:
		return normalized, true
	case "":
		return DefaultStyle, false
	default:
		return DefaultStyle, false
	}
}

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9\s\-_]+`)
	separators      = regexp.MustCompile(`[\s\-_]+`)
	lowerToUpper    = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	upperRunEnd     = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
)

var titleCaser = cases.Title(language.Und)

// ChangeCase re-renders a string in the given style. Characters outside
// [A-Za-z0-9\s\-_] are stripped first, then words are detected from
// separators and camel-case boundaries and re-joined per the style.
// The operation is idempotent: a string already in the target style is
// returned unchanged.
func ChangeCase(value string, style Style) string {
	words := splitWords(value)
	if len(words) == 0 {
		return ""
	}
	switch style {
	case StyleUpperSnake:
		return strings.ToUpper(strings.Join(lowered(words), "_"))
	case StyleKebab:
		return strings.Join(lowered(words), "-")
	case StyleCamel:
		parts := make([]string, 0, len(words))
		for i, word := range words {
			if i == 0 {
				parts = append(parts, strings.ToLower(word))
				continue
			}
			parts = append(parts, titleCaser.String(strings.ToLower(word)))
		}
		return strings.Join(parts, "")
	case StylePascal:
		parts := make([]string, 0, len(words))
		for _, word := range words {
			parts = append(parts, titleCaser.String(strings.ToLower(word)))
		}
		return strings.Join(parts, "")
	default: // snake and lower_snake
		return strings.Join(lowered(words), "_")
	}
}

func splitWords(value string) []string {
	cleaned := disallowedChars.ReplaceAllString(value, "")
	cleaned = upperRunEnd.ReplaceAllString(cleaned, "$1 $2")
	cleaned = lowerToUpper.ReplaceAllString(cleaned, "$1 $2")
	cleaned = separators.ReplaceAllString(cleaned, " ")
	return strings.Fields(cleaned)
}

func lowered(words []string) []string {
	out := make([]string, len(words))
	for i, word := range words {
		out[i] = strings.ToLower(word)
	}
	return out
}
