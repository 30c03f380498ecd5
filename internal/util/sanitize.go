package util

import (
	"strings"
	"unicode"

	"technotes-api/pkg/apierror"
)

const (
	MaxUsernameRunes = 64
	MaxTitleRunes    = 200
	MaxTextRunes     = 10000
)

// SanitizeLine trims s, drops control and invisible characters and caps the
// result at maxRunes.
func SanitizeLine(s string, maxRunes int) string {
	return clean(s, maxRunes, false)
}

// SanitizeText is SanitizeLine for multi-line input: newlines and tabs survive.
func SanitizeText(s string, maxRunes int) string {
	return clean(s, maxRunes, true)
}

func SanitizeUsername(name string) (string, error) {
	cleaned := SanitizeLine(name, MaxUsernameRunes)
	if cleaned == "" {
		return "", apierror.Validation("Username is required", "username")
	}

	if strings.IndexFunc(cleaned, unicode.IsSpace) >= 0 {
		return "", apierror.Validation("Username cannot contain spaces", cleaned)
	}

	return cleaned, nil
}

func clean(s string, maxRunes int, multiline bool) string {
	builder := strings.Builder{}
	builder.Grow(len(s))

	for _, char := range strings.TrimSpace(s) {
		if multiline && (char == '\n' || char == '\t') {
			builder.WriteRune(char)
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	if runes := []rune(cleaned); maxRunes > 0 && len(runes) > maxRunes {
		cleaned = strings.TrimSpace(string(runes[:maxRunes]))
	}

	return cleaned
}

// isInvisibleUnicode reports zero-width, formatting and other invisible
// characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
