package arena

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentifier trims, lowercases, and strips diacritics so that
// "  Flabébé " and "flabebe" resolve to the same key. It never substitutes
// a different identifier.
func NormalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Transformers are stateful; build per call so concurrent fetches
	// never share one.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(strip, s); err == nil {
		s = out
	}

	return strings.ToLower(s)
}
