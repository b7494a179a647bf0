// Package phone canonicalizes raw phone input into the 13-digit dialable
// identifier used as the customer lookup key everywhere: country code "55",
// area code, subscriber number.
package phone

import (
	"fmt"
	"strings"
)

// Normalize strips non-digits, prepends "55" when the cleaned digits do not
// already start with it, and truncates to 13 characters. Total and
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned != "" && !strings.HasPrefix(cleaned, "55") {
		cleaned = "55" + cleaned
	}
	if len(cleaned) > 13 {
		cleaned = cleaned[:13]
	}
	return cleaned
}

// IsValid reports whether a normalized phone is admissible as a customer key.
// The sole criterion is an exact length of 13.
func IsValid(normalized string) bool {
	return len(normalized) == 13
}

// FormatDisplay renders a normalized phone as "+55 (DD) NNNNN-NNNN".
// Anything that is not 13 characters long is returned unchanged.
func FormatDisplay(normalized string) string {
	if len(normalized) != 13 {
		return normalized
	}
	return fmt.Sprintf("+%s (%s) %s-%s",
		normalized[0:2], normalized[2:4], normalized[4:9], normalized[9:13])
}
