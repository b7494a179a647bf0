// Package format holds the pure display/input helpers for Brazilian date and
// currency conventions. Nothing here carries state or invariants beyond
// formatting.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const brDateLayout = "02/01/2006"

var brlPrinter = message.NewPrinter(language.BrazilianPortuguese)

// MaskDateInput progressively masks typed digits into dd/mm/yyyy form,
// dropping anything beyond eight digits.
func MaskDateInput(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	v := b.String()

	switch {
	case len(v) >= 5:
		return v[0:2] + "/" + v[2:4] + "/" + v[4:]
	case len(v) >= 3:
		return v[0:2] + "/" + v[2:]
	default:
		return v
	}
}

// ParseBR parses a dd/mm/yyyy date into a UTC time at midnight. Day, month
// and year are range-checked before parsing.
func ParseBR(dateStr string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(dateStr), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q: expected dd/mm/yyyy", dateStr)
	}

	var d, m, y int
	if _, err := fmt.Sscanf(dateStr, "%d/%d/%d", &d, &m, &y); err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	if d < 1 || d > 31 || m < 1 || m > 12 || y < 1900 {
		return time.Time{}, fmt.Errorf("invalid date %q: out of range", dateStr)
	}

	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
}

// FormatBR renders a time as dd/mm/yyyy.
func FormatBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(brDateLayout)
}

// FormatDateTimeBR renders a time as "dd/mm/yyyy hh:mm".
func FormatDateTimeBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(brDateLayout + " 15:04")
}

// CentsBRL renders integer cents as a pt-BR currency string, e.g. "R$ 3,50".
func CentsBRL(cents int64) string {
	return brlPrinter.Sprintf("R$ %.2f", float64(cents)/100)
}
