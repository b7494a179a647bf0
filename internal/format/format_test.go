package format

import (
	"testing"
	"time"
)

func TestMaskDateInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"3", "3"},
		{"31", "31"},
		{"311", "31/1"},
		{"3112", "31/12"},
		{"31122", "31/12/2"},
		{"31122025", "31/12/2025"},
		{"311220259999", "31/12/2025"},
		{"31/12/2025", "31/12/2025"},
	}

	for _, tc := range cases {
		if got := MaskDateInput(tc.in); got != tc.want {
			t.Fatalf("MaskDateInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseBR(t *testing.T) {
	got, err := ParseBR("05/03/2026")
	if err != nil {
		t.Fatalf("ParseBR failed: %v", err)
	}
	want := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseBR = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "2026-03-05", "32/01/2026", "01/13/2026", "01/01/1899", "5/3"} {
		if _, err := ParseBR(bad); err == nil {
			t.Fatalf("expected ParseBR(%q) to fail", bad)
		}
	}
}

func TestFormatBRRoundTrip(t *testing.T) {
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	if got := FormatBR(day); got != "31/08/2026" {
		t.Fatalf("FormatBR = %q", got)
	}
	parsed, err := ParseBR(FormatBR(day))
	if err != nil {
		t.Fatalf("round trip parse failed: %v", err)
	}
	if !parsed.Equal(day) {
		t.Fatalf("round trip mismatch: %v != %v", parsed, day)
	}
	if got := FormatBR(time.Time{}); got != "" {
		t.Fatalf("expected empty string for zero time, got %q", got)
	}
}

func TestFormatDateTimeBR(t *testing.T) {
	at := time.Date(2026, time.August, 31, 14, 5, 0, 0, time.UTC)
	if got := FormatDateTimeBR(at); got != "31/08/2026 14:05" {
		t.Fatalf("FormatDateTimeBR = %q", got)
	}
}

func TestCentsBRL(t *testing.T) {
	if got := CentsBRL(350); got != "R$ 3,50" {
		t.Fatalf("CentsBRL(350) = %q", got)
	}
	if got := CentsBRL(0); got != "R$ 0,00" {
		t.Fatalf("CentsBRL(0) = %q", got)
	}
}
