package phone

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"already normalized", "5511999999999", "5511999999999"},
		{"missing country code", "11999999999", "5511999999999"},
		{"formatted input", "+55 (11) 99999-9999", "5511999999999"},
		{"formatted without ddi", "(11) 99999-9999", "5511999999999"},
		{"too long gets truncated", "55119999999990000", "5511999999999"},
		{"empty stays empty", "", ""},
		{"letters only", "abc", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"11999999999", "+55 11 98888-7777", "5511999999999", "", "55"}
	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestNormalizePrependsCountryCodeExactlyOnce(t *testing.T) {
	got := Normalize("551234567")
	if got != "551234567" {
		t.Fatalf("expected digits starting with 55 to be kept as-is, got %q", got)
	}
	got = Normalize("1234567")
	if got != "551234567" {
		t.Fatalf("expected 55 prefix exactly once, got %q", got)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("5511999999999") {
		t.Fatalf("expected 13-digit phone to be valid")
	}
	if IsValid("551199999999") {
		t.Fatalf("expected 12-digit phone to be invalid")
	}
	if IsValid("") {
		t.Fatalf("expected empty phone to be invalid")
	}
}

func TestFormatDisplay(t *testing.T) {
	got := FormatDisplay("5511999999999")
	want := "+55 (11) 99999-9999"
	if got != want {
		t.Fatalf("FormatDisplay = %q, want %q", got, want)
	}

	if got := FormatDisplay("123"); got != "123" {
		t.Fatalf("expected short input returned unchanged, got %q", got)
	}
}
