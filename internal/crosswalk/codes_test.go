package crosswalk

import "testing"

func TestIsICD10(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"standard icd10", "M16.11", true},
		{"normalized icd10", "M1611", true},
		{"icd10 with extension", "S82201A", true},
		{"icd9 numeric", "71515", false},
		{"icd9 short", "250", false},
		{"empty", "", false},
		{"too long", "M1611XXXX", false},
		{"lowercase leading", "m1611", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsICD10(tt.code); got != tt.want {
				t.Errorf("IsICD10(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips decimal", "M16.11", "M1611"},
		{"strips dash", "M16-11", "M1611"},
		{"uppercases", "m16.11", "M1611"},
		{"trims whitespace", "  M16.11 ", "M1611"},
		{"already normalized", "M1611", "M1611"},
		{"icd9 passthrough", "71515", "71515"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDenormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"four chars", "M161", "M16.1"},
		{"five chars", "M1611", "M16.11"},
		{"seven chars with extension", "S82201A", "S82.201A"},
		{"too short", "M16", "M16"},
		{"numeric icd9 unchanged", "71515", "71515"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Denormalize(tt.in); got != tt.want {
				t.Errorf("Denormalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Normalize(Denormalize(code)) must equal Normalize(code) for canonically
// shaped codes. Codes with non-standard suffixes are an accepted exception
// and are not exercised here.
func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	codes := []string{"M1611", "M161", "S82201A", "E119", "J4520", "Z0000"}

	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			if got := Normalize(Denormalize(code)); got != Normalize(code) {
				t.Errorf("round trip for %q: got %q, want %q", code, got, Normalize(code))
			}
		})
	}
}
