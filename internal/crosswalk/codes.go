// Package crosswalk resolves diagnosis codes across the ICD-9-CM and
// ICD-10-CM coding systems via the GEMS master mapping, and finds covered
// alternatives for a non-covered diagnosis.
package crosswalk

import "strings"

// IsICD10 reports whether a code looks like ICD-10-CM: alphabetic leading
// character, at most 7 characters. This is a shape heuristic, not a
// guarantee; codes that fit neither shape cleanly are tried in both systems
// in a fixed order by the caller.
func IsICD10(code string) bool {
	if code == "" || len(code) > 7 {
		return false
	}
	c := code[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// Normalize strips separator punctuation and uppercases a code for mapping
// table lookups. The crosswalk master stores M1611; description-bearing
// sources display M16.11.
func Normalize(code string) string {
	code = strings.ReplaceAll(code, ".", "")
	code = strings.ReplaceAll(code, "-", "")
	return strings.ToUpper(strings.TrimSpace(code))
}

// Denormalize re-inserts the decimal separator into a normalized ICD-10
// code for display: M1611 becomes M16.11. For canonically shaped codes
// (letter + two digits + tail) this is the exact inverse of Normalize.
// Codes that do not fit the canonical shape are returned unchanged.
func Denormalize(code string) string {
	if len(code) < 4 {
		return code
	}
	c := code[0]
	alpha := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	if alpha && isDigits(code[1:3]) {
		return code[:3] + "." + code[3:]
	}
	return code
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
