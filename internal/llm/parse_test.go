package llm

import (
	"strings"
	"testing"
)

type parseTarget struct {
	Archetype string   `json:"archetype"`
	Items     []string `json:"items,omitempty"`
}

func TestParseJSON_Direct(t *testing.T) {
	var v parseTarget
	strategy, err := ParseJSON(`{"archetype": "MUE_Risk"}`, &v)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if strategy != ParseDirect {
		t.Errorf("strategy = %q, want %q", strategy, ParseDirect)
	}
	if v.Archetype != "MUE_Risk" {
		t.Errorf("archetype = %q", v.Archetype)
	}
}

func TestParseJSON_FencedBlock(t *testing.T) {
	text := "Here is the analysis:\n```json\n{\"archetype\": \"NCCI_PTP_Conflict\"}\n```\nLet me know if you need more."

	var v parseTarget
	strategy, err := ParseJSON(text, &v)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if strategy != ParseFenced {
		t.Errorf("strategy = %q, want %q", strategy, ParseFenced)
	}
	if v.Archetype != "NCCI_PTP_Conflict" {
		t.Errorf("archetype = %q", v.Archetype)
	}
}

func TestParseJSON_BareFence(t *testing.T) {
	text := "```\n{\"archetype\": \"Compliant\"}\n```"

	var v parseTarget
	strategy, err := ParseJSON(text, &v)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if strategy != ParseFenced {
		t.Errorf("strategy = %q, want %q", strategy, ParseFenced)
	}
}

func TestParseJSON_BraceSpan(t *testing.T) {
	text := `The corrected claim follows. {"archetype": "NCD_Terminated"} Hope that helps.`

	var v parseTarget
	strategy, err := ParseJSON(text, &v)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if strategy != ParseBraces {
		t.Errorf("strategy = %q, want %q", strategy, ParseBraces)
	}
	if v.Archetype != "NCD_Terminated" {
		t.Errorf("archetype = %q", v.Archetype)
	}
}

// A fenced payload must win even when prose outside the fence contains its
// own brace groups: the wider first-to-last brace span would be invalid.
func TestParseJSON_FencedBeatsBraceSpan(t *testing.T) {
	text := "Note {this aside} first.\n```json\n{\"archetype\": \"MUE_Risk\"}\n```\nAnd {another} after."

	var v parseTarget
	strategy, err := ParseJSON(text, &v)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if strategy != ParseFenced {
		t.Errorf("strategy = %q, want %q", strategy, ParseFenced)
	}
	if v.Archetype != "MUE_Risk" {
		t.Errorf("archetype = %q", v.Archetype)
	}
}

func TestParseJSON_Unparseable(t *testing.T) {
	var v parseTarget
	if _, err := ParseJSON("no json here at all", &v); err == nil {
		t.Fatal("expected error for non-JSON text")
	}
	if _, err := ParseJSON("   ", &v); err == nil {
		t.Fatal("expected error for blank text")
	}
}

func TestParseJSON_ErrorMentionsLastFailure(t *testing.T) {
	var v parseTarget
	_, err := ParseJSON(`{"archetype": broken}`, &v)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no parseable JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}
