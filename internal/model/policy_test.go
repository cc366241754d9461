package model

import (
	"strings"
	"testing"
)

func TestCitation(t *testing.T) {
	tests := []struct {
		name    string
		excerpt PolicyExcerpt
		want    string
	}{
		{
			name:    "full metadata",
			excerpt: PolicyExcerpt{Source: "clm104c23.pdf", Chapter: "23", Section: "10.1"},
			want:    "clm104c23.pdf - Chapter 23, Section 10.1",
		},
		{
			name:    "chapter only",
			excerpt: PolicyExcerpt{Source: "ncci_ch11.pdf", Chapter: "11"},
			want:    "ncci_ch11.pdf - Chapter 11",
		},
		{
			name:    "source only",
			excerpt: PolicyExcerpt{Source: "lcd_33822.pdf"},
			want:    "lcd_33822.pdf",
		},
		{
			name:    "literal None chapter treated as absent",
			excerpt: PolicyExcerpt{Source: "clm104c23.pdf", Chapter: "None", Section: "10.1"},
			want:    "clm104c23.pdf",
		},
		{
			name:    "empty source",
			excerpt: PolicyExcerpt{},
			want:    "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.excerpt.Citation(); got != tt.want {
				t.Errorf("Citation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDedupKey(t *testing.T) {
	short := PolicyExcerpt{Text: "short excerpt"}
	if short.DedupKey() != "short excerpt" {
		t.Errorf("short key = %q", short.DedupKey())
	}

	long := PolicyExcerpt{Text: strings.Repeat("a", 300)}
	if len(long.DedupKey()) != 200 {
		t.Errorf("long key length = %d, want 200", len(long.DedupKey()))
	}

	// Same prefix, different tails: same key.
	a := PolicyExcerpt{Text: strings.Repeat("x", 200) + "tail one"}
	b := PolicyExcerpt{Text: strings.Repeat("x", 200) + "different tail"}
	if a.DedupKey() != b.DedupKey() {
		t.Error("excerpts sharing a 200-char prefix must share a key")
	}
}

func TestManualName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"clm104c23.pdf", "Medicare Claims Processing Manual"},
		{"pim83c10.pdf", "Program Integrity Manual (Administrative Only)"},
		{"ncci_ch11.pdf", "National Correct Coding Initiative"},
		{"lcd_33822.pdf", "Local Coverage Determination"},
		{"NCCI_chapter1.pdf", "National Correct Coding Initiative"}, // case-insensitive
		{"misc.pdf", "Policy Manual (misc.pdf)"},
		{"", "Unknown Source"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := ManualName(tt.source); got != tt.want {
				t.Errorf("ManualName(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestProcedureDescription(t *testing.T) {
	if got := ProcedureDescription("74170"); got != "CT abdomen and pelvis with contrast" {
		t.Errorf("known code = %q", got)
	}
	if got := ProcedureDescription("00000"); got != "Medical procedure 00000" {
		t.Errorf("unknown code = %q", got)
	}
}

func TestArchetypeRegistry(t *testing.T) {
	registry := Archetypes()

	all := []Archetype{
		ArchetypePTPConflict,
		ArchetypePrimaryDXNotCovered,
		ArchetypeMUERisk,
		ArchetypeNCDTerminated,
		ArchetypeSecondaryDXNotCovered,
		ArchetypeMedicalNecessity,
		ArchetypeCompliant,
	}
	if len(registry) != len(all) {
		t.Fatalf("registry size = %d, want %d", len(registry), len(all))
	}
	for _, a := range all {
		info, ok := registry[a]
		if !ok {
			t.Errorf("missing archetype %q", a)
			continue
		}
		if info.EvidenceQuery == "" {
			t.Errorf("%q has no evidence query", a)
		}
		if len(info.CorrectionStrategies) == 0 {
			t.Errorf("%q has no correction strategies", a)
		}
	}

	if !registry[ArchetypePrimaryDXNotCovered].DiagnosisDriven {
		t.Error("primary DX archetype must be diagnosis-driven")
	}
	if registry[ArchetypePTPConflict].DiagnosisDriven {
		t.Error("PTP archetype must be procedure-driven")
	}
	if !registry[ArchetypeCompliant].UnboundQuery() {
		t.Error("compliant query takes no bind parameter")
	}
	if registry[ArchetypePTPConflict].UnboundQuery() {
		t.Error("PTP query binds the procedure code")
	}
}
