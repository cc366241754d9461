package classify

import (
	"testing"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

func TestPTPSubtype_Ladder(t *testing.T) {
	tests := []struct {
		name         string
		rationale    string
		wantName     string
		wantModifier bool
	}{
		{"mutually exclusive", "These procedures are mutually exclusive", "PTP_MUTUALLY_EXCLUSIVE", false},
		{"cannot be reported together", "Codes cannot be reported together", "PTP_MUTUALLY_EXCLUSIVE", false},
		{"separate procedure", "CPT 'separate procedure' definition", "PTP_SEPARATE_PROCEDURE", true},
		{"anesthesia", "Anesthesia service included in surgical procedure", "PTP_ANESTHESIA_INCLUDED", false},
		{"monitoring", "Monitoring included in primary service", "PTP_ANESTHESIA_INCLUDED", false},
		{"bundled", "Column2 bundled into Column1", "PTP_BUNDLED_SERVICE", true},
		{"cpt manual", "Per CPT Manual instruction", "PTP_MANUAL_INSTRUCTION", true},
		{"hcpcs definition", "Based on HCPCS code definition", "PTP_CODE_DEFINITION", true},
		{"standard care", "Standard of care services", "PTP_STANDARD_SERVICE", false},
		{"unmatched", "Misc NCCI policy edit", "PTP_OTHER", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := SubArchetype(model.ArchetypePTPConflict, model.ClaimIssue{}, []model.EvidenceRecord{
				{PTPEditRationale: tt.rationale},
			})
			if sub.Name != tt.wantName {
				t.Errorf("sub-archetype = %q, want %q", sub.Name, tt.wantName)
			}
			if sub.ModifierAllowed == nil {
				t.Fatal("ModifierAllowed must be set for PTP sub-types")
			}
			if *sub.ModifierAllowed != tt.wantModifier {
				t.Errorf("modifier allowed = %v, want %v", *sub.ModifierAllowed, tt.wantModifier)
			}
		})
	}
}

func TestPTPSubtype_FallsBackToIssueReason(t *testing.T) {
	issue := model.ClaimIssue{PTPDenialReason: "mutually exclusive"}

	sub := SubArchetype(model.ArchetypePTPConflict, issue, nil)
	if sub.Name != "PTP_MUTUALLY_EXCLUSIVE" {
		t.Errorf("sub-archetype = %q, want PTP_MUTUALLY_EXCLUSIVE", sub.Name)
	}
}

func TestPTPSubtype_NoRationale(t *testing.T) {
	sub := SubArchetype(model.ArchetypePTPConflict, model.ClaimIssue{}, nil)
	if sub.Name != "PTP_UNCLASSIFIED" {
		t.Errorf("sub-archetype = %q, want PTP_UNCLASSIFIED", sub.Name)
	}
	if sub.ModifierAllowed == nil || !*sub.ModifierAllowed {
		t.Error("unclassified PTP should default to modifier allowed")
	}
}

func TestMUESubtype_Ladder(t *testing.T) {
	tests := []struct {
		name           string
		rationale      string
		wantName       string
		wantStrictness string
	}{
		{"cms policy", "CMS Policy limit", "MUE_CMS_POLICY", "CRITICAL"},
		{"clinical", "Clinical judgment based", "MUE_CLINICAL_JUDGMENT", "HIGH"},
		{"anatomic", "Anatomic consideration: bilateral organ", "MUE_ANATOMIC_CONSIDERATION", "CRITICAL"},
		{"code descriptor", "Code descriptor / CPT instruction", "MUE_CODE_DESCRIPTOR", "MEDIUM"},
		{"nature of service", "Nature of service/procedure", "MUE_NATURE_OF_SERVICE", "MEDIUM"},
		{"prescribing info", "Prescribing information limit", "MUE_PRESCRIBING_INFO", "MEDIUM"},
		{"discontinued", "Drug discontinued", "MUE_DISCONTINUED", "CRITICAL"},
		{"oral medication", "Oral medication restriction", "MUE_ORAL_MEDICATION", "HIGH"},
		{"workgroup", "CMS workgroup determination", "MUE_WORKGROUP_DETERMINATION", "HIGH"},
		{"data driven", "Based on 100% claims data", "MUE_DATA_DRIVEN", "HIGH"},
		{"unmatched", "Other rationale text", "MUE_OTHER", "MEDIUM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := SubArchetype(model.ArchetypeMUERisk, model.ClaimIssue{}, []model.EvidenceRecord{
				{MUERationale: tt.rationale, MUEAdjudicationIndicator: "Claim Line Edit"},
			})
			if sub.Name != tt.wantName {
				t.Errorf("sub-archetype = %q, want %q", sub.Name, tt.wantName)
			}
			if sub.Strictness != tt.wantStrictness {
				t.Errorf("strictness = %q, want %q", sub.Strictness, tt.wantStrictness)
			}
			if sub.AdjudicationType != "Claim Line Edit" {
				t.Errorf("adjudication = %q, want carried through", sub.AdjudicationType)
			}
		})
	}
}

func TestMUESubtype_NoRationale(t *testing.T) {
	sub := SubArchetype(model.ArchetypeMUERisk, model.ClaimIssue{}, nil)
	if sub.Name != "MUE_UNCLASSIFIED" || sub.Strictness != "MEDIUM" {
		t.Errorf("got %+v, want MUE_UNCLASSIFIED/MEDIUM", sub)
	}
}

func TestSubArchetype_OtherArchetypesUndefined(t *testing.T) {
	for _, a := range []model.Archetype{
		model.ArchetypePrimaryDXNotCovered,
		model.ArchetypeNCDTerminated,
		model.ArchetypeCompliant,
	} {
		if sub := SubArchetype(a, model.ClaimIssue{}, nil); sub.Defined() {
			t.Errorf("archetype %q should not define a sub-type, got %q", a, sub.Name)
		}
	}
}
