package classify

import (
	"testing"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

func TestArchetype_Cascade(t *testing.T) {
	tests := []struct {
		name  string
		issue model.ClaimIssue
		want  model.Archetype
	}{
		{
			name: "ptp conflict on primary procedure",
			issue: model.ClaimIssue{
				PTPDenialReason: "Column2 bundled into Column1",
				HCPCSPosition:   1,
			},
			want: model.ArchetypePTPConflict,
		},
		{
			name: "ptp reason on secondary procedure does not trigger",
			issue: model.ClaimIssue{
				PTPDenialReason: "Column2 bundled into Column1",
				HCPCSPosition:   2,
			},
			want: model.ArchetypeCompliant,
		},
		{
			name: "ptp reason literal None is NULL",
			issue: model.ClaimIssue{
				PTPDenialReason: "None",
				HCPCSPosition:   1,
			},
			want: model.ArchetypeCompliant,
		},
		{
			name: "primary dx not covered",
			issue: model.ClaimIssue{
				LCDCoveredGroup: "N",
				DXPosition:      1,
			},
			want: model.ArchetypePrimaryDXNotCovered,
		},
		{
			name: "mue risk",
			issue: model.ClaimIssue{
				MUEDenialType: "MUE_EXCEEDED",
			},
			want: model.ArchetypeMUERisk,
		},
		{
			name: "ncd terminated",
			issue: model.ClaimIssue{
				NCDStatus: "Terminated",
			},
			want: model.ArchetypeNCDTerminated,
		},
		{
			name: "secondary dx not covered",
			issue: model.ClaimIssue{
				LCDCoveredGroup: "N",
				DXPosition:      3,
			},
			want: model.ArchetypeSecondaryDXNotCovered,
		},
		{
			name: "medical necessity lab with M diagnosis",
			issue: model.ClaimIssue{
				HCPCSCode:  "80053",
				ICD10Code:  "M16.11",
				DXPosition: 1,
			},
			want: model.ArchetypeMedicalNecessity,
		},
		{
			name: "lab with non-M diagnosis is compliant",
			issue: model.ClaimIssue{
				HCPCSCode:  "80053",
				ICD10Code:  "E11.9",
				DXPosition: 1,
			},
			want: model.ArchetypeCompliant,
		},
		{
			name:  "clean issue",
			issue: model.ClaimIssue{HCPCSCode: "99213", ICD10Code: "E11.9"},
			want:  model.ArchetypeCompliant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Archetype(tt.issue); got != tt.want {
				t.Errorf("Archetype() = %q, want %q", got, tt.want)
			}
		})
	}
}

// PTP with position 1 must win over every other trigger present on the same
// issue: detection is strictly priority-ordered.
func TestArchetype_PriorityOrder(t *testing.T) {
	issue := model.ClaimIssue{
		PTPDenialReason: "mutually exclusive procedures",
		HCPCSPosition:   1,
		LCDCoveredGroup: "N",
		DXPosition:      1,
		MUEDenialType:   "MUE_EXCEEDED",
		NCDStatus:       "Terminated",
	}
	if got := Archetype(issue); got != model.ArchetypePTPConflict {
		t.Errorf("Archetype() = %q, want %q", got, model.ArchetypePTPConflict)
	}

	// Drop the PTP trigger: primary DX should win next.
	issue.PTPDenialReason = ""
	if got := Archetype(issue); got != model.ArchetypePrimaryDXNotCovered {
		t.Errorf("Archetype() = %q, want %q", got, model.ArchetypePrimaryDXNotCovered)
	}

	issue.LCDCoveredGroup = ""
	if got := Archetype(issue); got != model.ArchetypeMUERisk {
		t.Errorf("Archetype() = %q, want %q", got, model.ArchetypeMUERisk)
	}

	issue.MUEDenialType = ""
	if got := Archetype(issue); got != model.ArchetypeNCDTerminated {
		t.Errorf("Archetype() = %q, want %q", got, model.ArchetypeNCDTerminated)
	}
}
