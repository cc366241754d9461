// Package classify assigns a denial archetype to each claim issue and, for
// PTP and MUE issues, a finer-grained sub-archetype derived from the edit
// rationale text.
package classify

import (
	"strings"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

// medicalNecessityProcedures are lab/EKG codes that trigger a medical
// necessity review when paired with a musculoskeletal (M-prefix) diagnosis.
var medicalNecessityProcedures = map[string]bool{
	"80053": true,
	"93000": true,
	"85025": true,
}

// Archetype evaluates the detection cascade in priority order and returns the
// first archetype whose trigger condition the issue satisfies. Issues that
// match nothing are Compliant.
func Archetype(issue model.ClaimIssue) model.Archetype {
	if present(issue.PTPDenialReason) && issue.HCPCSPosition == 1 {
		return model.ArchetypePTPConflict
	}

	if issue.LCDCoveredGroup == "N" && issue.DXPosition == 1 {
		return model.ArchetypePrimaryDXNotCovered
	}

	if present(issue.MUEDenialType) {
		return model.ArchetypeMUERisk
	}

	if issue.NCDStatus == "Terminated" {
		return model.ArchetypeNCDTerminated
	}

	if issue.LCDCoveredGroup == "N" && issue.DXPosition > 1 {
		return model.ArchetypeSecondaryDXNotCovered
	}

	if medicalNecessityProcedures[issue.HCPCSCode] && strings.HasPrefix(issue.ICD10Code, "M") {
		return model.ArchetypeMedicalNecessity
	}

	return model.ArchetypeCompliant
}

// present reports whether an upstream text field carries a real value.
// Upstream extracts sometimes serialize SQL NULL as the literal string "None".
func present(s string) bool {
	return s != "" && s != "None"
}
