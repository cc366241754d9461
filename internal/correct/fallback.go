package correct

import (
	"context"
	"fmt"

	"github.com/UdonsiKalu/denialguard/internal/crosswalk"
	"github.com/UdonsiKalu/denialguard/internal/model"
)

// AlternativeSource provides replacement diagnosis candidates for the
// Primary_DX fallback. *crosswalk.Resolver satisfies it.
type AlternativeSource interface {
	Alternatives(ctx context.Context, icd10 string, limit int) []crosswalk.Alternative
}

// Fallback confidence levels, matched to the strength of the evidence behind
// each deterministic strategy.
const (
	confidenceReduceUnits    = 0.90
	confidenceBillSeparately = 0.95
	confidenceModifier59     = 0.85
	confidenceManualReview   = 0.50
)

// fallbackCorrection synthesizes a schema-valid correction when generation
// failed or produced unusable output. Corrections and policy references are
// never empty.
func (s *Synthesizer) fallbackCorrection(ctx context.Context, issue model.ClaimIssue, archetype model.Archetype,
	evidence []model.EvidenceRecord, sub model.SubArchetype, reason string) model.CorrectionResult {

	result := model.CorrectionResult{
		ClaimID:        issue.ClaimID,
		Archetype:      archetype,
		FallbackReason: reason,
	}

	switch archetype {
	case model.ArchetypePrimaryDXNotCovered:
		result.EvidenceSummary = "LCD coverage data not available - using crosswalk-driven alternatives"
		result.Corrections = s.diagnosisAlternatives(ctx, issue.ICD10Code)
		result.PolicyReferences = []string{"CMS ICD-10 Coverage Guidelines"}
		result.FinalGuidance = "Replace non-covered diagnosis with clinically appropriate covered alternative"
		result.ComplianceChecklist = []string{
			"Verify medical necessity documentation supports alternative diagnosis",
			"Ensure alternative diagnosis is clinically accurate",
		}
		result.EvidenceTraceability = "GEMS crosswalk mapping + clinical guidelines"

	case model.ArchetypePTPConflict:
		result.EvidenceSummary = fmt.Sprintf("PTP conflict detected for %s", issue.HCPCSCode)
		result.Corrections = modifierStrategies(issue.HCPCSCode, evidence, sub)
		result.PolicyReferences = []string{"NCCI Policy Manual Chapter I"}
		result.FinalGuidance = "Apply appropriate resolution strategy based on modifier status"
		result.ComplianceChecklist = []string{
			"Document medical necessity for separate services",
			"Verify modifier usage aligns with NCCI guidelines",
		}
		result.EvidenceTraceability = "NCCI edit data + policy guidelines"

	case model.ArchetypeMUERisk:
		threshold := "Unknown"
		if len(evidence) > 0 && evidence[0].MUEThreshold != "" {
			threshold = evidence[0].MUEThreshold
		}
		result.EvidenceSummary = fmt.Sprintf("MUE threshold: %s", threshold)
		result.Corrections = []model.CorrectionRecommendation{{
			Field:               "units",
			Rationale:           fmt.Sprintf("Reduce units to at most %s", threshold),
			Confidence:          confidenceReduceUnits,
			EvidenceReference:   "mue_threshold from NCCI table",
			PolicyReference:     "NCCI MUE Guidelines",
			ImplementationSteps: fmt.Sprintf("Adjust billed units to not exceed %s", threshold),
		}}
		result.PolicyReferences = []string{"NCCI MUE Table"}
		result.FinalGuidance = "Reduce units or provide medical necessity documentation"
		result.ComplianceChecklist = []string{"Verify documentation supports exceeding MUE"}
		result.EvidenceTraceability = "NCCI MUE data"

	default:
		result.EvidenceSummary = "Processing completed with fallback logic"
		result.Corrections = []model.CorrectionRecommendation{{
			Field:               "documentation",
			Rationale:           fmt.Sprintf("Review claim documentation and coding for %s against current CMS guidance", issue.HCPCSCode),
			Confidence:          confidenceManualReview,
			EvidenceReference:   "No archetype-specific evidence available",
			PolicyReference:     "Medicare Claims Processing Manual",
			ImplementationSteps: "Route the claim to a coding specialist for manual review before submission",
		}}
		result.PolicyReferences = []string{"Medicare Claims Processing Manual"}
		result.FinalGuidance = "Manual review recommended"
		result.EvidenceTraceability = "Fallback guidance"
	}

	return result
}

// diagnosisAlternatives builds replacement recommendations from the GEMS
// crosswalk, degrading to a manual-review recommendation when the database
// has nothing to offer.
func (s *Synthesizer) diagnosisAlternatives(ctx context.Context, currentICD10 string) []model.CorrectionRecommendation {
	var alternatives []crosswalk.Alternative
	if s.alts != nil {
		alternatives = s.alts.Alternatives(ctx, currentICD10, 5)
	}

	if len(alternatives) == 0 {
		s.log.Debug().Str("icd10", currentICD10).Msg("no crosswalk alternatives, using generic guidance")
		return []model.CorrectionRecommendation{{
			Field:               "diagnosis_code",
			CurrentValue:        currentICD10,
			SuggestedValue:      "MANUAL_REVIEW_REQUIRED",
			Rationale:           fmt.Sprintf("Review LCD coverage guidelines for %s", currentICD10),
			Confidence:          confidenceManualReview,
			EvidenceReference:   "No database alternatives available",
			PolicyReference:     "CMS LCD Database",
			ImplementationSteps: "Consult CMS LCD database or MAC for covered diagnosis alternatives",
		}}
	}

	corrections := make([]model.CorrectionRecommendation, 0, len(alternatives))
	for _, alt := range alternatives {
		sharedICD9 := alt.SharedICD9
		if sharedICD9 == "" {
			sharedICD9 = "N/A"
		}
		corrections = append(corrections, model.CorrectionRecommendation{
			Field:               "diagnosis_code",
			CurrentValue:        currentICD10,
			SuggestedValue:      alt.Code,
			Rationale:           fmt.Sprintf("Replace %s with %s - %s", currentICD10, alt.Code, alt.Description),
			Confidence:          alt.Confidence,
			EvidenceReference:   fmt.Sprintf("GEMS crosswalk - %s (shared ICD-9: %s)", alt.Strategy, sharedICD9),
			PolicyReference:     "CMS ICD-10-CM Code Set + GEMS Mappings",
			ImplementationSteps: fmt.Sprintf("Update primary diagnosis field from %s to %s", currentICD10, alt.Code),
		})
	}
	return corrections
}

// modifierStrategies resolves the PTP fallback. A "Modifier Not Allowed"
// edit, from either the evidence row or the sub-archetype flag, rules out the
// modifier path entirely: the services must be split instead.
func modifierStrategies(hcpcsCode string, evidence []model.EvidenceRecord, sub model.SubArchetype) []model.CorrectionRecommendation {
	modifierStatus := "Unknown"
	if len(evidence) > 0 && evidence[0].ModifierStatus != "" {
		modifierStatus = evidence[0].ModifierStatus
	}

	modifierBlocked := modifierStatus == "Modifier Not Allowed" ||
		(sub.ModifierAllowed != nil && !*sub.ModifierAllowed)

	if modifierBlocked {
		return []model.CorrectionRecommendation{{
			Field:               "procedure_code",
			CurrentValue:        fmt.Sprintf("%s (same date)", hcpcsCode),
			SuggestedValue:      fmt.Sprintf("%s (separate date or claim)", hcpcsCode),
			Rationale:           "Split services to separate claims or dates of service - modifiers NOT allowed",
			Confidence:          confidenceBillSeparately,
			EvidenceReference:   fmt.Sprintf("modifier_status = %q for %s", modifierStatus, hcpcsCode),
			PolicyReference:     "NCCI PTP Manual - Modifier Not Allowed edits",
			ImplementationSteps: fmt.Sprintf("Bill %s on a different date of service OR as a completely separate claim", hcpcsCode),
		}}
	}

	return []model.CorrectionRecommendation{{
		Field:               "modifier",
		CurrentValue:        "none",
		SuggestedValue:      fmt.Sprintf("%s-59", hcpcsCode),
		Rationale:           fmt.Sprintf("Add modifier 59 to %s to indicate distinct procedural service", hcpcsCode),
		Confidence:          confidenceModifier59,
		EvidenceReference:   fmt.Sprintf("modifier_status = %q for %s", modifierStatus, hcpcsCode),
		PolicyReference:     "NCCI PTP Manual Ch.2 - Modifier 59 Guidelines",
		ImplementationSteps: fmt.Sprintf("Append modifier 59 to procedure code: %s-59. Document separate anatomical site or patient encounter.", hcpcsCode),
	}}
}
