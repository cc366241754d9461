package classify

import (
	"strings"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

func boolPtr(b bool) *bool { return &b }

// SubArchetype derives the finer-grained sub-type for PTP and MUE issues from
// the rationale text on the gathered evidence. Other archetypes have no
// sub-types and get the zero value.
func SubArchetype(archetype model.Archetype, issue model.ClaimIssue, evidence []model.EvidenceRecord) model.SubArchetype {
	switch archetype {
	case model.ArchetypePTPConflict:
		return ptpSubtype(issue, evidence)
	case model.ArchetypeMUERisk:
		return mueSubtype(evidence)
	default:
		return model.SubArchetype{}
	}
}

// ptpSubtype keys off the PTP edit rationale, preferring the evidence row's
// rationale over the issue's denial reason. The ladder is ordered: earlier
// patterns win when several match.
func ptpSubtype(issue model.ClaimIssue, evidence []model.EvidenceRecord) model.SubArchetype {
	var rationale string
	if len(evidence) > 0 {
		rationale = evidence[0].PTPEditRationale
		if rationale == "" {
			rationale = evidence[0].PTPDenialReason
		}
	}
	if rationale == "" {
		rationale = issue.PTPDenialReason
	}
	if rationale == "" || rationale == "None" {
		return model.SubArchetype{
			Name:            "PTP_UNCLASSIFIED",
			ModifierAllowed: boolPtr(true),
			Guidance:        "Review specific PTP edit",
		}
	}

	text := strings.ToLower(rationale)

	switch {
	case strings.Contains(text, "mutually exclusive") || strings.Contains(text, "cannot be reported together"):
		return model.SubArchetype{
			Name:            "PTP_MUTUALLY_EXCLUSIVE",
			ModifierAllowed: boolPtr(false),
			Guidance:        "Procedures are mutually exclusive - bill only one (typically the more comprehensive)",
			Reference:       "NCCI Manual Chapter 11, Section 11.1",
			BusinessImpact:  "CRITICAL - Absolute denial if both billed",
		}
	case strings.Contains(text, "separate procedure"):
		return model.SubArchetype{
			Name:            "PTP_SEPARATE_PROCEDURE",
			ModifierAllowed: boolPtr(true),
			Guidance:        "Add modifier 59, XE, XP, XS, or XU to indicate distinct procedural service",
			Reference:       "NCCI Manual Chapter 11, Section 11.2 + CPT Appendix E",
			BusinessImpact:  "MEDIUM - May be separately billable with modifier",
		}
	case strings.Contains(text, "anesthesia") || strings.Contains(text, "standard preparation") || strings.Contains(text, "monitoring"):
		return model.SubArchetype{
			Name:            "PTP_ANESTHESIA_INCLUDED",
			ModifierAllowed: boolPtr(false),
			Guidance:        "Service is included in anesthesia/surgical global package - do not bill separately",
			Reference:       "NCCI Manual Chapter 11, Section 11.3",
			BusinessImpact:  "MEDIUM - Bundled into primary procedure",
		}
	case strings.Contains(text, "bundled") || strings.Contains(text, "component") || strings.Contains(text, "included"):
		return model.SubArchetype{
			Name:            "PTP_BUNDLED_SERVICE",
			ModifierAllowed: boolPtr(true),
			Guidance:        "Component service bundled into comprehensive code - may require modifier if distinct",
			Reference:       "NCCI Manual Chapter 11",
			BusinessImpact:  "HIGH - Typically bundled unless documented as distinct",
		}
	case strings.Contains(text, "cpt manual") || strings.Contains(text, "cms manual") || strings.Contains(text, "coding instruction"):
		return model.SubArchetype{
			Name:            "PTP_MANUAL_INSTRUCTION",
			ModifierAllowed: boolPtr(true),
			Guidance:        "Consult CPT Manual or CMS manual for specific coding instructions",
			Reference:       "CPT Manual + NCCI Manual Chapter 11",
			BusinessImpact:  "HIGH - Requires case-by-case review",
		}
	case strings.Contains(text, "hcpcs") && strings.Contains(text, "definition"):
		return model.SubArchetype{
			Name:            "PTP_CODE_DEFINITION",
			ModifierAllowed: boolPtr(true),
			Guidance:        "Review HCPCS code definition for bundling rules",
			Reference:       "HCPCS Code Definitions + NCCI Manual",
			BusinessImpact:  "HIGH - Based on code definition",
		}
	case strings.Contains(text, "standard") || strings.Contains(text, "routine"):
		return model.SubArchetype{
			Name:            "PTP_STANDARD_SERVICE",
			ModifierAllowed: boolPtr(false),
			Guidance:        "Standard/routine service included in primary procedure",
			Reference:       "NCCI Manual Chapter 11, Section 11.3",
			BusinessImpact:  "MEDIUM - Bundled into global package",
		}
	default:
		return model.SubArchetype{
			Name:            "PTP_OTHER",
			ModifierAllowed: boolPtr(true),
			Guidance:        "Review specific PTP edit rationale for guidance",
			Reference:       "NCCI Manual Chapter 11",
			BusinessImpact:  "VARIES - Case-by-case",
		}
	}
}

// mueSubtype keys off the MUE rationale on the first evidence row. The
// adjudication indicator is carried through verbatim.
func mueSubtype(evidence []model.EvidenceRecord) model.SubArchetype {
	var rationale, adjudication string
	if len(evidence) > 0 {
		rationale = evidence[0].MUERationale
		adjudication = evidence[0].MUEAdjudicationIndicator
	}
	if rationale == "" {
		return model.SubArchetype{
			Name:       "MUE_UNCLASSIFIED",
			Strictness: "MEDIUM",
			Guidance:   "Review MUE limit",
		}
	}

	text := strings.ToLower(rationale)

	switch {
	case strings.Contains(text, "cms policy"):
		return model.SubArchetype{
			Name:             "MUE_CMS_POLICY",
			AdjudicationType: adjudication,
			Strictness:       "CRITICAL",
			Guidance:         "Policy-based limit - non-negotiable, adhere strictly to MUE",
			Reference:        "NCCI Manual Chapter 10 + Specific CMS Policy",
			BusinessImpact:   "CRITICAL - Hard policy limit",
		}
	case strings.Contains(text, "clinical"):
		return model.SubArchetype{
			Name:             "MUE_CLINICAL_JUDGMENT",
			AdjudicationType: adjudication,
			Strictness:       "HIGH",
			Guidance:         "Clinical judgment threshold - may require medical necessity documentation for exceptions",
			Reference:        "NCCI Manual Chapter 10, Section 10.3",
			BusinessImpact:   "HIGH - Clinical review required for exceptions",
		}
	case strings.Contains(text, "anatomic") || strings.Contains(text, "bilateral") || strings.Contains(text, "unilateral"):
		return model.SubArchetype{
			Name:             "MUE_ANATOMIC_CONSIDERATION",
			AdjudicationType: adjudication,
			Strictness:       "CRITICAL",
			Guidance:         "Hard limit based on anatomy (e.g., 2 for bilateral) - verify anatomical accuracy",
			Reference:        "NCCI Manual Chapter 10, Section 10.2",
			BusinessImpact:   "CRITICAL - Hard anatomic limit",
		}
	case strings.Contains(text, "code descriptor") || strings.Contains(text, "cpt instruction"):
		return model.SubArchetype{
			Name:             "MUE_CODE_DESCRIPTOR",
			AdjudicationType: adjudication,
			Strictness:       "MEDIUM",
			Guidance:         "Limit based on CPT code descriptor - consult CPT Manual for definition",
			Reference:        "CPT Manual + NCCI Manual Chapter 10",
			BusinessImpact:   "MEDIUM - Based on code definition",
		}
	case strings.Contains(text, "nature of"):
		return model.SubArchetype{
			Name:             "MUE_NATURE_OF_SERVICE",
			AdjudicationType: adjudication,
			Strictness:       "MEDIUM",
			Guidance:         "Limit based on service nature (analyte, equipment, procedure)",
			Reference:        "NCCI Manual Chapter 10, Section 10.4",
			BusinessImpact:   "MEDIUM - Service-specific limit",
		}
	case strings.Contains(text, "prescribing information"):
		return model.SubArchetype{
			Name:             "MUE_PRESCRIBING_INFO",
			AdjudicationType: adjudication,
			Strictness:       "MEDIUM",
			Guidance:         "Limit based on drug prescribing information",
			Reference:        "NCCI Manual Chapter 10 + Drug prescribing info",
			BusinessImpact:   "MEDIUM - RX-specific limit",
		}
	case strings.Contains(text, "discontinued"):
		return model.SubArchetype{
			Name:             "MUE_DISCONTINUED",
			AdjudicationType: adjudication,
			Strictness:       "CRITICAL",
			Guidance:         "Drug/code discontinued - use alternative code",
			Reference:        "CMS Code Updates",
			BusinessImpact:   "CRITICAL - Code no longer valid",
		}
	case strings.Contains(text, "oral medication"):
		return model.SubArchetype{
			Name:             "MUE_ORAL_MEDICATION",
			AdjudicationType: adjudication,
			Strictness:       "HIGH",
			Guidance:         "Oral medication restrictions apply",
			Reference:        "NCCI Manual Chapter 10",
			BusinessImpact:   "HIGH - May not be payable",
		}
	case strings.Contains(text, "workgroup"):
		return model.SubArchetype{
			Name:             "MUE_WORKGROUP_DETERMINATION",
			AdjudicationType: adjudication,
			Strictness:       "HIGH",
			Guidance:         "Limit determined by CMS clinical workgroup",
			Reference:        "NCCI Manual Chapter 10, CMS Workgroup",
			BusinessImpact:   "HIGH - Expert clinical determination",
		}
	case strings.Contains(text, "data"):
		return model.SubArchetype{
			Name:             "MUE_DATA_DRIVEN",
			AdjudicationType: adjudication,
			Strictness:       "HIGH",
			Guidance:         "Limit based on claims data analysis",
			Reference:        "NCCI Manual Chapter 10, Claims Data",
			BusinessImpact:   "HIGH - Statistically derived limit",
		}
	default:
		return model.SubArchetype{
			Name:             "MUE_OTHER",
			AdjudicationType: adjudication,
			Strictness:       "MEDIUM",
			Guidance:         "Review specific MUE rationale for guidance",
			Reference:        "NCCI Manual Chapter 10",
			BusinessImpact:   "VARIES - Case-by-case",
		}
	}
}
