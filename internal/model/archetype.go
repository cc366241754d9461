package model

// Archetype is a fixed denial pattern. The set is closed: classification
// always yields exactly one of these values.
type Archetype string

const (
	ArchetypePTPConflict           Archetype = "NCCI_PTP_Conflict"
	ArchetypePrimaryDXNotCovered   Archetype = "Primary_DX_Not_Covered"
	ArchetypeMUERisk               Archetype = "MUE_Risk"
	ArchetypeNCDTerminated         Archetype = "NCD_Terminated"
	ArchetypeSecondaryDXNotCovered Archetype = "Secondary_DX_Not_Covered"
	ArchetypeMedicalNecessity      Archetype = "Medical_Necessity_Review"
	ArchetypeCompliant             Archetype = "Compliant"
)

// ArchetypeInfo is the static metadata attached to an archetype: what it
// means, how to query the rules database for corroborating evidence, which
// policy collections to search, and which correction strategies apply.
type ArchetypeInfo struct {
	Description      string
	TriggerCondition string
	RiskCategory     string // CRITICAL, HIGH, MEDIUM, LOW
	BusinessImpact   string
	ActionRequired   string

	// EvidenceQuery is the parameterized SQL for this archetype. Procedure-
	// driven queries bind the HCPCS code as $1. Diagnosis-driven queries
	// contain a {DX_WHERE} token substituted with the column predicate for
	// whichever ICD revision is being tried.
	EvidenceQuery   string
	DiagnosisDriven bool
	QueryInsight    string

	Collections          []string // policy-index collections to search
	CorrectionStrategies []string
	SampleReference      string
}

// Registry is the immutable archetype metadata table. It is constructed once
// at process start and shared read-only between the classifier, aggregator
// and retriever.
type Registry map[Archetype]ArchetypeInfo

// Archetypes builds the registry. Callers must treat the returned value as
// read-only.
func Archetypes() Registry {
	return Registry{
		ArchetypePTPConflict: {
			Description:      "The CPT/HCPCS combination violates an NCCI Procedure-to-Procedure (PTP) rule.",
			TriggerCondition: "ptp_denial_reason present AND hcpcs_position = 1",
			RiskCategory:     "CRITICAL",
			BusinessImpact:   "FULL DENIAL: Primary procedure will be denied",
			ActionRequired:   "IMMEDIATE: Fix PTP conflict or claim will be denied",
			EvidenceQuery: `
				SELECT procedure_code, ptp_denial_reason, ptp_edit_rationale,
				       instructions, ptp_edit_type, modifier_status,
				       mue_threshold, mue_denial_type
				FROM ncci_denial_alerts
				WHERE procedure_code = $1
				  AND (ptp_denial_reason IS NOT NULL OR mue_threshold IS NOT NULL)`,
			QueryInsight: "Finds primary procedures that violate NCCI edits and provides the edit rationale and type.",
			Collections:  []string{"claims__ncci_edits", "claims__med_claims_policies"},
			CorrectionStrategies: []string{
				"Add a valid NCCI modifier (59, XE, XP, XS, XU) to indicate distinct procedural service.",
				"Split procedures into separate claim lines when appropriate.",
				"Verify same-day procedure compatibility per NCCI edits.",
			},
			SampleReference: "Medicare NCCI Policy Manual, Chapter I, E.1",
		},
		ArchetypePrimaryDXNotCovered: {
			Description:      "Primary ICD-10 diagnosis is not covered under the relevant LCD or NCD.",
			TriggerCondition: "lcd_icd10_covered_group = 'N' AND dx_position = 1",
			RiskCategory:     "CRITICAL",
			BusinessImpact:   "FULL DENIAL: Entire claim will be rejected",
			ActionRequired:   "IMMEDIATE: Add covered diagnosis or claim will be rejected",
			EvidenceQuery: `
				SELECT icd9_code, icd10_code, icd10_description,
				       'GEMS Crosswalk Master' AS source_table
				FROM icd_crosswalk_master
				WHERE {DX_WHERE} AND mapping_type = 'CM'`,
			DiagnosisDriven: true,
			QueryInsight:    "Provides ICD-9/ICD-10 crosswalk data used to locate covered diagnosis alternatives.",
			Collections:     []string{"claims__lcd_policies", "claims__ncd_policies"},
			CorrectionStrategies: []string{
				"Replace the ICD-10 diagnosis with a covered diagnosis per clinical guidelines.",
				"Validate medical necessity using standard coverage criteria.",
				"Ensure diagnosis supports medical necessity of CPT/HCPCS code.",
			},
			SampleReference: "CMS ICD-10 Coverage Guidelines",
		},
		ArchetypeMUERisk: {
			Description:      "Billed units exceed the Medically Unlikely Edit (MUE) threshold for this HCPCS/CPT code.",
			TriggerCondition: "mue_denial_type present",
			RiskCategory:     "HIGH",
			BusinessImpact:   "PARTIAL DENIAL: Units may be reduced",
			ActionRequired:   "REVIEW: Verify documentation supports units billed",
			EvidenceQuery: `
				SELECT procedure_code, mue_threshold, mue_denial_type,
				       mue_rationale, mue_adjudication_indicator, instructions
				FROM ncci_denial_alerts
				WHERE procedure_code = $1
				  AND mue_threshold IS NOT NULL`,
			QueryInsight: "Identifies where claim line units exceed CMS MUE limits and flags corresponding MAI levels.",
			Collections:  []string{"claims__ncci_edits"},
			CorrectionStrategies: []string{
				"Reduce billed units to the MUE limit for the HCPCS/CPT code.",
				"Include medical necessity documentation for exceeding MUE threshold.",
				"Verify if MUE has MAI of 1 (line edit) or 2/3 (date of service edit).",
			},
			SampleReference: "NCCI MUE Table, CMS Transmittal 12674",
		},
		ArchetypeNCDTerminated: {
			Description:      "National Coverage Determination for this procedure is terminated or expired.",
			TriggerCondition: "ncd_status = 'Terminated'",
			RiskCategory:     "HIGH",
			BusinessImpact:   "COVERAGE RISK: May affect reimbursement",
			ActionRequired:   "REVIEW: Check if NCD termination affects coverage",
			EvidenceQuery: `
				SELECT ncd_id, ncd_title, termination_date, effective_date,
				       implementation_date, item_service_desc, indication_limitation
				FROM ncd_tracking
				WHERE ncd_label = $1
				  AND termination_date IS NOT NULL`,
			QueryInsight: "Shows claims linked to terminated NCDs so replacement NCDs or LCD alternatives can be suggested.",
			Collections:  []string{"claims__ncd_policies"},
			CorrectionStrategies: []string{
				"Check for new or replacement NCD covering the procedure.",
				"If no active NCD, seek local LCD guidance from MAC.",
				"Document medical necessity to support coverage under general benefit category rules.",
			},
			SampleReference: "NCD Manual Pub 100-03, Terminated Sections",
		},
		ArchetypeSecondaryDXNotCovered: {
			Description:      "A secondary diagnosis is non-covered but not primary; limited impact on payment.",
			TriggerCondition: "lcd_icd10_covered_group = 'N' AND dx_position > 1",
			RiskCategory:     "MEDIUM",
			BusinessImpact:   "MINIMAL IMPACT: Secondary diagnosis issue",
			ActionRequired:   "MONITOR: Secondary diagnosis not covered",
			EvidenceQuery: `
				SELECT icd9_code, icd10_code, icd10_description,
				       'GEMS Crosswalk Master' AS source_table
				FROM icd_crosswalk_master
				WHERE {DX_WHERE} AND mapping_type = 'CM'`,
			DiagnosisDriven: true,
			QueryInsight:    "Provides ICD-9/ICD-10 crosswalk data. Secondary diagnosis coverage has minimal impact.",
			Collections:     []string{"claims__lcd_policies"},
			CorrectionStrategies: []string{
				"No immediate action required unless secondary DX is used to justify medical necessity.",
				"Review for co-diagnosis pairings and update if necessary.",
			},
			SampleReference: "Secondary Diagnosis Coverage Guidelines",
		},
		ArchetypeMedicalNecessity: {
			Description:      "Procedure may lack clinical justification for the diagnosis provided.",
			TriggerCondition: "Diagnostic test with musculoskeletal diagnosis and no NCD/LCD match",
			RiskCategory:     "MEDIUM",
			BusinessImpact:   "REVIEW RECOMMENDED: May be denied for lack of medical necessity",
			ActionRequired:   "REVIEW: Verify medical necessity documentation and clinical context",
			EvidenceQuery: `
				SELECT 'Medical_Necessity' AS source_type,
				       'No specific NCD/LCD for this procedure' AS note,
				       'General medical necessity criteria apply' AS guidance`,
			QueryInsight: "Medical necessity requires documentation of clinical appropriateness.",
			Collections:  []string{"claims__ncd_policies", "claims__lcd_policies", "claims__med_claims_policies"},
			CorrectionStrategies: []string{
				"Include medical necessity documentation in claim submission.",
				"Verify diagnosis supports the medical need for the procedure.",
				"Add appropriate diagnosis codes that justify the procedure.",
				"Review clinical guidelines for procedure appropriateness.",
			},
			SampleReference: "CMS Medical Necessity Guidelines",
		},
		ArchetypeCompliant: {
			Description:      "Claim appears compliant and passes all denial risk checks.",
			TriggerCondition: "Default when no other condition is met",
			RiskCategory:     "LOW",
			BusinessImpact:   "NO IMPACT: Claim should process normally",
			ActionRequired:   "NO ACTION: Claim appears compliant",
			EvidenceQuery: `
				SELECT 'OK' AS denial_risk_level,
				       'No specific code-level issues detected' AS compliance_status,
				       'Standard billing process applies' AS guidance`,
			QueryInsight: "Identifies claims that are clean and can serve as positive examples.",
			Collections:  nil,
			CorrectionStrategies: []string{
				"Maintain documentation and continue standard billing process.",
			},
			SampleReference: "CMS Claims Processing Manual Ch. 12, 40",
		},
	}
}

// UnboundQuery reports whether the archetype query takes no bind parameter
// (informational single-row queries).
func (a ArchetypeInfo) UnboundQuery() bool {
	return !a.DiagnosisDriven && !containsPlaceholder(a.EvidenceQuery)
}

func containsPlaceholder(q string) bool {
	for i := 0; i+1 < len(q); i++ {
		if q[i] == '$' && q[i+1] >= '1' && q[i+1] <= '9' {
			return true
		}
	}
	return false
}
