package model

// SubArchetype refines an archetype using the rationale text of the matched
// rule. Derived per issue, never persisted.
type SubArchetype struct {
	Name string `json:"sub_archetype"`

	// ModifierAllowed is nil when the flag is not applicable to the
	// archetype. When set, downstream correction logic must respect it
	// literally: recommending a modifier against a false value is a
	// compliance error.
	ModifierAllowed *bool `json:"modifier_allowed,omitempty"`

	Strictness       string `json:"strictness,omitempty"`
	AdjudicationType string `json:"adjudication_type,omitempty"`
	Guidance         string `json:"guidance,omitempty"`
	Reference        string `json:"reference,omitempty"`
	BusinessImpact   string `json:"business_impact,omitempty"`
}

// Defined reports whether a sub-archetype was derived for this issue.
func (s SubArchetype) Defined() bool { return s.Name != "" }

// CorrectionRecommendation is one structured, schema-valid suggestion for
// modifying the claim. Recommendations target the claim only, never the
// policy source.
type CorrectionRecommendation struct {
	Field               string  `json:"field"` // diagnosis_code|procedure_code|modifier|units|documentation
	CurrentValue        string  `json:"current_value,omitempty"`
	SuggestedValue      string  `json:"suggested_value,omitempty"`
	Rationale           string  `json:"suggestion"`
	Confidence          float64 `json:"confidence"` // in [0,1]
	EvidenceReference   string  `json:"sql_evidence_reference,omitempty"`
	PolicyReference     string  `json:"policy_reference"`
	ImplementationSteps string  `json:"implementation_guidance,omitempty"`
}

// CorrectionResult is the Stage-2 output for one issue: the full parsed (or
// synthesized) correction set plus surrounding guidance.
type CorrectionResult struct {
	ClaimID              string                     `json:"claim_id"`
	Archetype            Archetype                  `json:"archetype"`
	EvidenceSummary      string                     `json:"sql_evidence_summary,omitempty"`
	Corrections          []CorrectionRecommendation `json:"recommended_corrections"`
	PolicyReferences     []string                   `json:"policy_references,omitempty"`
	FinalGuidance        string                     `json:"final_guidance,omitempty"`
	ComplianceChecklist  []string                   `json:"compliance_checklist,omitempty"`
	EvidenceTraceability string                     `json:"evidence_traceability,omitempty"`

	// FallbackReason is set when the generative step failed or produced
	// unparseable output and the corrections were synthesized locally.
	FallbackReason string `json:"fallback_reason,omitempty"`
}
