package model

// ClaimIssue is one diagnosis/procedure pairing flagged by the upstream claim
// analyzer. It is read-only input to the correction pipeline: nothing here
// mutates it. Unknown extra fields in the source JSON are ignored on decode.
type ClaimIssue struct {
	ClaimID string `json:"claim_id"`

	HCPCSCode     string `json:"hcpcs_code"`
	HCPCSPosition int    `json:"hcpcs_position"` // 1 = primary procedure line
	ProcedureName string `json:"procedure_name,omitempty"`

	ICD10Code     string `json:"icd10_code,omitempty"`
	ICD9Code      string `json:"icd9_code,omitempty"`
	DiagnosisName string `json:"diagnosis_name,omitempty"`
	DXPosition    int    `json:"dx_position"` // 1 = primary diagnosis

	DenialRiskScore float64 `json:"denial_risk_score,omitempty"`
	DenialRiskLevel string  `json:"denial_risk_level,omitempty"`

	// Coverage and edit flags computed upstream.
	PTPDenialReason string `json:"ptp_denial_reason,omitempty"`       // NCCI procedure-to-procedure conflict
	MUEDenialType   string `json:"mue_denial_type,omitempty"`         // set when units exceed the MUE threshold
	LCDCoveredGroup string `json:"lcd_icd10_covered_group,omitempty"` // "Y" or "N"
	NCDStatus       string `json:"ncd_status,omitempty"`              // e.g. "Terminated"

	ActionRequired string `json:"action_required,omitempty"`
}

// CodeSet carries the codes an evidence query can bind. A diagnosis may be
// supplied in either ICD revision, or both; which one the rules database
// stores is resolved at query time.
type CodeSet struct {
	HCPCS string
	ICD9  string
	ICD10 string
}

// Codes extracts the query-relevant codes from an issue.
func (i ClaimIssue) Codes() CodeSet {
	return CodeSet{
		HCPCS: i.HCPCSCode,
		ICD9:  i.ICD9Code,
		ICD10: i.ICD10Code,
	}
}
