package model

import (
	"fmt"
	"strings"
)

// Evidence source tags. Every record carries one so downstream consumers can
// distinguish corroborated data from best-effort synthesis.
const (
	EvidenceSourceDatabase = "database"
	EvidenceSourceFallback = "fallback"
)

// Fallback reason codes recorded on synthesized evidence.
const (
	ReasonNoConnection  = "no_sql_connection"
	ReasonSQLError      = "sql_error"
	ReasonReturnedNulls = "sql_returned_nulls"
	ReasonNoLCDCoverage = "no_lcd_coverage_data"
)

// EvidenceRecord is one row of corroborating data from the rules database, or
// a synthesized stand-in when no informative row exists. All data fields are
// optional; columns not named here are ignored when scanning query results.
type EvidenceRecord struct {
	Source string `json:"source"` // "database" or "fallback"

	// NCCI edit fields.
	ProcedureCode            string `json:"procedure_code,omitempty"`
	PTPDenialReason          string `json:"ptp_denial_reason,omitempty"`
	PTPEditRationale         string `json:"ptp_edit_rationale,omitempty"`
	PTPEditType              string `json:"ptp_edit_type,omitempty"`
	Instructions             string `json:"instructions,omitempty"`
	ModifierStatus           string `json:"modifier_status,omitempty"`
	MUEThreshold             string `json:"mue_threshold,omitempty"`
	MUEDenialType            string `json:"mue_denial_type,omitempty"`
	MUERationale             string `json:"mue_rationale,omitempty"`
	MUEAdjudicationIndicator string `json:"mue_adjudication_indicator,omitempty"`

	// Crosswalk fields.
	ICD9Code         string `json:"icd9_code,omitempty"`
	ICD10Code        string `json:"icd10_code,omitempty"`
	ICD10Description string `json:"icd10_description,omitempty"`
	SourceTable      string `json:"source_table,omitempty"`

	// NCD tracking fields.
	NCDID                string `json:"ncd_id,omitempty"`
	NCDTitle             string `json:"ncd_title,omitempty"`
	TerminationDate      string `json:"termination_date,omitempty"`
	EffectiveDate        string `json:"effective_date,omitempty"`
	ImplementationDate   string `json:"implementation_date,omitempty"`
	ItemServiceDesc      string `json:"item_service_desc,omitempty"`
	IndicationLimitation string `json:"indication_limitation,omitempty"`

	// Informational query fields and fallback payload.
	SourceType       string `json:"source_type,omitempty"`
	Note             string `json:"note,omitempty"`
	DenialRiskLevel  string `json:"denial_risk_level,omitempty"`
	ComplianceStatus string `json:"compliance_status,omitempty"`
	Status           string `json:"status,omitempty"`
	Guidance         string `json:"guidance,omitempty"`
	Reason           string `json:"reason,omitempty"` // why the real query was abandoned
	SuggestedAction  string `json:"suggested_action,omitempty"`
	DataSource       string `json:"data_source,omitempty"`
}

// IsFallback reports whether the record was synthesized rather than read from
// the rules database.
func (r EvidenceRecord) IsFallback() bool {
	return r.Source == EvidenceSourceFallback
}

// fieldPairs lists every data field with its wire name, used by both the
// informative-record predicate and prompt formatting.
func (r EvidenceRecord) fieldPairs() [][2]string {
	return [][2]string{
		{"procedure_code", r.ProcedureCode},
		{"ptp_denial_reason", r.PTPDenialReason},
		{"ptp_edit_rationale", r.PTPEditRationale},
		{"ptp_edit_type", r.PTPEditType},
		{"instructions", r.Instructions},
		{"modifier_status", r.ModifierStatus},
		{"mue_threshold", r.MUEThreshold},
		{"mue_denial_type", r.MUEDenialType},
		{"mue_rationale", r.MUERationale},
		{"mue_adjudication_indicator", r.MUEAdjudicationIndicator},
		{"icd9_code", r.ICD9Code},
		{"icd10_code", r.ICD10Code},
		{"icd10_description", r.ICD10Description},
		{"source_table", r.SourceTable},
		{"ncd_id", r.NCDID},
		{"ncd_title", r.NCDTitle},
		{"termination_date", r.TerminationDate},
		{"effective_date", r.EffectiveDate},
		{"implementation_date", r.ImplementationDate},
		{"item_service_desc", r.ItemServiceDesc},
		{"indication_limitation", r.IndicationLimitation},
		{"source_type", r.SourceType},
		{"note", r.Note},
		{"denial_risk_level", r.DenialRiskLevel},
		{"compliance_status", r.ComplianceStatus},
		{"status", r.Status},
		{"guidance", r.Guidance},
		{"reason", r.Reason},
		{"suggested_action", r.SuggestedAction},
		{"data_source", r.DataSource},
	}
}

// DefaultIgnoreFields is the ignore-list used when deciding whether a record
// is informative. Identifier and provenance columns do not count as evidence:
// a crosswalk row that echoes back the queried codes with nothing else is
// treated as empty. The list is a parameter rather than a constant because it
// is domain-specific, not derivable from the schema.
func DefaultIgnoreFields() map[string]bool {
	return map[string]bool{
		"source_table": true,
		"icd9_code":    true,
		"icd10_code":   true,
	}
}

// Informative reports whether the record carries any substantive value
// outside the ignore-list. NULL-ish string values ("", "None", "NULL") do
// not count.
func (r EvidenceRecord) Informative(ignore map[string]bool) bool {
	for _, kv := range r.fieldPairs() {
		if ignore[kv[0]] {
			continue
		}
		switch strings.TrimSpace(kv[1]) {
		case "", "None", "NULL", "null":
		default:
			return true
		}
	}
	return false
}

// PromptText renders the record's populated fields for inclusion in a
// generation prompt, one "key: value" line per field.
func (r EvidenceRecord) PromptText() string {
	var b strings.Builder
	for _, kv := range r.fieldPairs() {
		if kv[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", kv[0], kv[1])
	}
	if r.Source != "" {
		fmt.Fprintf(&b, "  source: %s\n", r.Source)
	}
	return b.String()
}
