package model

import "time"

// DenialAnalysis is the Stage-1 denial justification. When the generative
// output is not valid JSON the raw text lands in Summary; fields the model
// omits stay zero. Unknown JSON fields are ignored on decode.
type DenialAnalysis struct {
	ClaimSummary      string   `json:"claim_summary,omitempty"`
	FinalReasoning    string   `json:"final_reasoning_summary,omitempty"`
	ValidationSummary string   `json:"validation_summary,omitempty"`
	DenialKeywords    []string `json:"denial_keywords,omitempty"`
	Summary           string   `json:"summary,omitempty"` // raw-text fallback wrapper
	Err               string   `json:"error,omitempty"`
}

// Stage1Result pairs an issue with its broad policy retrieval and the denial
// justification derived from it.
type Stage1Result struct {
	Policies []PolicyExcerpt `json:"policies_analyzed"`
	Analysis DenialAnalysis  `json:"denial_analysis"`
}

// Stage2Result carries everything the correction stage produced for an issue.
type Stage2Result struct {
	Archetype          Archetype        `json:"archetype"`
	SubArchetype       SubArchetype     `json:"sub_archetype_info,omitempty"`
	Evidence           []EvidenceRecord `json:"sql_evidence"`
	CorrectionPolicies []PolicyExcerpt  `json:"correction_policies"`
	Correction         CorrectionResult `json:"correction_analysis"`
}

// IssueResult is the complete two-stage output for one claim issue.
type IssueResult struct {
	Issue  ClaimIssue   `json:"issue"`
	Stage1 Stage1Result `json:"stage1_denial_analysis"`
	Stage2 Stage2Result `json:"stage2_correction_analysis"`
}

// PipelineResult aggregates all issues processed for one claim.
type PipelineResult struct {
	ClaimID     string        `json:"claim_id"`
	RunID       string        `json:"run_id"`
	Issues      []IssueResult `json:"enriched_issues"`
	TotalIssues int           `json:"total_issues"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}
