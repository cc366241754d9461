// Package correct turns a classified, evidence-backed claim issue into
// structured correction recommendations, using the generative provider when
// available and deterministic synthesis when it is not.
package correct

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

const denialSystemPrompt = "You are a CMS Policy Reasoning Assistant specializing in Medicare claim denial analysis."

const correctionSystemPrompt = "You are a CMS policy correction expert specializing in evidence-driven archetype claim remediation."

const denialPromptTemplate = `CRITICAL VALIDATION RULES - READ CAREFULLY:
1. Use ONLY the exact claim data provided below - DO NOT infer patient conditions not present
2. Do NOT hallucinate medical conditions (ESRD, diabetes, etc.) unless explicitly mentioned in claim
3. Base ALL reasoning ONLY on retrieved policy text and provided ICD/CPT codes
4. If policy excerpt doesn't mention the specific CPT/ICD codes, mark as LOW relevance
5. Identify policy sources accurately based on file paths provided

EXACT CLAIM DATA (DO NOT MODIFY OR INFER):
- CPT/HCPCS: %s (%s)
- ICD-10: %s (%s)
- Denial Reason: %s
- Risk Level: %s
- Action Required: %s

RETRIEVED POLICIES WITH RELEVANCE VALIDATION:
%s

MANUAL TYPE RESTRICTIONS:
- pim*.pdf (Program Integrity Manual): ONLY for administrative/fraud issues
- clm104*.pdf (Claims Processing Manual): For coding conflicts and procedure definitions
- ncci*.pdf (NCCI): For bundling conflicts and PTP edits
- lcd*.pdf (LCD): For coverage determinations and local policies

REQUIRED OUTPUT FORMAT (valid JSON only):
{
  "claim_summary": "Brief description using EXACT claim data - NO inferred conditions",
  "final_reasoning_summary": "Complete explanation using EXACT claim data. NO inferred medical conditions. Include specific policy citations.",
  "validation_summary": "Summary of policy relevance validation results",
  "denial_keywords": ["keyword1", "keyword2", "keyword3"]
}

STRICT VALIDATION REQUIREMENTS:
- Only include policies that directly mention the claim's CPT/ICD codes
- Reject policies from wrong manual types (e.g., pim* for clinical coding issues)
- Do NOT infer patient medical conditions not explicitly stated
- Use EXACT CPT/ICD descriptions provided, not generic terms`

const correctionPromptTemplate = `ARCHETYPE-BASED INSTRUCTIONS:
1. The detected archetype is: %s
2. Archetype description: %s
3. Evidence insight: %s
4. Correction strategies for this archetype:
%s
5. Use database evidence + CMS policies to provide fact-driven corrections

ORIGINAL CLAIM DATA:
- CPT/HCPCS: %s (%s)
- ICD-10: %s (%s)
- Denial Reason: %s
- Risk Level: %s
- Action Required: %s

STAGE 1 DENIAL ANALYSIS:
%s

DATABASE EVIDENCE:
%s

ARCHETYPE-SPECIFIC CORRECTION POLICIES:
%s
%s
CRITICAL POLICY CITATION RULES:
1. DO NOT use "POLICY 1/2/3" as citations
2. ALWAYS use the "CITE THIS AS:" line shown above each policy
3. Extract the EXACT Source Document, Chapter, and Section from the policy header
4. Format: "source_document.pdf - Chapter X, Section Y"
5. Example: "clm104c23.pdf - Chapter 23, Section 10.1"
6. If no chapter/section, use: "source_document.pdf"

REQUIRED OUTPUT FORMAT (MUST BE VALID JSON):
{
  "claim_id": "%s",
  "archetype": "%s",
  "sql_evidence_summary": "Summary of database evidence found",
  "recommended_corrections": [
    {
      "field": "diagnosis_code|procedure_code|modifier|units|documentation",
      "suggestion": "Specific actionable correction based on database evidence + CMS policy",
      "confidence": 0.85,
      "sql_evidence_reference": "Specific database field/table that supports this correction",
      "policy_reference": "USE THE 'CITE THIS AS:' FORMAT - source.pdf - Chapter X, Section Y",
      "implementation_guidance": "Step-by-step instructions for applying the correction"
    }
  ],
  "policy_references": [
    "Specific manual references from retrieved policies"
  ],
  "final_guidance": "Overall corrective summary based on database evidence + archetype",
  "compliance_checklist": [
    "Archetype-specific compliance actions based on database evidence"
  ],
  "evidence_traceability": "Links between database evidence, policies, and recommendations"
}

CRITICAL: Output MUST be valid JSON. No narrative text outside the JSON structure.`

// BuildDenialPrompt renders the Stage-1 denial reasoning prompt.
func BuildDenialPrompt(issue model.ClaimIssue, policies []model.PolicyExcerpt) string {
	var excerpts strings.Builder
	for i, p := range policies {
		fmt.Fprintf(&excerpts, "\nPOLICY %d:\n", i+1)
		fmt.Fprintf(&excerpts, "Source File: %s\n", orDefault(p.Source, "unknown.pdf"))
		fmt.Fprintf(&excerpts, "Manual: %s\n", model.ManualName(p.Source))
		fmt.Fprintf(&excerpts, "Validation: %s\n", orDefault(p.ValidationStatus, "UNKNOWN"))
		fmt.Fprintf(&excerpts, "Chapter: %s\n", orDefault(p.Chapter, "N/A"))
		fmt.Fprintf(&excerpts, "Section: %s\n", orDefault(p.Section, "N/A"))
		fmt.Fprintf(&excerpts, "Revision: %s\n", orDefault(p.Rev, "N/A"))
		fmt.Fprintf(&excerpts, "Page: %s\n", orDefault(p.Page, "N/A"))
		fmt.Fprintf(&excerpts, "Retrieval Score: %.4f\n", p.Score)
		fmt.Fprintf(&excerpts, "Text: %s...\n", truncate(p.Text, 500))
	}
	if excerpts.Len() == 0 {
		excerpts.WriteString("(no relevant policies retrieved)")
	}

	return fmt.Sprintf(denialPromptTemplate,
		orDefault(issue.HCPCSCode, "N/A"),
		procedureName(issue),
		orDefault(issue.ICD10Code, "N/A"),
		orDefault(issue.DiagnosisName, "N/A"),
		orDefault(issue.PTPDenialReason, "N/A"),
		orDefault(issue.DenialRiskLevel, "N/A"),
		orDefault(issue.ActionRequired, "N/A"),
		excerpts.String())
}

// BuildCorrectionPrompt renders the Stage-2 correction prompt with archetype
// metadata, sub-archetype guidance, formatted evidence, and policy excerpts
// carrying explicit citation lines.
func BuildCorrectionPrompt(issue model.ClaimIssue, archetype model.Archetype, info model.ArchetypeInfo,
	analysis model.DenialAnalysis, evidence []model.EvidenceRecord, policies []model.PolicyExcerpt,
	sub model.SubArchetype) string {

	var strategies strings.Builder
	for _, s := range info.CorrectionStrategies {
		fmt.Fprintf(&strategies, "- %s\n", s)
	}

	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		analysisJSON = []byte("{}")
	}

	var evidenceText strings.Builder
	for i, rec := range evidence {
		fmt.Fprintf(&evidenceText, "\nDATABASE EVIDENCE %d:\n%s", i+1, rec.PromptText())
	}
	if evidenceText.Len() == 0 {
		evidenceText.WriteString("No database evidence found for this claim/archetype combination.")
	}

	var policyText strings.Builder
	for i, p := range policies {
		divider := strings.Repeat("=", 80)
		fmt.Fprintf(&policyText, "\n%s\nPOLICY %d\n%s\n", divider, i+1, divider)
		fmt.Fprintf(&policyText, "CITE THIS AS: %s\n", p.Citation())
		fmt.Fprintf(&policyText, "Source Document: %s\n", orDefault(p.Source, "Unknown"))
		fmt.Fprintf(&policyText, "Chapter: %s\n", orDefault(p.Chapter, "None"))
		fmt.Fprintf(&policyText, "Section: %s\n", orDefault(p.Section, "None"))
		fmt.Fprintf(&policyText, "Collection: %s\n", orDefault(p.Collection, "N/A"))
		fmt.Fprintf(&policyText, "Relevance Score: %.4f\n", p.Score)
		fmt.Fprintf(&policyText, "\nPolicy Text:\n%s...\n", truncate(p.Text, 500))
	}

	return fmt.Sprintf(correctionPromptTemplate,
		archetype,
		info.Description,
		info.QueryInsight,
		strategies.String(),
		orDefault(issue.HCPCSCode, "N/A"),
		procedureName(issue),
		orDefault(issue.ICD10Code, "N/A"),
		orDefault(issue.DiagnosisName, "N/A"),
		orDefault(issue.PTPDenialReason, "N/A"),
		orDefault(issue.DenialRiskLevel, "N/A"),
		orDefault(issue.ActionRequired, "N/A"),
		string(analysisJSON),
		evidenceText.String(),
		policyText.String(),
		subArchetypeGuidance(sub),
		orDefault(issue.ClaimID, "N/A"),
		archetype)
}

// subArchetypeGuidance renders the sub-type block, empty when no sub-type was
// derived. The modifier permission line is spelled out because the model must
// never recommend a modifier against a hard "not allowed" edit.
func subArchetypeGuidance(sub model.SubArchetype) string {
	if !sub.Defined() {
		return ""
	}

	divider := strings.Repeat("=", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nSUB-ARCHETYPE SPECIFIC GUIDANCE\n%s\n", divider, divider)
	fmt.Fprintf(&b, "Sub-Type: %s\n", sub.Name)
	fmt.Fprintf(&b, "Guidance: %s\n", orDefault(sub.Guidance, "N/A"))
	fmt.Fprintf(&b, "Reference: %s\n", orDefault(sub.Reference, "N/A"))
	fmt.Fprintf(&b, "Business Impact: %s\n", orDefault(sub.BusinessImpact, "N/A"))

	if sub.ModifierAllowed != nil {
		if *sub.ModifierAllowed {
			b.WriteString("Modifier Allowed: YES - Use modifier 59/XE/XP/XS/XU\n")
		} else {
			b.WriteString("Modifier Allowed: NO - Modifier not allowed, absolute denial\n")
		}
	}
	if sub.Strictness != "" {
		fmt.Fprintf(&b, "Strictness Level: %s\n", sub.Strictness)
	}
	if sub.AdjudicationType != "" {
		fmt.Fprintf(&b, "Adjudication: %s\n", sub.AdjudicationType)
	}
	fmt.Fprintf(&b, "%s\n", divider)
	return b.String()
}

func procedureName(issue model.ClaimIssue) string {
	if issue.ProcedureName != "" {
		return issue.ProcedureName
	}
	if issue.HCPCSCode != "" {
		return model.ProcedureDescription(issue.HCPCSCode)
	}
	return "N/A"
}

func orDefault(s, def string) string {
	if s == "" || s == "None" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
