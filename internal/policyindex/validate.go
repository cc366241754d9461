package policyindex

import (
	"fmt"
	"strings"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

// Verdict is the outcome of relevance validation for one excerpt.
type Verdict struct {
	Relevant          bool
	Status            string // PASS or FAIL
	Reason            string
	ManualAppropriate bool
}

// generalMedicalKeywords pass long excerpts that discuss claims processing
// without naming the specific codes.
var generalMedicalKeywords = []string{"medical", "procedure", "service", "coding", "billing", "claim"}

// ValidateRelevance checks whether a retrieved excerpt actually speaks to the
// issue. The ladder is deliberately permissive: direct code mentions beat
// denial-reason keywords beat general medical content, and only excerpts
// matching none of those fail.
func ValidateRelevance(policy model.PolicyExcerpt, issue model.ClaimIssue) Verdict {
	text := strings.ToLower(policy.Text)
	denialReason := strings.ToLower(issue.PTPDenialReason)

	mentionsCPT := issue.HCPCSCode != "" && strings.Contains(text, strings.ToLower(issue.HCPCSCode))
	mentionsICD := issue.ICD10Code != "" && strings.Contains(text, strings.ToLower(issue.ICD10Code))

	var relevanceKeywords []string
	if strings.Contains(denialReason, "ptp") {
		relevanceKeywords = append(relevanceKeywords, "ptp", "procedure", "bundling", "ncci", "edit", "coding")
	}
	if strings.Contains(denialReason, "coding") {
		relevanceKeywords = append(relevanceKeywords, "coding", "cpt", "hcpcs", "procedure", "medical")
	}
	if strings.Contains(denialReason, "coverage") {
		relevanceKeywords = append(relevanceKeywords, "coverage", "lcd", "determination", "medical")
	}
	if strings.Contains(denialReason, "definition") {
		relevanceKeywords = append(relevanceKeywords, "definition", "coding", "procedure", "medical")
	}

	manualAppropriate := checkManualAppropriateness(policy.Source, issue.PTPDenialReason)

	switch {
	case mentionsCPT || mentionsICD:
		return Verdict{
			Relevant:          true,
			Status:            "PASS",
			Reason:            "Policy mentions CPT/ICD codes directly",
			ManualAppropriate: manualAppropriate,
		}
	case containsAny(text, relevanceKeywords):
		return Verdict{
			Relevant:          true,
			Status:            "PASS",
			Reason:            fmt.Sprintf("Policy mentions relevant keywords for %s", issue.PTPDenialReason),
			ManualAppropriate: manualAppropriate,
		}
	case containsAny(text, generalMedicalKeywords) && len(text) > 200:
		return Verdict{
			Relevant:          true,
			Status:            "PASS",
			Reason:            "Policy contains general medical content relevant to claims processing",
			ManualAppropriate: manualAppropriate,
		}
	default:
		return Verdict{
			Relevant:          false,
			Status:            "FAIL",
			Reason:            "Policy does not contain relevant medical or coding content",
			ManualAppropriate: manualAppropriate,
		}
	}
}

// checkManualAppropriateness matches the manual family against the denial
// vocabulary: integrity manuals for administrative denials, NCCI material for
// bundling denials, LCD documents for coverage denials. Unknown sources are
// presumed appropriate.
func checkManualAppropriateness(sourceFile, denialReason string) bool {
	if sourceFile == "" || denialReason == "" {
		return true
	}

	source := strings.ToLower(sourceFile)
	denial := strings.ToLower(denialReason)

	switch {
	case strings.HasPrefix(source, "pim"):
		return strings.Contains(denial, "administrative") || strings.Contains(denial, "integrity")
	case strings.HasPrefix(source, "clm104"):
		return containsAny(denial, []string{"coding", "procedure", "definition", "ptp", "conflict"})
	case strings.HasPrefix(source, "ncci"):
		return containsAny(denial, []string{"ptp", "bundling", "conflict", "ncci"})
	case strings.HasPrefix(source, "lcd"):
		return containsAny(denial, []string{"coverage", "determination", "local"})
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
