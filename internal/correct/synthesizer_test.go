package correct

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/UdonsiKalu/denialguard/internal/crosswalk"
	"github.com/UdonsiKalu/denialguard/internal/llm"
	"github.com/UdonsiKalu/denialguard/internal/model"
)

type fakeProvider struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Text: f.text, Model: "fake"}, nil
}

func (f *fakeProvider) IsAvailable(context.Context) bool { return true }

type fakeAlts struct {
	alternatives []crosswalk.Alternative
}

func (f *fakeAlts) Alternatives(_ context.Context, _ string, _ int) []crosswalk.Alternative {
	return f.alternatives
}

func newSynthesizer(p llm.Provider, alts AlternativeSource) *Synthesizer {
	return NewSynthesizer(p, model.Archetypes(), alts, nil, zerolog.Nop())
}

func boolPtr(b bool) *bool { return &b }

func TestCorrect_ParsesModelOutput(t *testing.T) {
	provider := &fakeProvider{text: `{
		"claim_id": "ignored-by-pipeline",
		"archetype": "NCCI_PTP_Conflict",
		"sql_evidence_summary": "PTP edit found",
		"recommended_corrections": [
			{"field": "modifier", "suggestion": "Add modifier 59", "confidence": 0.85, "policy_reference": "ncci_ch11.pdf - Chapter 11"}
		],
		"final_guidance": "Apply modifier 59"
	}`}
	s := newSynthesizer(provider, nil)

	issue := model.ClaimIssue{ClaimID: "C100", HCPCSCode: "74170"}
	result := s.Correct(context.Background(), issue, model.ArchetypePTPConflict,
		model.SubArchetype{}, model.DenialAnalysis{}, nil, nil)

	if result.FallbackReason != "" {
		t.Fatalf("expected parsed result, got fallback: %s", result.FallbackReason)
	}
	if result.ClaimID != "C100" {
		t.Errorf("claim id not restored from issue, got %q", result.ClaimID)
	}
	if result.Archetype != model.ArchetypePTPConflict {
		t.Errorf("archetype = %q", result.Archetype)
	}
	if len(result.Corrections) != 1 || result.Corrections[0].Field != "modifier" {
		t.Errorf("unexpected corrections: %+v", result.Corrections)
	}
}

func TestCorrect_GenerationFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("context deadline exceeded")}
	s := newSynthesizer(provider, nil)

	issue := model.ClaimIssue{ClaimID: "C100", HCPCSCode: "74170"}
	result := s.Correct(context.Background(), issue, model.ArchetypePTPConflict,
		model.SubArchetype{}, model.DenialAnalysis{}, nil, nil)

	if result.FallbackReason == "" {
		t.Fatal("expected fallback reason to be recorded")
	}
	if len(result.Corrections) == 0 {
		t.Fatal("fallback must produce corrections")
	}
	if len(result.PolicyReferences) == 0 {
		t.Fatal("fallback must carry policy references")
	}
}

func TestCorrect_UnparseableOutputFallsBack(t *testing.T) {
	provider := &fakeProvider{text: "I'm sorry, I cannot produce JSON today."}
	s := newSynthesizer(provider, nil)

	issue := model.ClaimIssue{ClaimID: "C100", HCPCSCode: "74170"}
	result := s.Correct(context.Background(), issue, model.ArchetypeMUERisk,
		model.SubArchetype{}, model.DenialAnalysis{},
		[]model.EvidenceRecord{{MUEThreshold: "2"}}, nil)

	if !strings.HasPrefix(result.FallbackReason, "parse failed") {
		t.Fatalf("fallback reason = %q", result.FallbackReason)
	}
	if len(result.Corrections) != 1 || result.Corrections[0].Field != "units" {
		t.Fatalf("expected MUE units correction, got %+v", result.Corrections)
	}
	if result.Corrections[0].Confidence != confidenceReduceUnits {
		t.Errorf("confidence = %v, want %v", result.Corrections[0].Confidence, confidenceReduceUnits)
	}
	if !strings.Contains(result.Corrections[0].Rationale, "2") {
		t.Errorf("expected threshold in rationale: %q", result.Corrections[0].Rationale)
	}
}

func TestCorrect_NilProviderFallsBack(t *testing.T) {
	s := newSynthesizer(nil, nil)

	result := s.Correct(context.Background(), model.ClaimIssue{ClaimID: "C1"}, model.ArchetypeCompliant,
		model.SubArchetype{}, model.DenialAnalysis{}, nil, nil)

	if result.FallbackReason == "" {
		t.Fatal("expected fallback reason")
	}
	if len(result.Corrections) == 0 {
		t.Fatal("default fallback must still carry a recommendation")
	}
	if result.Corrections[0].PolicyReference == "" {
		t.Error("policy reference must never be empty")
	}
}

func TestCorrect_EmptyCorrectionsTreatedAsFailure(t *testing.T) {
	provider := &fakeProvider{text: `{"claim_id": "C1", "recommended_corrections": []}`}
	s := newSynthesizer(provider, nil)

	result := s.Correct(context.Background(), model.ClaimIssue{ClaimID: "C1", HCPCSCode: "74170"},
		model.ArchetypePTPConflict, model.SubArchetype{}, model.DenialAnalysis{}, nil, nil)

	if result.FallbackReason == "" {
		t.Fatal("expected fallback when model returns no corrections")
	}
	if len(result.Corrections) == 0 {
		t.Fatal("fallback must produce corrections")
	}
}

func TestFallback_ModifierNotAllowedByEvidence(t *testing.T) {
	s := newSynthesizer(nil, nil)

	evidence := []model.EvidenceRecord{{ModifierStatus: "Modifier Not Allowed"}}
	result := s.fallbackCorrection(context.Background(), model.ClaimIssue{HCPCSCode: "74170"},
		model.ArchetypePTPConflict, evidence, model.SubArchetype{}, "test")

	if len(result.Corrections) != 1 {
		t.Fatalf("expected 1 correction, got %d", len(result.Corrections))
	}
	c := result.Corrections[0]
	if c.Field != "procedure_code" {
		t.Errorf("field = %q, want procedure_code (bill separately)", c.Field)
	}
	if c.Confidence != confidenceBillSeparately {
		t.Errorf("confidence = %v, want %v", c.Confidence, confidenceBillSeparately)
	}
	if strings.Contains(c.Rationale, "modifier 59") {
		t.Error("must not recommend a modifier when modifiers are not allowed")
	}
}

// The sub-archetype flag alone must block the modifier path, even when the
// evidence row does not carry a modifier status.
func TestFallback_ModifierBlockedBySubArchetype(t *testing.T) {
	s := newSynthesizer(nil, nil)

	sub := model.SubArchetype{Name: "PTP_MUTUALLY_EXCLUSIVE", ModifierAllowed: boolPtr(false)}
	result := s.fallbackCorrection(context.Background(), model.ClaimIssue{HCPCSCode: "74170"},
		model.ArchetypePTPConflict, nil, sub, "test")

	if result.Corrections[0].Field != "procedure_code" {
		t.Errorf("expected bill-separately strategy, got field %q", result.Corrections[0].Field)
	}
}

func TestFallback_ModifierAllowedDefaultsTo59(t *testing.T) {
	s := newSynthesizer(nil, nil)

	evidence := []model.EvidenceRecord{{ModifierStatus: "Modifier Allowed"}}
	result := s.fallbackCorrection(context.Background(), model.ClaimIssue{HCPCSCode: "74170"},
		model.ArchetypePTPConflict, evidence, model.SubArchetype{}, "test")

	c := result.Corrections[0]
	if c.Field != "modifier" {
		t.Errorf("field = %q, want modifier", c.Field)
	}
	if c.SuggestedValue != "74170-59" {
		t.Errorf("suggested value = %q, want 74170-59", c.SuggestedValue)
	}
	if c.Confidence != confidenceModifier59 {
		t.Errorf("confidence = %v, want %v", c.Confidence, confidenceModifier59)
	}
}

func TestFallback_DiagnosisAlternativesFromCrosswalk(t *testing.T) {
	alts := &fakeAlts{alternatives: []crosswalk.Alternative{
		{Code: "M16.10", Description: "Unilateral osteoarthritis, right hip", Strategy: crosswalk.StrategySharedICD9, SharedICD9: "71515", Confidence: crosswalk.ConfidenceSharedICD9},
		{Code: "M16.12", Description: "Unilateral osteoarthritis, left hip", Strategy: crosswalk.StrategyPatternFamily, Confidence: crosswalk.ConfidencePatternFamily},
	}}
	s := newSynthesizer(nil, alts)

	result := s.fallbackCorrection(context.Background(), model.ClaimIssue{ICD10Code: "M16.11"},
		model.ArchetypePrimaryDXNotCovered, nil, model.SubArchetype{}, "test")

	if len(result.Corrections) != 2 {
		t.Fatalf("expected 2 diagnosis alternatives, got %d", len(result.Corrections))
	}
	if result.Corrections[0].SuggestedValue != "M16.10" {
		t.Errorf("suggested value = %q", result.Corrections[0].SuggestedValue)
	}
	if result.Corrections[0].Confidence != crosswalk.ConfidenceSharedICD9 {
		t.Errorf("confidence = %v", result.Corrections[0].Confidence)
	}
	if !strings.Contains(result.Corrections[0].EvidenceReference, "71515") {
		t.Errorf("evidence reference missing shared ICD-9: %q", result.Corrections[0].EvidenceReference)
	}
}

func TestFallback_DiagnosisManualReviewWhenNoAlternatives(t *testing.T) {
	s := newSynthesizer(nil, &fakeAlts{})

	result := s.fallbackCorrection(context.Background(), model.ClaimIssue{ICD10Code: "M16.11"},
		model.ArchetypePrimaryDXNotCovered, nil, model.SubArchetype{}, "test")

	if len(result.Corrections) != 1 {
		t.Fatalf("expected 1 manual-review correction, got %d", len(result.Corrections))
	}
	c := result.Corrections[0]
	if c.SuggestedValue != "MANUAL_REVIEW_REQUIRED" {
		t.Errorf("suggested value = %q", c.SuggestedValue)
	}
	if c.Confidence != confidenceManualReview {
		t.Errorf("confidence = %v, want %v", c.Confidence, confidenceManualReview)
	}
	if c.PolicyReference == "" {
		t.Error("policy reference must never be empty")
	}
}

func TestAnalyze_RawTextPreserved(t *testing.T) {
	provider := &fakeProvider{text: "The claim will likely be denied because of the bundling edit."}
	s := newSynthesizer(provider, nil)

	analysis := s.Analyze(context.Background(), model.ClaimIssue{ClaimID: "C1"}, nil)
	if analysis.Summary != provider.text {
		t.Errorf("raw text not preserved: %q", analysis.Summary)
	}
	if analysis.Err == "" {
		t.Error("expected parse error to be recorded")
	}
}

func TestAnalyze_ParsesJSON(t *testing.T) {
	provider := &fakeProvider{text: `{"claim_summary": "CT abdomen bundling issue", "denial_keywords": ["ncci", "bundling"]}`}
	s := newSynthesizer(provider, nil)

	analysis := s.Analyze(context.Background(), model.ClaimIssue{ClaimID: "C1"}, nil)
	if analysis.ClaimSummary != "CT abdomen bundling issue" {
		t.Errorf("claim summary = %q", analysis.ClaimSummary)
	}
	if len(analysis.DenialKeywords) != 2 {
		t.Errorf("keywords = %v", analysis.DenialKeywords)
	}
}

func TestBuildCorrectionPrompt_CitationAndSubArchetype(t *testing.T) {
	issue := model.ClaimIssue{ClaimID: "C1", HCPCSCode: "74170", ICD10Code: "M16.11"}
	registry := model.Archetypes()
	policies := []model.PolicyExcerpt{
		{Text: "NCCI bundling guidance", Source: "ncci_ch11.pdf", Chapter: "11", Section: "11.2", Score: 0.9},
	}
	sub := model.SubArchetype{
		Name:            "PTP_MUTUALLY_EXCLUSIVE",
		ModifierAllowed: boolPtr(false),
		Guidance:        "Bill only one procedure",
	}

	prompt := BuildCorrectionPrompt(issue, model.ArchetypePTPConflict, registry[model.ArchetypePTPConflict],
		model.DenialAnalysis{}, nil, policies, sub)

	if !strings.Contains(prompt, "CITE THIS AS: ncci_ch11.pdf - Chapter 11, Section 11.2") {
		t.Error("prompt missing explicit citation line")
	}
	if !strings.Contains(prompt, "Modifier Allowed: NO - Modifier not allowed, absolute denial") {
		t.Error("prompt missing modifier prohibition")
	}
	if !strings.Contains(prompt, "PTP_MUTUALLY_EXCLUSIVE") {
		t.Error("prompt missing sub-archetype name")
	}
}
