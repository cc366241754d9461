package correct

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/UdonsiKalu/denialguard/internal/llm"
	"github.com/UdonsiKalu/denialguard/internal/model"
	"github.com/UdonsiKalu/denialguard/internal/worker"
)

// Synthesizer produces the Stage-1 denial analysis and the Stage-2 correction
// result. When the provider is nil, errors, times out, or returns unusable
// output, results are synthesized deterministically: the pipeline never
// surfaces a generation failure as its own failure.
type Synthesizer struct {
	provider llm.Provider
	registry model.Registry
	alts     AlternativeSource
	limiter  *worker.Limiter
	log      zerolog.Logger
}

// NewSynthesizer creates a synthesizer. provider, alts and limiter may all be
// nil; each absence selects the corresponding degraded behavior.
func NewSynthesizer(provider llm.Provider, registry model.Registry, alts AlternativeSource, limiter *worker.Limiter, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		registry: registry,
		alts:     alts,
		limiter:  limiter,
		log:      log,
	}
}

// Analyze runs the Stage-1 denial reasoning call. Output that is not valid
// JSON is preserved verbatim in Summary rather than discarded: a readable
// justification beats a lost one.
func (s *Synthesizer) Analyze(ctx context.Context, issue model.ClaimIssue, policies []model.PolicyExcerpt) model.DenialAnalysis {
	if s.provider == nil {
		return model.DenialAnalysis{Err: "generation disabled: no LLM provider configured"}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "generate"); err != nil {
			return model.DenialAnalysis{Err: "rate limit wait canceled: " + err.Error()}
		}
	}

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System: denialSystemPrompt,
		Prompt: BuildDenialPrompt(issue, policies),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("claim_id", issue.ClaimID).Msg("denial analysis generation failed")
		return model.DenialAnalysis{Err: "generation failed: " + truncate(err.Error(), 100)}
	}

	var analysis model.DenialAnalysis
	strategy, err := llm.ParseJSON(resp.Text, &analysis)
	if err != nil {
		s.log.Debug().Err(err).Msg("denial analysis output was not JSON, keeping raw text")
		return model.DenialAnalysis{
			Summary: resp.Text,
			Err:     "no valid JSON found",
		}
	}

	s.log.Debug().Str("parse_strategy", strategy).Int("tokens", resp.TokensUsed).Msg("denial analysis parsed")
	return analysis
}

// Correct runs the Stage-2 correction call and parses the structured result.
// Any failure, at generation or parsing, yields the deterministic fallback.
func (s *Synthesizer) Correct(ctx context.Context, issue model.ClaimIssue, archetype model.Archetype,
	sub model.SubArchetype, analysis model.DenialAnalysis, evidence []model.EvidenceRecord,
	policies []model.PolicyExcerpt) model.CorrectionResult {

	if s.provider == nil {
		return s.fallbackCorrection(ctx, issue, archetype, evidence, sub, "generation disabled: no LLM provider configured")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "generate"); err != nil {
			return s.fallbackCorrection(ctx, issue, archetype, evidence, sub, "rate limit wait canceled: "+err.Error())
		}
	}

	info := s.registry[archetype]
	prompt := BuildCorrectionPrompt(issue, archetype, info, analysis, evidence, policies, sub)

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System: correctionSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("claim_id", issue.ClaimID).Str("archetype", string(archetype)).Msg("correction generation failed")
		return s.fallbackCorrection(ctx, issue, archetype, evidence, sub, "generation failed: "+truncate(err.Error(), 100))
	}

	var result model.CorrectionResult
	strategy, err := llm.ParseJSON(resp.Text, &result)
	if err != nil {
		s.log.Warn().Err(err).Str("claim_id", issue.ClaimID).Msg("correction output unparseable, using fallback")
		return s.fallbackCorrection(ctx, issue, archetype, evidence, sub, "parse failed: "+truncate(resp.Text, 200))
	}

	if len(result.Corrections) == 0 {
		s.log.Warn().Str("claim_id", issue.ClaimID).Msg("parsed correction result carries no corrections, using fallback")
		return s.fallbackCorrection(ctx, issue, archetype, evidence, sub, "model returned no corrections")
	}

	// The model occasionally drops or mangles identity fields; restore them.
	result.ClaimID = issue.ClaimID
	result.Archetype = archetype

	s.log.Debug().Str("parse_strategy", strategy).Int("corrections", len(result.Corrections)).Msg("correction parsed")
	return result
}
