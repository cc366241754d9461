// Package pipeline orchestrates the two-stage correction flow: Stage 1
// builds a denial justification from broad policy retrieval, Stage 2
// classifies the issue and synthesizes corrections from database evidence and
// archetype-scoped policies. Issues within a claim are independent and run
// concurrently under a bounded limit.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/UdonsiKalu/denialguard/internal/classify"
	"github.com/UdonsiKalu/denialguard/internal/model"
)

// PolicySearcher is the retrieval dependency. *policyindex.Retriever
// satisfies it.
type PolicySearcher interface {
	SearchBroad(ctx context.Context, issue model.ClaimIssue) []model.PolicyExcerpt
	SearchCorrections(ctx context.Context, issue model.ClaimIssue, archetype model.Archetype) []model.PolicyExcerpt
}

// EvidenceGatherer is the rules-database dependency. *evidence.Aggregator
// satisfies it.
type EvidenceGatherer interface {
	Gather(ctx context.Context, archetype model.Archetype, codes model.CodeSet) []model.EvidenceRecord
}

// Corrector is the synthesis dependency. *correct.Synthesizer satisfies it.
type Corrector interface {
	Analyze(ctx context.Context, issue model.ClaimIssue, policies []model.PolicyExcerpt) model.DenialAnalysis
	Correct(ctx context.Context, issue model.ClaimIssue, archetype model.Archetype, sub model.SubArchetype,
		analysis model.DenialAnalysis, evidence []model.EvidenceRecord, policies []model.PolicyExcerpt) model.CorrectionResult
}

// Pipeline runs the two-stage flow for every issue of a claim.
type Pipeline struct {
	retriever PolicySearcher
	gatherer  EvidenceGatherer
	corrector Corrector
	workers   int
	log       zerolog.Logger
}

// New creates a pipeline. workers bounds concurrent issues within one claim.
func New(retriever PolicySearcher, gatherer EvidenceGatherer, corrector Corrector, workers int, log zerolog.Logger) *Pipeline {
	if workers <= 0 {
		workers = 2
	}
	return &Pipeline{
		retriever: retriever,
		gatherer:  gatherer,
		corrector: corrector,
		workers:   workers,
		log:       log,
	}
}

// ProcessClaim runs both stages for every issue and aggregates the results.
// External-service failures never surface here: each collaborator degrades
// internally. The only error returned is caller cancellation, honored between
// issues rather than mid-issue.
func (p *Pipeline) ProcessClaim(ctx context.Context, claimID string, issues []model.ClaimIssue) (*model.PipelineResult, error) {
	result := &model.PipelineResult{
		ClaimID:     claimID,
		RunID:       uuid.NewString(),
		Issues:      make([]model.IssueResult, len(issues)),
		TotalIssues: len(issues),
		StartedAt:   time.Now().UTC(),
	}

	p.log.Info().Str("claim_id", claimID).Str("run_id", result.RunID).Int("issues", len(issues)).Msg("processing claim")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.Go(func() error {
			result.Issues[i] = p.processIssue(gctx, issue)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.CompletedAt = time.Now().UTC()
	p.log.Info().Str("claim_id", claimID).Dur("elapsed", result.CompletedAt.Sub(result.StartedAt)).Msg("claim processed")
	return result, nil
}

// processIssue runs Stage 1 then Stage 2 for one issue. Each slot in the
// result slice is written by exactly one goroutine.
func (p *Pipeline) processIssue(ctx context.Context, issue model.ClaimIssue) model.IssueResult {
	out := model.IssueResult{Issue: issue}

	// Stage 1: broad validated retrieval + denial justification.
	broadPolicies := p.retriever.SearchBroad(ctx, issue)
	analysis := p.corrector.Analyze(ctx, issue, broadPolicies)
	out.Stage1 = model.Stage1Result{
		Policies: broadPolicies,
		Analysis: analysis,
	}
	p.log.Debug().Str("claim_id", issue.ClaimID).Int("policies", len(broadPolicies)).Msg("stage 1 complete")

	// Stage 2: classify, then gather evidence and archetype-scoped policies
	// in parallel before refinement and synthesis.
	archetype := classify.Archetype(issue)

	var (
		evidence []model.EvidenceRecord
		policies []model.PolicyExcerpt
	)
	var wg errgroup.Group
	wg.Go(func() error {
		evidence = p.gatherer.Gather(ctx, archetype, issue.Codes())
		return nil
	})
	wg.Go(func() error {
		policies = p.retriever.SearchCorrections(ctx, issue, archetype)
		return nil
	})
	_ = wg.Wait() // collaborators degrade internally, never error

	sub := classify.SubArchetype(archetype, issue, evidence)
	correction := p.corrector.Correct(ctx, issue, archetype, sub, analysis, evidence, policies)

	out.Stage2 = model.Stage2Result{
		Archetype:          archetype,
		SubArchetype:       sub,
		Evidence:           evidence,
		CorrectionPolicies: policies,
		Correction:         correction,
	}
	p.log.Debug().
		Str("claim_id", issue.ClaimID).
		Str("archetype", string(archetype)).
		Int("corrections", len(correction.Corrections)).
		Msg("stage 2 complete")
	return out
}
