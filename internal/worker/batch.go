package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

// Processor runs the two-stage pipeline for one claim. *pipeline.Pipeline
// satisfies it.
type Processor interface {
	ProcessClaim(ctx context.Context, claimID string, issues []model.ClaimIssue) (*model.PipelineResult, error)
}

// ClaimJob processes all issues of one claim.
type ClaimJob struct {
	ClaimID   string
	Issues    []model.ClaimIssue
	Processor Processor
}

// Execute runs the claim through the pipeline.
func (j *ClaimJob) Execute(ctx context.Context) Result {
	result, err := j.Processor.ProcessClaim(ctx, j.ClaimID, j.Issues)
	return &ClaimResult{
		ClaimID: j.ClaimID,
		Result:  result,
		Error:   err,
	}
}

// ClaimResult is the batch outcome for one claim.
type ClaimResult struct {
	ClaimID string
	Result  *model.PipelineResult
	Error   error
}

// GetError returns the processing error, if any.
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor runs multiple claims concurrently over a worker pool.
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessClaims runs each claim's issues through the pipeline concurrently.
// claimIDs preserves the caller's ordering of work submission; results arrive
// in completion order.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claimIDs []string, issuesByClaim map[string][]model.ClaimIssue) []*ClaimResult {
	if len(claimIDs) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, id := range claimIDs {
		pool.Submit(&ClaimJob{
			ClaimID:   id,
			Issues:    issuesByClaim[id],
			Processor: b.processor,
		})
	}

	results := pool.Wait()

	claimResults := make([]*ClaimResult, len(results))
	for i, result := range results {
		claimResults[i] = result.(*ClaimResult)
	}

	return claimResults
}

// ReadClaimIDsFromFile reads claim IDs from a file, one per line, skipping
// blanks and # comments, deduplicating in order.
func ReadClaimIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}
