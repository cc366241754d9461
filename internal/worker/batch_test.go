package worker

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

// MockProcessor implements Processor.
type MockProcessor struct {
	ShouldError bool
}

func (m *MockProcessor) ProcessClaim(ctx context.Context, claimID string, issues []model.ClaimIssue) (*model.PipelineResult, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("processing error")
	}
	return &model.PipelineResult{
		ClaimID:     claimID,
		TotalIssues: len(issues),
	}, nil
}

func batchInput(claimIDs ...string) ([]string, map[string][]model.ClaimIssue) {
	issues := make(map[string][]model.ClaimIssue, len(claimIDs))
	for _, id := range claimIDs {
		issues[id] = []model.ClaimIssue{{ClaimID: id, HCPCSCode: "74170"}}
	}
	return claimIDs, issues
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	processor := NewBatchProcessor(&MockProcessor{}, 2)

	ids, issues := batchInput("C1", "C2", "C3")
	results := processor.ProcessClaims(context.Background(), ids, issues)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Result == nil {
				t.Error("expected result for successful claim")
			} else if res.Result.ClaimID != res.ClaimID {
				t.Errorf("result claim %q does not match job claim %q", res.Result.ClaimID, res.ClaimID)
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.ClaimID, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessClaims_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockProcessor{ShouldError: true}, 2)

	ids, issues := batchInput("C1")
	results := processor.ProcessClaims(context.Background(), ids, issues)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockProcessor{}, 2)

	results := processor.ProcessClaims(context.Background(), nil, nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

// countingProcessor records how many claims it was asked to process.
type countingProcessor struct {
	calls int32
}

func (p *countingProcessor) ProcessClaim(ctx context.Context, claimID string, issues []model.ClaimIssue) (*model.PipelineResult, error) {
	atomic.AddInt32(&p.calls, 1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &model.PipelineResult{ClaimID: claimID, TotalIssues: len(issues)}, nil
}

func TestBatchProcessor_ProcessClaims_CanceledContext(t *testing.T) {
	tracker := &countingProcessor{}
	processor := NewBatchProcessor(tracker, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids, issues := batchInput("C1", "C2")
	results := processor.ProcessClaims(ctx, ids, issues)

	if len(results) != 0 {
		t.Errorf("expected 0 results with canceled context, got %d", len(results))
	}
	if got := atomic.LoadInt32(&tracker.calls); got != 0 {
		t.Errorf("expected 0 ProcessClaim calls with canceled context, got %d", got)
	}
}

func TestReadClaimIDsFromFile(t *testing.T) {
	content := `CLM-001
# comment
CLM-002

CLM-003   `

	tmpfile, err := os.CreateTemp("", "claims")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	ids, err := ReadClaimIDsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadClaimIDsFromFile failed: %v", err)
	}

	expected := []string{"CLM-001", "CLM-002", "CLM-003"}
	if len(ids) != len(expected) {
		t.Fatalf("expected %d IDs, got %d", len(expected), len(ids))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("expected ID %s at index %d, got %s", expected[i], i, id)
		}
	}
}

func TestReadClaimIDsFromFile_NonExistent(t *testing.T) {
	_, err := ReadClaimIDsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadClaimIDsFromFile_Deduplication(t *testing.T) {
	content := `CLM-001
CLM-001`

	tmpfile, err := os.CreateTemp("", "claims_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	ids, err := ReadClaimIDsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadClaimIDsFromFile failed: %v", err)
	}

	if len(ids) != 1 {
		t.Errorf("expected 1 ID after deduplication, got %d", len(ids))
	}
}

func TestClaimResult_GetError(t *testing.T) {
	r1 := &ClaimResult{ClaimID: "C1", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("processing failed")
	r2 := &ClaimResult{ClaimID: "C1", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
