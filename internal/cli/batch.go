package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/UdonsiKalu/denialguard/internal/model"
	"github.com/UdonsiKalu/denialguard/internal/pipeline"
	"github.com/UdonsiKalu/denialguard/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	claimsFile   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <issues.json>",
	Short: "Process multiple claims from an issues file in parallel",
	Long: `Batch runs the two-stage correction pipeline for every claim in the
issues file concurrently:
- Issues are grouped by claim ID
- Claims run in parallel over a bounded worker pool
- Each claim's result is written to its own JSON file

An optional claim-ID file (one ID per line, # comments allowed) restricts
which claims run.

Example:
  denialguard batch issues.json
  denialguard batch issues.json --concurrency 4 --output-dir ./corrections
  denialguard batch issues.json --claims claims.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of concurrent claims")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./denialguard-corrections", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&claimsFile, "claims", "", "file of claim IDs to process (default: all claims in the issues file)")

	// Service flags shared with the correct command
	batchCmd.Flags().StringVar(&dbDSN, "db", "", "rules database DSN (default: config or DATABASE_URL)")
	batchCmd.Flags().StringVar(&indexPath, "index", "", "policy index path (default: config)")
	batchCmd.Flags().IntVar(&issueWorkers, "issue-workers", 0, "concurrent issues per claim (default: config)")

	// LLM flags
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama; default: config)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider default)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	issuesPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	applyServiceFlags(cfg)
	cfg.Output.Verbose = verbose
	cfg.Concurrency.ClaimWorkers = concurrency

	issues, err := pipeline.LoadIssues(issuesPath)
	if err != nil {
		return err
	}
	claimIDs, issuesByClaim := pipeline.GroupByClaim(issues)

	if claimsFile != "" {
		requested, err := worker.ReadClaimIDsFromFile(claimsFile)
		if err != nil {
			return err
		}
		claimIDs = intersectClaims(requested, issuesByClaim)
	}
	if len(claimIDs) == 0 {
		return fmt.Errorf("no claims to process from %s", issuesPath)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(os.Stderr, "Processing %d claims with %d workers\n", len(claimIDs), concurrency)

	processor := worker.NewBatchProcessor(a.pipeline, concurrency)
	results := processor.ProcessClaims(ctx, claimIDs, issuesByClaim)

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", result.ClaimID, result.Error)
			continue
		}

		outPath := filepath.Join(outputDir, sanitizeFilename(result.ClaimID)+".json")
		if err := pipeline.WriteJSON(result.Result, outPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL %s: write result: %v\n", result.ClaimID, err)
			continue
		}

		successCount++
		if verbose {
			fmt.Fprintf(os.Stderr, "OK   %s (%d issues) -> %s\n", result.ClaimID, result.Result.TotalIssues, outPath)
		}
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d claims, %d succeeded, %d failed, output in %s\n",
		len(results), successCount, failureCount, outputDir)

	if failureCount > 0 {
		return fmt.Errorf("%d of %d claims failed", failureCount, len(results))
	}
	return nil
}

// intersectClaims keeps requested IDs that actually appear in the issues
// file, preserving the requested order.
func intersectClaims(requested []string, issuesByClaim map[string][]model.ClaimIssue) []string {
	var out []string
	for _, id := range requested {
		if _, ok := issuesByClaim[id]; ok {
			out = append(out, id)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: claim %s not present in issues file, skipping\n", id)
		}
	}
	return out
}

// sanitizeFilename makes a claim ID safe to use as a file name.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
