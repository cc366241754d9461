package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/UdonsiKalu/denialguard/internal/model"
	"github.com/UdonsiKalu/denialguard/internal/pipeline"
)

var (
	outJSON      string
	claimID      string
	runTimeout   time.Duration
	dbDSN        string
	indexPath    string
	llmProvider  string
	llmModel     string
	issueWorkers int
)

// correctCmd represents the correct command
var correctCmd = &cobra.Command{
	Use:   "correct <issues.json>",
	Short: "Run the two-stage correction pipeline for one claim",
	Long: `Correct processes the flagged issues of a single claim:
- Stage 1: broad policy retrieval with relevance validation, then a
  generated denial justification
- Stage 2: archetype classification, database evidence gathering with
  crosswalk retries, archetype-scoped policy retrieval, sub-archetype
  refinement, and correction synthesis

The issues file is the JSON array produced by the upstream claim analyzer.
When it holds multiple claims, select one with --claim.

Example:
  denialguard correct issues.json --claim CLM-001
  denialguard correct issues.json --json corrections.json
  denialguard correct issues.json --llm-provider ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrect,
}

func init() {
	rootCmd.AddCommand(correctCmd)

	// Output flags
	correctCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")
	correctCmd.Flags().StringVar(&claimID, "claim", "", "claim ID to process (default: first claim in the file)")
	correctCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall processing timeout")

	// Service flags
	correctCmd.Flags().StringVar(&dbDSN, "db", "", "rules database DSN (default: config or DATABASE_URL)")
	correctCmd.Flags().StringVar(&indexPath, "index", "", "policy index path (default: config)")
	correctCmd.Flags().IntVar(&issueWorkers, "issue-workers", 0, "concurrent issues per claim (default: config)")

	// LLM flags
	correctCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama; default: config)")
	correctCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider default)")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	issuesPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := loadConfig()
	applyServiceFlags(cfg)
	cfg.Output.Verbose = verbose

	issues, err := pipeline.LoadIssues(issuesPath)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return fmt.Errorf("no issues in %s", issuesPath)
	}

	target := claimID
	if target == "" {
		target = issues[0].ClaimID
	}
	claimIssues := pipeline.FilterClaim(issues, target)
	if len(claimIssues) == 0 {
		return fmt.Errorf("no issues for claim %q in %s", target, issuesPath)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Claim: %s (%d issues)\n", target, len(claimIssues))
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.pipeline.ProcessClaim(ctx, target, claimIssues)
	if err != nil {
		return fmt.Errorf("process claim: %w", err)
	}

	if err := pipeline.WriteJSON(result, outJSON); err != nil {
		return err
	}
	if verbose && outJSON != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", outJSON)
	}
	return nil
}

// applyServiceFlags overrides config values with explicitly set flags.
func applyServiceFlags(cfg *model.Config) {
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}
	if indexPath != "" {
		cfg.PolicyIndex.Path = indexPath
	}
	if issueWorkers > 0 {
		cfg.Concurrency.IssueWorkers = issueWorkers
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = "" // re-resolve for the chosen provider
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "ollama":
			if cfg.LLM.BaseURL == "" {
				cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
			}
		}
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
}
