package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

// LoadIssues reads claim issues from a JSON file produced by the upstream
// analyzer. The file holds an array of issue objects; unknown fields are
// ignored.
func LoadIssues(path string) ([]model.ClaimIssue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}

	var issues []model.ClaimIssue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("parse issues: %w", err)
	}
	return issues, nil
}

// GroupByClaim partitions issues by claim ID, preserving input order within
// each claim. Returns claim IDs in sorted order alongside the grouping so
// batch runs are deterministic.
func GroupByClaim(issues []model.ClaimIssue) ([]string, map[string][]model.ClaimIssue) {
	groups := make(map[string][]model.ClaimIssue)
	for _, issue := range issues {
		groups[issue.ClaimID] = append(groups[issue.ClaimID], issue)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, groups
}

// FilterClaim returns only the issues belonging to the given claim.
func FilterClaim(issues []model.ClaimIssue, claimID string) []model.ClaimIssue {
	var out []model.ClaimIssue
	for _, issue := range issues {
		if issue.ClaimID == claimID {
			out = append(out, issue)
		}
	}
	return out
}
