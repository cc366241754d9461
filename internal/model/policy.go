package model

import (
	"fmt"
	"strings"
)

// PolicyExcerpt is a retrieved snippet from the semantically indexed policy
// corpus, with enough citation metadata to reference it verbatim.
type PolicyExcerpt struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"` // source document, e.g. "clm104c23.pdf"
	Chapter    string  `json:"chapter,omitempty"`
	Section    string  `json:"section,omitempty"`
	Rev        string  `json:"rev,omitempty"`
	Page       string  `json:"page,omitempty"`
	Collection string  `json:"collection,omitempty"`
	Score      float64 `json:"score"` // similarity, higher is closer

	// Stage-1 relevance validation results.
	ValidationStatus  string `json:"validation_status,omitempty"` // PASS or FAIL
	RelevanceReason   string `json:"relevance_reason,omitempty"`
	ManualAppropriate bool   `json:"manual_appropriate,omitempty"`
}

// Citation renders the canonical citation string: "source - Chapter X,
// Section Y", degrading to just the source document when chapter/section
// metadata is absent.
func (p PolicyExcerpt) Citation() string {
	c := p.Source
	if c == "" {
		c = "Unknown"
	}
	if p.Chapter != "" && p.Chapter != "None" {
		c += fmt.Sprintf(" - Chapter %s", p.Chapter)
		if p.Section != "" && p.Section != "None" {
			c += fmt.Sprintf(", Section %s", p.Section)
		}
	}
	return c
}

// DedupKey is the content-prefix key used to collapse near-identical
// excerpts retrieved from multiple collections.
func (p PolicyExcerpt) DedupKey() string {
	if len(p.Text) <= 200 {
		return p.Text
	}
	return p.Text[:200]
}

// manualNames maps source-file prefixes to human-readable manual names.
var manualNames = []struct{ prefix, name string }{
	{"clm104c", "Medicare Claims Processing Manual"},
	{"pim83c", "Program Integrity Manual (Administrative Only)"},
	{"ncci", "National Correct Coding Initiative"},
	{"lcd", "Local Coverage Determination"},
	{"mcm", "Medicare Claims Manual"},
	{"bpm", "Medicare Benefit Policy Manual"},
}

// ManualName identifies the policy manual from the source file name.
func ManualName(sourceFile string) string {
	if sourceFile == "" {
		return "Unknown Source"
	}
	lower := strings.ToLower(sourceFile)
	for _, m := range manualNames {
		if strings.HasPrefix(lower, m.prefix) {
			return m.name
		}
	}
	return fmt.Sprintf("Policy Manual (%s)", sourceFile)
}
