package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extraction strategy names, reported so callers can log which layer
// recovered the payload.
const (
	ParseDirect = "direct"
	ParseFenced = "fenced_block"
	ParseBraces = "brace_span"
)

// jsonExtractor pulls a candidate JSON document out of raw model output.
// Returns "" when the layer does not apply.
type jsonExtractor struct {
	name    string
	extract func(string) string
}

// extractors are tried in order; the first whose candidate unmarshals wins.
// Fenced blocks take precedence over the brace span so prose containing
// stray braces around a fenced payload still parses the right document.
var extractors = []jsonExtractor{
	{ParseDirect, func(s string) string { return strings.TrimSpace(s) }},
	{ParseFenced, extractFenced},
	{ParseBraces, extractBraceSpan},
}

// ParseJSON decodes model output into v, tolerating the usual decorations:
// surrounding prose, markdown code fences, or both. Returns the name of the
// strategy that succeeded.
func ParseJSON(text string, v any) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response text")
	}

	var lastErr error
	for _, ex := range extractors {
		candidate := ex.extract(text)
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err != nil {
			lastErr = err
			continue
		}
		return ex.name, nil
	}
	return "", fmt.Errorf("no parseable JSON in response: %w", lastErr)
}

// extractFenced returns the contents of the first ```json (or bare ```)
// fenced block.
func extractFenced(text string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(text, fence)
		if start < 0 {
			continue
		}
		rest := text[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		return strings.TrimSpace(rest[:end])
	}
	return ""
}

// extractBraceSpan returns the substring from the first '{' to the last '}'.
func extractBraceSpan(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
