// Package recovery turns raw model output into a well-formed extraction
// result: it locates a JSON object in the response, repairs common
// truncation damage, coerces values to their field types, and fills gaps
// from regex-derived fallbacks. Recovery and validation are separate
// stages; repair never inspects field semantics.
package recovery

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?)\\s*```")
	greedyBrace = regexp.MustCompile(`(?s)\{.{50,}`)
	nestedBrace = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// ExtractJSON locates the JSON object in a model response. Strategies in
// order: fenced code block, brace walk from the first '{', a greedy grab of
// everything from '{' when braces never balance (truncated output), and a
// non-nested object regex as the last resort.
func ExtractJSON(s string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return m[1], true
	}

	start := strings.IndexByte(s, '{')
	if start >= 0 {
		depth := 0
		for i := start; i < len(s); i++ {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		// Never balanced: take the truncated tail for repair.
		if m := greedyBrace.FindString(s); m != "" {
			return m, true
		}
		return "", false
	}

	if m := nestedBrace.FindString(s); m != "" {
		return m, true
	}
	return "", false
}
