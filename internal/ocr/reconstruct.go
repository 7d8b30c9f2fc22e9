package ocr

import (
	"math"
	"sort"
	"strings"
)

const defaultLineHeight = 30

// ReconstructLines reassembles recognized boxes into reading order: boxes
// are grouped into visual lines by vertical proximity, ordered left to
// right within a line, and lines are emitted top to bottom. minConfidence
// filters boxes below the threshold; 0 accepts everything.
func ReconstructLines(boxes []Box, minConfidence float64) string {
	kept := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		if minConfidence > 0 && b.Confidence < minConfidence {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		return ""
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Top < kept[j].Top })
	lineHeight := medianLineHeight(kept)

	var lines []string
	var current []Box
	currentY := math.Inf(-1)

	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool { return current[i].Left < current[j].Left })
		parts := make([]string, len(current))
		for i, b := range current {
			parts[i] = b.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	for _, b := range kept {
		if math.IsInf(currentY, -1) || math.Abs(b.Top-currentY) > lineHeight*0.5 {
			flush()
			current = current[:0]
			currentY = b.Top
		}
		current = append(current, b)
	}
	flush()

	return strings.Join(lines, "\n")
}

// medianLineHeight estimates line spacing as the median of positive
// consecutive top-y deltas. Falls back to a fixed default when boxes give
// no signal (single box, or all boxes on one line).
func medianLineHeight(sorted []Box) float64 {
	var diffs []float64
	for i := 1; i < len(sorted); i++ {
		if d := sorted[i].Top - sorted[i-1].Top; d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return defaultLineHeight
	}
	sort.Float64s(diffs)
	return diffs[len(diffs)/2]
}

// MergeTexts combines the line output of two engines. The longer text wins
// as the base; lines from the other that are not present verbatim are
// appended. Near-duplicate lines that differ only in OCR noise survive as
// duplicates, which the downstream extraction tolerates.
func MergeTexts(a, b string) string {
	base, other := a, b
	if len(b) > len(a) {
		base, other = b, a
	}
	if strings.TrimSpace(other) == "" {
		return base
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(base, "\n") {
		seen[strings.TrimSpace(line)] = true
	}

	var sb strings.Builder
	sb.WriteString(base)
	for _, line := range strings.Split(other, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return sb.String()
}
