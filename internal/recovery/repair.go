package recovery

import (
	"strings"
)

// Repair patches the JSON damage models actually produce: responses cut
// off before closing braces, and trailing commas before a closer. Valid
// input passes through byte-identical. Brace counting ignores string
// contents, so a brace inside a value can still fool the balancer.
func Repair(s string) string {
	s = strings.TrimSpace(s)

	open := strings.Count(s, "{")
	closed := strings.Count(s, "}")
	if open > closed {
		trimmed := strings.TrimRight(s, " \t\r\n")
		if strings.HasSuffix(trimmed, ",") {
			s = strings.TrimSuffix(trimmed, ",")
		}
		s += strings.Repeat("}", open-closed)
	}

	return stripTrailingCommas(s)
}

// stripTrailingCommas drops commas that directly precede a closing brace
// or bracket. String literals are skipped so a "," inside a value is never
// touched.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r' || s[j] == '\n') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
