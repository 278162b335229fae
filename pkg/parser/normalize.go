package parser

import "strings"

// Normalize collapses every whitespace run, newlines included, into a single
// space and trims both ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitLines breaks raw page text into normalized, non-empty lines.
func splitLines(page string) []string {
	raw := strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if clean := Normalize(line); clean != "" {
			lines = append(lines, clean)
		}
	}
	return lines
}
