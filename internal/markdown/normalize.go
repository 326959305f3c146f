package markdown

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})([^#\s])`)
	// A table row the popup renderer chokes on: pipes with nothing but
	// separators or empty cells between them.
	brokenTableRowRe = regexp.MustCompile(`^\s*\|[\s|:-]*\|\s*$`)
)

// Normalize fixes the Markdown layout problems observed across
// provider outputs before the text is displayed or stored. It is
// deterministic and idempotent.
func Normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")

		// Drop separator-only table rows; real cell rows stay.
		if brokenTableRowRe.MatchString(trimmed) && !isTableSeparator(trimmed) {
			continue
		}

		// "##Heading" -> "## Heading"
		trimmed = headingRe.ReplaceAllString(trimmed, "$1 $2")

		out = append(out, trimmed)
	}

	out = surroundHeadings(out)
	out = collapseBlankRuns(out)

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// isTableSeparator reports whether the line is a legitimate header
// separator such as "| --- | :--- |".
func isTableSeparator(line string) bool {
	inner := strings.Trim(strings.TrimSpace(line), "|")
	if inner == "" {
		return false
	}
	for _, cell := range strings.Split(inner, "|") {
		cell = strings.TrimSpace(cell)
		if cell == "" || strings.Trim(cell, ":-") != "" {
			return false
		}
		if !strings.Contains(cell, "-") {
			return false
		}
	}
	return true
}

// surroundHeadings makes sure every heading has a blank line before
// and after it.
func surroundHeadings(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		isHeading := strings.HasPrefix(line, "#")
		if isHeading && len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, line)
		if isHeading && i+1 < len(lines) && lines[i+1] != "" {
			out = append(out, "")
		}
	}
	return out
}

// collapseBlankRuns reduces runs of blank lines to a single one.
func collapseBlankRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return out
}
