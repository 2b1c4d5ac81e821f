// Package document implements the line-oriented Markdown model shared by the
// section locator, the entry upsert engine, and the regeneration merge.
//
// Documents are treated as external data: the heading and frontmatter
// conventions below are contracts with files the user also edits by hand,
// so everything here parses defensively and rewrites the smallest span it
// can.
package document

import "strings"

// Lines is a document split on newlines. Join is the exact inverse of Split.
type Lines []string

// Split breaks text into lines without dropping any terminator information:
// Join(Split(text)) == text.
func Split(text string) Lines {
	return strings.Split(text, "\n")
}

// Join reassembles the document.
func (l Lines) Join() string {
	return strings.Join(l, "\n")
}

// Span is a half-open line range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of lines in the span.
func (s Span) Len() int { return s.End - s.Start }

// headingLevel returns the number of leading '#' characters when the line is
// a Markdown ATX heading ("## Title"), and 0 otherwise.
func headingLevel(line string) int {
	trimmed := strings.TrimLeft(line, "#")
	n := len(line) - len(trimmed)
	if n == 0 || !strings.HasPrefix(trimmed, " ") {
		return 0
	}
	return n
}

// isSeparator reports whether the line is a "---" thematic break, which the
// vault convention uses to close a day's block.
func isSeparator(line string) bool {
	return strings.TrimSpace(line) == "---"
}

// frontmatterEnd returns the index of the first line after a leading YAML
// frontmatter block ("---" ... "---"), or 0 when the document has none.
func frontmatterEnd(lines Lines) int {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return i + 1
		}
	}
	return 0
}
