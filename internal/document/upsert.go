package document

import "strings"

// Action describes what an upsert did to the document.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// UpsertEntry applies keyed upsert semantics to the section span. When
// exactly one line in the span contains the key substring, that whole line
// is replaced with rendered (update in place, position unchanged). With no
// match, rendered is appended after the last non-blank line of the span.
// With several matches the first one is replaced and the rest are left
// alone; the count of extra matches is returned so the caller can flag the
// inconsistency.
//
// The key must be non-empty; keyless entries go through AppendEntry.
func UpsertEntry(lines Lines, span Span, key, rendered string) (Lines, Action, int) {
	matched := -1
	extra := 0
	for i := span.Start; i < span.End; i++ {
		if !strings.Contains(lines[i], key) {
			continue
		}
		if matched < 0 {
			matched = i
		} else {
			extra++
		}
	}
	if matched >= 0 {
		if lines[matched] == rendered {
			return lines, ActionSkipped, extra
		}
		out := make(Lines, len(lines))
		copy(out, lines)
		out[matched] = rendered
		return out, ActionUpdated, extra
	}
	return AppendEntry(lines, span, rendered), ActionCreated, 0
}

// AppendEntry inserts rendered as the final entry of the span: directly
// after the last non-blank line, so trailing blank padding stays below the
// entries.
func AppendEntry(lines Lines, span Span, rendered string) Lines {
	insert := span.Start
	for i := span.Start; i < span.End; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			insert = i + 1
		}
	}
	out := make(Lines, 0, len(lines)+1)
	out = append(out, lines[:insert]...)
	out = append(out, rendered)
	out = append(out, lines[insert:]...)
	return out
}

// ContainsEntry reports whether any line of the span contains the key.
func ContainsEntry(lines Lines, span Span, key string) bool {
	for i := span.Start; i < span.End; i++ {
		if strings.Contains(lines[i], key) {
			return true
		}
	}
	return false
}
