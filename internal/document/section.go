package document

import (
	"fmt"
	"strings"

	"github.com/starford/laguz/internal/apperr"
)

// SectionKey identifies a machine-owned section of a note.
type SectionKey string

const (
	SectionInitiativeUpdates SectionKey = "initiative_updates"
	SectionProjectUpdates    SectionKey = "project_updates"
	SectionCompletedTasks    SectionKey = "completed_tasks"
	SectionIssuesTouched     SectionKey = "issues_touched"
	SectionAgentTasks        SectionKey = "agent_tasks"
	SectionActivityLog       SectionKey = "activity_log"
	SectionChatLog           SectionKey = "chat_log"
)

// Order is the fixed top-to-bottom section ordering applied when a section
// is created fresh.
var Order = []SectionKey{
	SectionInitiativeUpdates,
	SectionProjectUpdates,
	SectionCompletedTasks,
	SectionIssuesTouched,
	SectionAgentTasks,
	SectionActivityLog,
	SectionChatLog,
}

// DailyHeadings maps section keys to the level-3 headings used in daily
// action notes and the journal.
var DailyHeadings = map[SectionKey]string{
	SectionInitiativeUpdates: "### Initiative Updates:",
	SectionProjectUpdates:    "### Project Updates:",
	SectionCompletedTasks:    "### Completed Tasks on Todoist:",
	SectionIssuesTouched:     "### Linear Issues Touched:",
	SectionAgentTasks:        "### Manus Tasks:",
	SectionActivityLog:       "### GitHub Activity:",
	SectionChatLog:           "### Telegram Logs:",
}

// WeeklyHeadings maps section keys to the level-5 headings used inside the
// per-day blocks of weekly cycle notes.
var WeeklyHeadings = map[SectionKey]string{
	SectionInitiativeUpdates: "##### Initiative Updates:",
	SectionProjectUpdates:    "##### Project Updates:",
	SectionCompletedTasks:    "##### Completed Tasks:",
	SectionIssuesTouched:     "##### Linear Issues Touched:",
	SectionAgentTasks:        "##### Manus Tasks:",
}

func orderIndex(key SectionKey) int {
	for i, k := range Order {
		if k == key {
			return i
		}
	}
	return len(Order)
}

// DayBlock locates the region owned by "### {day} -" in a weekly note. The
// returned span covers the lines after the heading up to the next day
// heading or end of document. Day names are matched case-sensitively.
func DayBlock(lines Lines, day string) (Span, error) {
	heading := "### " + day + " -"
	start := -1
	for i, line := range lines {
		if start < 0 {
			if strings.TrimSpace(line) == heading {
				start = i + 1
			}
			continue
		}
		if headingLevel(line) == 3 {
			return Span{Start: start, End: i}, nil
		}
	}
	if start < 0 {
		return Span{}, fmt.Errorf("%w: expected heading %q", apperr.ErrDayBlockNotFound, heading)
	}
	return Span{Start: start, End: len(lines)}, nil
}

// MainBlock returns the machine-writable region of a daily note: everything
// after the frontmatter and, when the note carries a "Daily Review:" block,
// after that block's closing separator. The review block is hand-written and
// must never be touched.
func MainBlock(lines Lines) Span {
	start := frontmatterEnd(lines)
	for i := start; i < len(lines); i++ {
		if !strings.Contains(lines[i], "Daily Review:") {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if isSeparator(lines[j]) {
				start = j + 1
				break
			}
		}
		break
	}
	return Span{Start: start, End: len(lines)}
}

// FindSection looks for the section heading inside block and returns the
// span of lines it owns: from the heading (exclusive) to the next heading or
// "---" separator, whichever comes first.
func FindSection(lines Lines, block Span, heading string) (Span, bool) {
	for i := block.Start; i < block.End; i++ {
		if strings.TrimSpace(lines[i]) != heading {
			continue
		}
		end := block.End
		for j := i + 1; j < block.End; j++ {
			if headingLevel(lines[j]) > 0 || isSeparator(lines[j]) {
				end = j
				break
			}
		}
		return Span{Start: i + 1, End: end}, true
	}
	return Span{}, false
}

// EnsureSection returns the span of the section with the given key inside
// block, creating the heading at its ordering-correct position when absent.
// headings selects the heading text per document kind (DailyHeadings or
// WeeklyHeadings). The returned lines and span reflect any insertion.
func EnsureSection(lines Lines, block Span, key SectionKey, headings map[SectionKey]string) (Lines, Span, bool) {
	heading := headings[key]
	if span, ok := FindSection(lines, block, heading); ok {
		return lines, span, true
	}

	// Scan existing section headings in the block and find the first one
	// that sorts after the target. The new heading goes immediately before
	// it; with no later section, it goes at the end of the block before the
	// terminator.
	insert := -1
	target := orderIndex(key)
	for i := block.Start; i < block.End && insert < 0; i++ {
		trimmed := strings.TrimSpace(lines[i])
		for k, h := range headings {
			if trimmed == h && orderIndex(k) > target {
				insert = i
				break
			}
		}
	}
	if insert < 0 {
		insert = blockTail(lines, block)
		// A review block missing its closing separator leaves the
		// hand-written text inside the block. Fresh sections go above it,
		// never below.
		for i := block.Start; i < block.End; i++ {
			if strings.Contains(lines[i], "Daily Review:") {
				insert = i
				break
			}
		}
	}

	added := []string{heading}
	if insert > 0 && strings.TrimSpace(lines[insert-1]) != "" {
		added = []string{"", heading}
	}
	out := make(Lines, 0, len(lines)+len(added))
	out = append(out, lines[:insert]...)
	out = append(out, added...)
	out = append(out, lines[insert:]...)
	at := insert + len(added)
	return out, Span{Start: at, End: at}, false
}

// blockTail finds the insertion point at the end of a block: before the
// trailing "---" separator when the block has one, otherwise after the last
// non-blank line.
func blockTail(lines Lines, block Span) int {
	for i := block.End - 1; i >= block.Start; i-- {
		if isSeparator(lines[i]) {
			return i
		}
		if strings.TrimSpace(lines[i]) != "" {
			return i + 1
		}
	}
	return block.Start
}
