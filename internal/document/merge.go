package document

import "strings"

// generatedHeadingPrefix marks the first machine-owned heading of a fully
// regenerated note. Everything between the frontmatter and this marker
// belongs to the user.
const generatedHeadingPrefix = "### "

// Regenerate rebuilds a fully machine-generated note while preserving the
// user-editable region of the existing document verbatim.
//
// frontmatter is the complete new "---"-delimited block (no trailing
// newline); body is the new generated content and starts with a "### "
// heading. With no existing document the preserved region defaults to a
// single blank line. When the existing document has frontmatter and user
// text but no generated heading yet, everything after the frontmatter is
// preserved and the body is appended below it.
//
// Regenerating twice with identical inputs and an unedited preserved region
// yields a byte-identical document.
func Regenerate(existing, frontmatter, body string) string {
	if existing == "" {
		return frontmatter + "\n\n" + body
	}

	lines := Split(existing)
	fmEnd := frontmatterEnd(lines)

	marker := -1
	for i := fmEnd; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], generatedHeadingPrefix) {
			marker = i
			break
		}
	}

	var preserved string
	if marker >= 0 {
		preserved = Lines(lines[fmEnd:marker]).Join() + "\n"
	} else {
		preserved = Lines(lines[fmEnd:]).Join()
		if preserved != "" && !strings.HasSuffix(preserved, "\n") {
			preserved += "\n"
		}
	}
	if preserved == "" {
		preserved = "\n"
	}

	return frontmatter + "\n" + preserved + body
}
