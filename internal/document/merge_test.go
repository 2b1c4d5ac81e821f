package document

import (
	"strings"
	"testing"
)

const (
	newFrontmatter = "---\nid: abc\nname: Platform\n---"
	newBody        = "### Updates:\n[2026-01-09 10:00] - [Ada](https://x/u/1):\nshipped\n"
)

func TestRegenerate_FreshDocument(t *testing.T) {
	got := Regenerate("", newFrontmatter, newBody)
	want := newFrontmatter + "\n\n" + newBody
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestRegenerate_PreservesUserRegionVerbatim(t *testing.T) {
	user := "\nMy own notes.\n\n  indented, with trailing spaces  \n\n"
	existing := "---\nid: abc\nname: Old Name\n---" + "\n" + user + "### Updates:\nstale body\n"
	got := Regenerate(existing, newFrontmatter, newBody)
	if !strings.Contains(got, user) {
		t.Errorf("user region not preserved verbatim:\n%q", got)
	}
	if !strings.HasPrefix(got, newFrontmatter) {
		t.Error("new frontmatter not applied")
	}
	if strings.Contains(got, "stale body") || strings.Contains(got, "Old Name") {
		t.Error("old generated content or frontmatter leaked through")
	}
}

func TestRegenerate_Idempotent(t *testing.T) {
	existing := Regenerate("", newFrontmatter, newBody)
	// User edits the preserved region.
	edited := strings.Replace(existing, "---\n\n### Updates:", "---\n\nkeep me\n\n### Updates:", 1)
	once := Regenerate(edited, newFrontmatter, newBody)
	twice := Regenerate(once, newFrontmatter, newBody)
	if once != twice {
		t.Errorf("not idempotent:\nonce:\n%q\ntwice:\n%q", once, twice)
	}
	if !strings.Contains(once, "keep me") {
		t.Error("edit lost")
	}
}

func TestRegenerate_NoGeneratedHeadingYet(t *testing.T) {
	existing := "---\nid: abc\n---\nonly user text\n"
	got := Regenerate(existing, newFrontmatter, newBody)
	if !strings.Contains(got, "only user text\n") {
		t.Error("user text lost")
	}
	if !strings.HasSuffix(got, newBody) {
		t.Errorf("body not appended:\n%q", got)
	}
}

func TestRegenerate_NoFrontmatterInExisting(t *testing.T) {
	existing := "just some notes"
	got := Regenerate(existing, newFrontmatter, newBody)
	if !strings.Contains(got, "just some notes\n") {
		t.Error("user text lost")
	}
	if !strings.HasPrefix(got, newFrontmatter) {
		t.Error("frontmatter missing")
	}
}
