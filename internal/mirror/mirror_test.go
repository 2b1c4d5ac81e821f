package mirror

import (
	"strings"
	"testing"
	"time"
)

func strptr(s string) *string { return &s }

func testInitiative() Initiative {
	return Initiative{
		ID:          "init-1",
		Name:        "Platform Revamp",
		URL:         "https://linear.app/acme/initiative/init-1",
		Status:      "Active",
		Health:      "onTrack",
		StartedAt:   strptr("2026-01-02"),
		TargetDate:  strptr("2026-03-01"),
		Owner:       "Ada",
		Description: "Modernize the platform stack.",
		Documents: []DocumentLink{
			{Title: "Design Doc", URL: "https://linear.app/d/1"},
		},
		Updates: []Update{
			{Body: "Kickoff done.", Author: "Ada", URL: "https://linear.app/u/1",
				CreatedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
			{Body: "Milestone 1 shipped.", Author: "Grace", URL: "https://linear.app/u/2",
				CreatedAt: time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC)},
		},
		Projects: []ProjectRef{
			{Name: "Billing", URL: "https://linear.app/p/9"},
		},
	}
}

func TestRenderInitiative_Fresh(t *testing.T) {
	text, err := RenderInitiative("", testInitiative())
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"id: init-1",
		"status: Active",
		"completedAt: null",
		"owner: Ada",
		"Modernize the platform stack.",
		"### Related Linear Documents:",
		"- [[Design Doc - (Platform Revamp)]](https://linear.app/d/1)",
		"### Updates:",
		"### Related Projects:",
		"- [[(Project) Billing]](https://linear.app/p/9)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	// Description seeds the user region between frontmatter and first heading.
	if strings.Index(text, "Modernize the platform stack.") > strings.Index(text, "### Related Linear Documents:") {
		t.Error("description not placed before generated body")
	}
}

func TestRenderInitiative_UpdatesNewestFirst(t *testing.T) {
	text, err := RenderInitiative("", testInitiative())
	if err != nil {
		t.Fatal(err)
	}
	newer := strings.Index(text, "[2026-01-09 10:00] - [Grace](https://linear.app/u/2):")
	older := strings.Index(text, "[2026-01-05 09:00] - [Ada](https://linear.app/u/1):")
	if newer < 0 || older < 0 {
		t.Fatalf("update lines missing:\n%s", text)
	}
	if newer > older {
		t.Error("updates not sorted newest first")
	}
	if !strings.Contains(text, "Milestone 1 shipped.") {
		t.Error("update body missing")
	}
}

func TestRenderInitiative_PreservesUserRegion(t *testing.T) {
	i := testInitiative()
	first, err := RenderInitiative("", i)
	if err != nil {
		t.Fatal(err)
	}

	// User edits the region between frontmatter and the first heading.
	edited := strings.Replace(first, "Modernize the platform stack.",
		"Modernize the platform stack.\n\nMy own planning notes.", 1)

	i.Status = "Completed"
	i.CompletedAt = strptr("2026-02-20")
	i.Updates = i.Updates[:1]
	second, err := RenderInitiative(edited, i)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(second, "My own planning notes.") {
		t.Error("user edits lost on regeneration")
	}
	if !strings.Contains(second, "status: Completed") {
		t.Error("frontmatter not refreshed")
	}
	if strings.Contains(second, "Milestone 1 shipped.") {
		t.Error("stale generated body survived")
	}
}

func TestRenderInitiative_Idempotent(t *testing.T) {
	i := testInitiative()
	first, err := RenderInitiative("", i)
	if err != nil {
		t.Fatal(err)
	}
	second, err := RenderInitiative(first, i)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("regeneration not idempotent:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestRenderInitiative_EmptyCollections(t *testing.T) {
	text, err := RenderInitiative("", Initiative{ID: "i", Name: "Bare", URL: "https://x"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"_No documents._", "_No updates yet._", "_No projects._"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing placeholder %q", want)
		}
	}
}

func TestRenderProject_IssuesGroupedByState(t *testing.T) {
	p := Project{
		ID:       "proj-9",
		Name:     "Billing",
		URL:      "https://linear.app/p/9",
		State:    "started",
		Progress: 0.4,
		Lead:     "Grace",
		Issues: []IssueRef{
			{Identifier: "BIL-2", Title: "Fix rounding", URL: "https://linear.app/i/2", State: "In Progress"},
			{Identifier: "BIL-1", Title: "Invoice export", URL: "https://linear.app/i/1", State: "Done"},
			{Identifier: "BIL-3", Title: "Tax rules", URL: "https://linear.app/i/3", State: "In Progress"},
		},
	}
	text, err := RenderProject("", p)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(text, "progress: 0.4") {
		t.Errorf("progress missing:\n%s", text)
	}
	done := strings.Index(text, "#### Done")
	inProgress := strings.Index(text, "#### In Progress")
	if done < 0 || inProgress < 0 {
		t.Fatalf("state groups missing:\n%s", text)
	}
	if done > inProgress {
		t.Error("states not sorted by name")
	}
	group := text[inProgress:]
	if !strings.Contains(group, "- [[BIL-2]](https://linear.app/i/2) Fix rounding") ||
		!strings.Contains(group, "- [[BIL-3]](https://linear.app/i/3) Tax rules") {
		t.Errorf("issues not under their state group:\n%s", group)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Plain Name":       "Plain Name",
		"a/b path":         "a-b path",
		`Q: why? "quoted"`: "Q why quoted",
		"pipe|star*":       "pipestar",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
