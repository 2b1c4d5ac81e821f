package engine

import (
	"testing"
	"time"

	"github.com/starford/laguz/internal/document"
)

func TestRenderLinked(t *testing.T) {
	ts := time.Date(2026, 1, 9, 14, 5, 0, 0, time.UTC)
	got := RenderLinked(ts, "https://linear.app/p/9", "Billing", "  shipped invoices ")
	want := "[02:05 PM] [link](https://linear.app/p/9) Billing: shipped invoices"
	if got != want {
		t.Errorf("RenderLinked = %q, want %q", got, want)
	}
}

func TestRenderPlain(t *testing.T) {
	ts := time.Date(2026, 1, 10, 2, 30, 0, 0, time.UTC)
	if got := RenderPlain(ts, "Late night fix"); got != "[02:30 AM] Late night fix" {
		t.Errorf("RenderPlain = %q", got)
	}
}

func TestHasPlainEntry_IgnoresTimestamp(t *testing.T) {
	lines := document.Lines{
		"### Completed Tasks on Todoist:",
		"[09:12 AM] Buy groceries",
		"[11:40 AM] Water plants",
		"",
	}
	span := document.Span{Start: 1, End: 4}

	if !hasPlainEntry(lines, span, "Buy groceries") {
		t.Error("same content with different timestamp should match")
	}
	if hasPlainEntry(lines, span, "Buy milk") {
		t.Error("different content should not match")
	}
	if hasPlainEntry(lines, span, "Completed Tasks on Todoist:") {
		t.Error("heading line should not match as entry")
	}
}
