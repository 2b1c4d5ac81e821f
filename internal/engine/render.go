package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/starford/laguz/internal/document"
)

// entryPattern matches a rendered log entry line and captures its body.
var entryPattern = regexp.MustCompile(`^\[\d{2}:\d{2}\s*(?:AM|PM)?\]\s*(.+)$`)

func renderClock(t time.Time) string {
	return t.Format("03:04 PM")
}

// RenderLinked renders a keyed entry line:
// "[04:00 PM] [link](https://...) Parent: content".
func RenderLinked(t time.Time, keyURL, parent, content string) string {
	return fmt.Sprintf("[%s] [link](%s) %s: %s",
		renderClock(t), keyURL, parent, strings.TrimSpace(content))
}

// RenderPlain renders a keyless entry line: "[02:30 PM] content".
func RenderPlain(t time.Time, content string) string {
	return fmt.Sprintf("[%s] %s", renderClock(t), strings.TrimSpace(content))
}

// hasPlainEntry reports whether the span already logs a keyless entry with
// the same body, ignoring the timestamp prefix.
func hasPlainEntry(lines document.Lines, span document.Span, content string) bool {
	want := strings.TrimSpace(content)
	for i := span.Start; i < span.End; i++ {
		if m := entryPattern.FindStringSubmatch(lines[i]); m != nil && strings.TrimSpace(m[1]) == want {
			return true
		}
	}
	return false
}
