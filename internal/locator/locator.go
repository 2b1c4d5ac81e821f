// Package locator resolves logical document kinds to vault paths.
//
// The vault layout is a user convention, not something this system owns:
// top-level folders are matched by name suffix (users freely prefix them
// with sort keys like "10_"), weekly note files are matched by the date
// range embedded anywhere in the file name.
package locator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/cycle"
	"github.com/starford/laguz/internal/storage"
)

// Folder suffix conventions in the vault.
const (
	dailySuffix       = "_Daily"
	dailyActionSuffix = "_Daily-Action"
	cyclesSuffix      = "_Cycles"
	weeklyCyclesName  = "_Weekly-Cycles"
	journalName       = "_Journal"
)

// Locator finds documents in the vault through a storage.Provider.
type Locator struct {
	store storage.Provider
}

// New creates a Locator.
func New(store storage.Provider) *Locator {
	return &Locator{store: store}
}

// findFolder returns the path of the first folder under parent whose name
// ends with suffix.
func (l *Locator) findFolder(ctx context.Context, parent, suffix string) (string, error) {
	entries, err := l.store.List(ctx, parent)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsFolder && strings.HasSuffix(e.Name, suffix) {
			return joinPath(parent, e.Name), nil
		}
	}
	return "", fmt.Errorf("locator: %w: no folder ending %q under %q",
		apperr.ErrFolderNotFound, suffix, parent)
}

// DailyActionPath returns the expected path of the daily action note for
// the given (already effective) date: "DA 2026-01-13.md" inside the
// daily-action folder. The document itself may not exist yet; daily notes
// are created lazily by the caller.
func (l *Locator) DailyActionPath(ctx context.Context, date time.Time) (string, error) {
	daily, err := l.findFolder(ctx, "", dailySuffix)
	if err != nil {
		return "", err
	}
	action, err := l.findFolder(ctx, daily, dailyActionSuffix)
	if err != nil {
		return "", err
	}
	return joinPath(action, "DA "+date.Format("2006-01-02")+".md"), nil
}

// JournalPath returns the expected path of the journal note for the given
// date: "Jan 2, 2026.md" (day not zero-padded) inside the journal folder.
func (l *Locator) JournalPath(ctx context.Context, date time.Time) (string, error) {
	daily, err := l.findFolder(ctx, "", dailySuffix)
	if err != nil {
		return "", err
	}
	return joinPath(daily, journalName, date.Format("Jan 2, 2006")+".md"), nil
}

// WeeklyCyclePath finds the weekly cycle note whose file name embeds the
// window's formatted date range. Weekly notes must pre-exist; the locator
// never creates them.
func (l *Locator) WeeklyCyclePath(ctx context.Context, w cycle.Window) (string, error) {
	cycles, err := l.findFolder(ctx, "", cyclesSuffix)
	if err != nil {
		return "", err
	}
	weekly := joinPath(cycles, weeklyCyclesName)
	entries, err := l.store.List(ctx, weekly)
	if err != nil {
		return "", err
	}
	token := cycle.FormatRange(w)
	for _, e := range entries {
		if !e.IsFolder && strings.Contains(e.Name, token) {
			return joinPath(weekly, e.Name), nil
		}
	}
	return "", fmt.Errorf("locator: %w: no weekly cycle note matching %q in %q",
		apperr.ErrDocumentNotFound, token, weekly)
}

func joinPath(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
