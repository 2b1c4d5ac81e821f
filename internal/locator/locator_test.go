package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/cycle"
	"github.com/starford/laguz/internal/storage"
)

func seededVault(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	seed := map[string]string{
		"05_Daily/20_Daily-Action/DA 2026-01-08.md":                     "daily",
		"05_Daily/_Journal/Jan 8, 2026.md":                              "journal",
		"10_Cycles/_Weekly-Cycles/W02 (Jan. 07 - Jan. 13, 2026) v2.md":  "weekly",
		"10_Cycles/_Weekly-Cycles/W01 (Dec. 31 - Jan. 06, 2026).md":     "weekly",
	}
	for p, c := range seed {
		if err := fs.Write(ctx, p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestDailyActionPath(t *testing.T) {
	l := New(seededVault(t))
	date := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	got, err := l.DailyActionPath(context.Background(), date)
	if err != nil {
		t.Fatalf("DailyActionPath: %v", err)
	}
	if got != "05_Daily/20_Daily-Action/DA 2026-01-09.md" {
		t.Errorf("path = %q", got)
	}
}

func TestJournalPath_DayNotZeroPadded(t *testing.T) {
	l := New(seededVault(t))
	date := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	got, err := l.JournalPath(context.Background(), date)
	if err != nil {
		t.Fatalf("JournalPath: %v", err)
	}
	if got != "05_Daily/_Journal/Jan 8, 2026.md" {
		t.Errorf("path = %q", got)
	}
}

func TestWeeklyCyclePath_MatchesRangeAnywhereInName(t *testing.T) {
	l := New(seededVault(t))
	w := cycle.Window{
		Start: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC),
	}
	got, err := l.WeeklyCyclePath(context.Background(), w)
	if err != nil {
		t.Fatalf("WeeklyCyclePath: %v", err)
	}
	if got != "10_Cycles/_Weekly-Cycles/W02 (Jan. 07 - Jan. 13, 2026) v2.md" {
		t.Errorf("path = %q", got)
	}
}

func TestWeeklyCyclePath_MissingNote(t *testing.T) {
	l := New(seededVault(t))
	w := cycle.Window{
		Start: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	_, err := l.WeeklyCyclePath(context.Background(), w)
	if !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestMissingSuffixFolder(t *testing.T) {
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = fs.Write(context.Background(), "placeholder/.keep.md", []byte(""))
	l := New(fs)
	_, err = l.DailyActionPath(context.Background(), time.Now())
	if !errors.Is(err, apperr.ErrFolderNotFound) {
		t.Errorf("err = %v, want ErrFolderNotFound", err)
	}
}
