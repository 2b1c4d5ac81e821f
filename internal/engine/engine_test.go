package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/locator"
	"github.com/starford/laguz/internal/storage"
	"github.com/starford/laguz/internal/testutil"
)

// Friday 2026-01-09, 16:00. Cycle window (Wednesday anchor): Jan 7 - Jan 13.
var testNow = time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC)

const weeklyFixture = `# Cycle W02

### Friday -

##### Initiative Updates:
[10:00 AM] [link](https://linear.app/i/1) Platform: kicked off

---
### Saturday -

---
`

const weeklyPath = "10_Cycles/_Weekly-Cycles/(Jan. 07 - Jan. 13, 2026).md"
const dailyPath = "05_Daily/20_Daily-Action/DA 2026-01-09.md"

func newTestEngine(t *testing.T, store *storage.FS) *Engine {
	t.Helper()
	return New(store, locator.New(store), testutil.JournalDB(t),
		testutil.FixedClock{T: testNow},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options{RolloverHour: 3, AnchorWeekday: time.Wednesday})
}

func seedVault(t *testing.T) *storage.FS {
	t.Helper()
	store := testutil.Vault(t)
	ctx := context.Background()
	if err := store.Write(ctx, weeklyPath, []byte(weeklyFixture)); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, dailyPath, []byte("---\ndate: 2026-01-09\n---\n")); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestHandleEvent_WeeklyUpdateCreated(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)

	res, err := e.HandleEvent(context.Background(), Event{
		Source:     "linear",
		Kind:       DocWeeklyCycle,
		Section:    document.SectionProjectUpdates,
		EntryKey:   "https://linear.app/p/9",
		ParentName: "Billing",
		Content:    "shipped invoices",
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if res.Action != document.ActionCreated || res.Path != weeklyPath {
		t.Errorf("result = %+v", res)
	}

	data, _ := store.Read(context.Background(), weeklyPath)
	text := string(data)
	if !strings.Contains(text, "[04:00 PM] [link](https://linear.app/p/9) Billing: shipped invoices") {
		t.Errorf("entry not written:\n%s", text)
	}
	// New section placed after Initiative Updates, inside Friday's block.
	if strings.Index(text, "##### Project Updates:") < strings.Index(text, "##### Initiative Updates:") {
		t.Error("section ordering violated")
	}
	if strings.Index(text, "##### Project Updates:") > strings.Index(text, "### Saturday -") {
		t.Error("entry landed outside Friday's block")
	}
}

func TestHandleEvent_WeeklyUpdateInPlace(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	res, err := e.HandleEvent(ctx, Event{
		Source:     "linear",
		Kind:       DocWeeklyCycle,
		Section:    document.SectionInitiativeUpdates,
		EntryKey:   "https://linear.app/i/1",
		ParentName: "Platform",
		Content:    "revised status",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != document.ActionUpdated {
		t.Errorf("action = %v", res.Action)
	}

	data, _ := store.Read(ctx, weeklyPath)
	text := string(data)
	if strings.Contains(text, "kicked off") {
		t.Error("old entry content survived")
	}
	if strings.Count(text, "https://linear.app/i/1") != 1 {
		t.Error("entry duplicated instead of replaced")
	}
	if len(document.Split(text)) != len(document.Split(weeklyFixture)) {
		t.Error("line count changed on update")
	}
}

func TestHandleEvent_Idempotent(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)
	ctx := context.Background()
	ev := Event{
		Source:     "linear",
		Kind:       DocWeeklyCycle,
		Section:    document.SectionProjectUpdates,
		EntryKey:   "https://linear.app/p/9",
		ParentName: "Billing",
		Content:    "shipped invoices",
	}

	if _, err := e.HandleEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	first, _ := store.Read(ctx, weeklyPath)
	res, err := e.HandleEvent(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != document.ActionSkipped {
		t.Errorf("second apply action = %v", res.Action)
	}
	second, _ := store.Read(ctx, weeklyPath)
	if string(first) != string(second) {
		t.Error("document changed on identical re-apply")
	}
}

func TestHandleEvent_WeeklyMissingDayBlock(t *testing.T) {
	store := testutil.Vault(t)
	ctx := context.Background()
	// Note exists but has no Friday heading.
	_ = store.Write(ctx, weeklyPath, []byte("# Cycle W02\n\n### Monday -\n\n---\n"))
	e := newTestEngine(t, store)

	_, err := e.HandleEvent(ctx, Event{
		Source:   "linear",
		Kind:     DocWeeklyCycle,
		Section:  document.SectionProjectUpdates,
		EntryKey: "https://x/1",
		Content:  "text",
	})
	if !errors.Is(err, apperr.ErrDayBlockNotFound) {
		t.Fatalf("err = %v, want ErrDayBlockNotFound", err)
	}
	if !strings.Contains(err.Error(), weeklyPath) || !strings.Contains(err.Error(), "### Friday -") {
		t.Errorf("error lacks repair context: %v", err)
	}
}

func TestHandleEvent_WeeklyMissingNote(t *testing.T) {
	store := testutil.Vault(t)
	_ = store.Write(context.Background(), "10_Cycles/_Weekly-Cycles/other.md", []byte("x"))
	e := newTestEngine(t, store)

	_, err := e.HandleEvent(context.Background(), Event{
		Source: "linear", Kind: DocWeeklyCycle,
		Section: document.SectionProjectUpdates, EntryKey: "https://x/1",
	})
	if !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestHandleEvent_DailyLazilyCreated(t *testing.T) {
	store := testutil.Vault(t)
	ctx := context.Background()
	// Folders exist, today's note does not.
	_ = store.Write(ctx, "05_Daily/20_Daily-Action/DA 2026-01-01.md", []byte("old"))
	e := newTestEngine(t, store)

	res, err := e.HandleEvent(ctx, Event{
		Source:  "todoist",
		Kind:    DocDailyAction,
		Section: document.SectionCompletedTasks,
		Content: "Buy groceries",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != document.ActionCreated || res.Path != dailyPath {
		t.Errorf("result = %+v", res)
	}
	data, err := store.Read(ctx, dailyPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "date: 2026-01-09") {
		t.Errorf("template not applied:\n%s", text)
	}
	if !strings.Contains(text, "### Completed Tasks on Todoist:\n[04:00 PM] Buy groceries") {
		t.Errorf("section or entry missing:\n%s", text)
	}
}

func TestHandleEvent_KeylessDuplicateSkipped(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)
	ctx := context.Background()
	ev := Event{
		Source:  "todoist",
		Kind:    DocDailyAction,
		Section: document.SectionCompletedTasks,
		Content: "Buy groceries",
	}

	if _, err := e.HandleEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	res, err := e.HandleEvent(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != document.ActionSkipped {
		t.Errorf("action = %v, want skipped", res.Action)
	}
	data, _ := store.Read(ctx, dailyPath)
	if strings.Count(string(data), "Buy groceries") != 1 {
		t.Errorf("task duplicated:\n%s", data)
	}
}

func TestHandleEvent_RolloverRoutesToPreviousDay(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	// Saturday 02:30 is effectively Friday.
	res, err := e.HandleEvent(ctx, Event{
		Source:    "todoist",
		Timestamp: time.Date(2026, 1, 10, 2, 30, 0, 0, time.UTC),
		Kind:      DocDailyAction,
		Section:   document.SectionCompletedTasks,
		Content:   "Late night fix",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != dailyPath {
		t.Errorf("path = %q, want Friday's note", res.Path)
	}
	data, _ := store.Read(ctx, dailyPath)
	if !strings.Contains(string(data), "[02:30 AM] Late night fix") {
		t.Errorf("entry missing:\n%s", data)
	}
}

func TestHandleEvent_ConcurrentWritesSamePath(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.HandleEvent(ctx, Event{
				Source:   "github",
				Kind:     DocDailyAction,
				Section:  document.SectionActivityLog,
				EntryKey: fmt.Sprintf("https://github.com/starford/laguz/commit/%03d", i),
				Content:  fmt.Sprintf("commit %d", i),
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}

	data, _ := store.Read(ctx, dailyPath)
	text := string(data)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("https://github.com/starford/laguz/commit/%03d", i)
		if c := strings.Count(text, key); c != 1 {
			t.Errorf("entry %s appears %d times, want 1", key, c)
		}
	}
}

func TestHandleEvent_JournalRecordsResult(t *testing.T) {
	store := seedVault(t)
	db := testutil.JournalDB(t)
	e := New(store, locator.New(store), db, testutil.FixedClock{T: testNow},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options{RolloverHour: 3, AnchorWeekday: time.Wednesday})
	ctx := context.Background()

	if _, err := e.HandleEvent(ctx, Event{
		Source: "todoist", Kind: DocDailyAction,
		Section: document.SectionCompletedTasks, Content: "Buy groceries",
	}); err != nil {
		t.Fatal(err)
	}
	recent, err := db.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Day != "2026-01-09" || recent[0].Action != "created" {
		t.Errorf("journal record = %+v", recent)
	}
}

func TestMirrorUpdate_WritesBothLegsIndependently(t *testing.T) {
	store := testutil.Vault(t)
	ctx := context.Background()
	// Only the weekly note exists; the daily folders are missing, so the
	// daily leg fails while the weekly leg succeeds.
	_ = store.Write(ctx, weeklyPath, []byte(weeklyFixture))
	e := newTestEngine(t, store)

	res := e.MirrorUpdate(ctx, "linear", document.SectionProjectUpdates,
		time.Time{}, "https://linear.app/p/9", "Billing", "shipped")
	if res.DailyErr == nil {
		t.Error("daily leg should fail without daily folders")
	}
	if res.WeeklyErr != nil {
		t.Errorf("weekly leg failed: %v", res.WeeklyErr)
	}
	if !res.Ok() {
		t.Error("Ok() should be true with one good leg")
	}
	data, _ := store.Read(ctx, weeklyPath)
	if !strings.Contains(string(data), "https://linear.app/p/9") {
		t.Error("weekly entry missing")
	}
}

func TestMirrorTask_WritesBoth(t *testing.T) {
	store := seedVault(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	res := e.MirrorTask(ctx, "todoist", time.Time{}, "Review PRs")
	if res.DailyErr != nil || res.WeeklyErr != nil {
		t.Fatalf("fanout errs: %v / %v", res.DailyErr, res.WeeklyErr)
	}
	daily, _ := store.Read(ctx, dailyPath)
	weekly, _ := store.Read(ctx, weeklyPath)
	if !strings.Contains(string(daily), "[04:00 PM] Review PRs") {
		t.Error("daily entry missing")
	}
	if !strings.Contains(string(weekly), "[04:00 PM] Review PRs") {
		t.Error("weekly entry missing")
	}
}
