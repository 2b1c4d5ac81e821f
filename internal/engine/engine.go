// Package engine applies normalized productivity events to vault documents.
//
// Each event follows a read-modify-write cycle against the document store:
// resolve the effective date, locate the document and section, upsert the
// rendered entry, write the full text back. Operations on the same document
// path are serialized in-process; cross-process writers remain a documented
// gap of the storage backend.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/cycle"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/locator"
	"github.com/starford/laguz/internal/storage"
)

// DocKind selects the target document family for an event.
type DocKind string

const (
	DocDailyAction DocKind = "daily_action"
	DocWeeklyCycle DocKind = "weekly_cycle"
	DocJournal     DocKind = "journal"
)

// Event is a normalized inbound event, already authenticated and
// schema-validated by the webhook layer.
type Event struct {
	Source     string // originating system, e.g. "linear", "todoist"
	Timestamp  time.Time
	Kind       DocKind
	Section    document.SectionKey
	EntryKey   string // stable key (source URL); empty for keyless appends
	ParentName string
	Content    string
}

// UpsertResult reports what an event did to the vault.
type UpsertResult struct {
	Action  document.Action `json:"action"`
	Path    string          `json:"path"`
	Section string          `json:"section"`
}

// DefaultDailyTemplate seeds a lazily created daily note. The {{date}}
// placeholder is replaced with the effective date.
const DefaultDailyTemplate = "---\ndate: {{date}}\n---\n"

// Options tunes the engine's calendar behavior.
type Options struct {
	RolloverHour  int          // hours before this count as the previous day
	AnchorWeekday time.Weekday // first day of the weekly cycle
	DailyTemplate string       // template for lazily created daily notes
}

// Engine coordinates locator, store, and journal for event handling.
type Engine struct {
	store  storage.Provider
	loc    *locator.Locator
	db     *journal.DB
	clock  cycle.Clock
	logger *slog.Logger
	opts   Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Engine. db may be nil when no journal is configured.
func New(store storage.Provider, loc *locator.Locator, db *journal.DB, clock cycle.Clock, logger *slog.Logger, opts Options) *Engine {
	if opts.RolloverHour == 0 {
		opts.RolloverHour = cycle.DefaultRolloverHour
	}
	if opts.DailyTemplate == "" {
		opts.DailyTemplate = DefaultDailyTemplate
	}
	return &Engine{
		store:  store,
		loc:    loc,
		db:     db,
		clock:  clock,
		logger: logger,
		opts:   opts,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing writes to one document path.
func (e *Engine) lockFor(path string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[path]
	if !ok {
		l = &sync.Mutex{}
		e.locks[path] = l
	}
	return l
}

// HandleEvent applies one event to its target document and returns what
// happened. All failures are typed (apperr) and returned, never swallowed.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) (UpsertResult, error) {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = e.clock.Now()
	}
	eff := cycle.EffectiveDate(ts, e.opts.RolloverHour)

	path, headings, err := e.resolve(ctx, ev.Kind, ts, eff)
	if err != nil {
		return UpsertResult{}, err
	}
	heading := headings[ev.Section]
	if heading == "" {
		return UpsertResult{}, fmt.Errorf("engine: section %q not available in %s documents", ev.Section, ev.Kind)
	}

	lock := e.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	text, err := e.readOrCreate(ctx, ev.Kind, path, eff)
	if err != nil {
		return UpsertResult{}, err
	}

	lines := document.Split(text)
	block, err := e.block(lines, ev.Kind, ts)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("%w (path %s)", err, path)
	}

	lines, span, _ := document.EnsureSection(lines, block, ev.Section, headings)

	var action document.Action
	if ev.EntryKey != "" {
		rendered := RenderLinked(ts, ev.EntryKey, ev.ParentName, ev.Content)
		var extra int
		lines, action, extra = document.UpsertEntry(lines, span, ev.EntryKey, rendered)
		if extra > 0 {
			e.logger.Warn("duplicate entry key in section",
				slog.String("path", path),
				slog.String("key", ev.EntryKey),
				slog.Int("extra_matches", extra))
		}
	} else if hasPlainEntry(lines, span, ev.Content) {
		// Keyless entries cannot be upserted; an identical task already
		// logged for this section is a duplicate delivery.
		action = document.ActionSkipped
	} else {
		lines = document.AppendEntry(lines, span, RenderPlain(ts, ev.Content))
		action = document.ActionCreated
	}

	result := UpsertResult{Action: action, Path: path, Section: string(ev.Section)}
	if action == document.ActionSkipped {
		return result, nil
	}

	if err := e.store.Write(ctx, path, []byte(lines.Join())); err != nil {
		return UpsertResult{}, err
	}
	e.record(ctx, ev, result, eff)
	return result, nil
}

// resolve maps the event kind to a document path and heading table.
func (e *Engine) resolve(ctx context.Context, kind DocKind, ts, eff time.Time) (string, map[document.SectionKey]string, error) {
	switch kind {
	case DocDailyAction:
		path, err := e.loc.DailyActionPath(ctx, eff)
		return path, document.DailyHeadings, err
	case DocJournal:
		path, err := e.loc.JournalPath(ctx, eff)
		return path, document.DailyHeadings, err
	case DocWeeklyCycle:
		w := cycle.CurrentWindow(ts, e.opts.RolloverHour, e.opts.AnchorWeekday, false)
		path, err := e.loc.WeeklyCyclePath(ctx, w)
		return path, document.WeeklyHeadings, err
	default:
		return "", nil, fmt.Errorf("engine: unknown document kind %q", kind)
	}
}

// readOrCreate fetches the document, lazily seeding daily notes from the
// template. Weekly cycle notes must pre-exist.
func (e *Engine) readOrCreate(ctx context.Context, kind DocKind, path string, eff time.Time) (string, error) {
	data, err := e.store.Read(ctx, path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, apperr.ErrDocumentNotFound) || kind == DocWeeklyCycle {
		return "", err
	}
	e.logger.Info("creating daily note", slog.String("path", path))
	return strings.ReplaceAll(e.opts.DailyTemplate, "{{date}}", eff.Format("2006-01-02")), nil
}

// block selects the writable region: the effective day's block for weekly
// notes, the main content region for daily documents.
func (e *Engine) block(lines document.Lines, kind DocKind, ts time.Time) (document.Span, error) {
	if kind == DocWeeklyCycle {
		return document.DayBlock(lines, cycle.DayName(ts, e.opts.RolloverHour))
	}
	return document.MainBlock(lines), nil
}

// record appends the result to the journal; journal failures are logged,
// not surfaced, since the vault write already succeeded.
func (e *Engine) record(ctx context.Context, ev Event, res UpsertResult, eff time.Time) {
	if e.db == nil {
		return
	}
	err := e.db.Append(ctx, journal.Record{
		Source:   ev.Source,
		Action:   string(res.Action),
		Path:     res.Path,
		Section:  res.Section,
		EntryKey: ev.EntryKey,
		Content:  ev.Content,
		Day:      eff.Format("2006-01-02"),
	})
	if err != nil {
		e.logger.Warn("journal append failed", slog.String("error", err.Error()))
	}
}
