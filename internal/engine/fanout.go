package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/laguz/internal/document"
)

// FanoutResult carries the independent daily-action and weekly-cycle legs
// of a mirrored write. One leg failing does not affect the other.
type FanoutResult struct {
	Daily     *UpsertResult
	DailyErr  error
	Weekly    *UpsertResult
	WeeklyErr error
}

// Ok reports whether at least one leg succeeded.
func (r FanoutResult) Ok() bool {
	return r.DailyErr == nil || r.WeeklyErr == nil
}

// MirrorUpdate upserts a keyed tracker update into both the daily action
// note and the current weekly cycle note.
func (e *Engine) MirrorUpdate(ctx context.Context, source string, section document.SectionKey, ts time.Time, keyURL, parent, content string) FanoutResult {
	base := Event{
		Source:     source,
		Timestamp:  ts,
		Section:    section,
		EntryKey:   keyURL,
		ParentName: parent,
		Content:    content,
	}
	return e.fanout(ctx, base)
}

// MirrorTask appends a keyless completed task into both the daily action
// note and the current weekly cycle note.
func (e *Engine) MirrorTask(ctx context.Context, source string, ts time.Time, content string) FanoutResult {
	base := Event{
		Source:    source,
		Timestamp: ts,
		Section:   document.SectionCompletedTasks,
		Content:   content,
	}
	return e.fanout(ctx, base)
}

func (e *Engine) fanout(ctx context.Context, base Event) FanoutResult {
	var out FanoutResult

	daily := base
	daily.Kind = DocDailyAction
	if res, err := e.HandleEvent(ctx, daily); err != nil {
		out.DailyErr = err
		e.logger.Error("daily action write failed", slog.String("error", err.Error()))
	} else {
		out.Daily = &res
		e.logger.Info("written to daily action", slog.String("action", string(res.Action)))
	}

	weekly := base
	weekly.Kind = DocWeeklyCycle
	if res, err := e.HandleEvent(ctx, weekly); err != nil {
		out.WeeklyErr = err
		e.logger.Error("weekly cycle write failed", slog.String("error", err.Error()))
	} else {
		out.Weekly = &res
		e.logger.Info("written to weekly cycle", slog.String("action", string(res.Action)))
	}

	return out
}
