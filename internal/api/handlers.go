package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starford/laguz/internal/cycle"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/engine"
	"github.com/starford/laguz/internal/journal"
)

// Handler holds webhook route handlers.
type Handler struct {
	eng          *engine.Engine
	db           *journal.DB
	clock        cycle.Clock
	rolloverHour int
}

// NewHandler creates a new Handler. db may be nil when no journal is
// configured; the completed-task duplicate check is skipped in that case.
func NewHandler(eng *engine.Engine, db *journal.DB, clock cycle.Clock, rolloverHour int) *Handler {
	if rolloverHour == 0 {
		rolloverHour = cycle.DefaultRolloverHour
	}
	return &Handler{eng: eng, db: db, clock: clock, rolloverHour: rolloverHour}
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBody("healthy"))
}

// Ready handles GET /health/ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBody("healthy"))
}

// TodoistWebhook handles POST /todoist/webhook. Completed tasks are appended
// to both the daily action note and the weekly cycle note. Delivery retries
// are deduplicated against the journal once both fan-out legs hold the task;
// a partial write stays retryable so a redelivery can heal the missing leg.
// Write failures still return 200 so Todoist does not retry.
func (h *Handler) TodoistWebhook(w http.ResponseWriter, r *http.Request) {
	var ev todoistEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if ev.EventName != "item:completed" {
		slog.Info("todoist event ignored", slog.String("event", ev.EventName))
		writeJSON(w, http.StatusOK, statusBody("ignored"))
		return
	}

	content := ev.EventData.Content
	if content == "" {
		content = "(no content)"
	}
	slog.Info("todoist task completed",
		slog.String("task_id", ev.EventData.ID),
		slog.String("content", content))

	if h.db != nil {
		day := cycle.EffectiveDate(h.clock.Now(), h.rolloverHour).Format("2006-01-02")
		seen, err := h.db.SeenTask(r.Context(), "todoist", day, content)
		if err != nil {
			slog.Warn("task dedup check failed", slog.String("error", err.Error()))
		} else if seen {
			writeJSON(w, http.StatusOK, statusBody("duplicate"))
			return
		}
	}

	res := h.eng.MirrorTask(r.Context(), "todoist", time.Time{}, content)
	if !res.Ok() {
		slog.Error("todoist task write failed",
			slog.Any("daily_error", res.DailyErr),
			slog.Any("weekly_error", res.WeeklyErr))
	}
	writeJSON(w, http.StatusOK, statusBody("ok"))
}

// TelegramWebhook handles POST /telegram/webhook. Channel posts are appended
// to the Telegram Logs section of today's journal note. Write failures still
// return 200 so Telegram does not retry.
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var upd telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if upd.ChannelPost == nil {
		writeJSON(w, http.StatusOK, statusBody("ignored"))
		return
	}

	msg := upd.ChannelPost
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		text = "(no text)"
	}
	var ts time.Time
	if msg.Date > 0 {
		ts = time.Unix(msg.Date, 0).In(h.clock.Now().Location())
	}
	slog.Info("telegram channel post",
		slog.String("chat", msg.Chat.Title),
		slog.String("text", truncate(text, 100)))

	_, err := h.eng.HandleEvent(r.Context(), engine.Event{
		Source:    "telegram",
		Timestamp: ts,
		Kind:      engine.DocJournal,
		Section:   document.SectionChatLog,
		Content:   text,
	})
	if err != nil {
		slog.Error("journal write failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, statusBody("ok"))
}

// LinearWebhook handles POST /linear/webhook. Initiative and project updates
// and issue activity are upserted into both the daily action note and the
// weekly cycle note, keyed by their Linear URL.
func (h *Handler) LinearWebhook(w http.ResponseWriter, r *http.Request) {
	var ev linearEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var (
		section document.SectionKey
		keyURL  string
		parent  string
		content string
	)
	switch ev.Type {
	case "InitiativeUpdate":
		section = document.SectionInitiativeUpdates
		keyURL = entryURL(ev)
		parent = refName(ev.Data.Initiative)
		content = ev.Data.Body
	case "ProjectUpdate":
		section = document.SectionProjectUpdates
		keyURL = entryURL(ev)
		parent = refName(ev.Data.Project)
		content = ev.Data.Body
	case "Issue":
		section = document.SectionIssuesTouched
		keyURL = entryURL(ev)
		parent = refName(ev.Data.Project)
		content = strings.TrimSpace(ev.Data.Identifier + " " + ev.Data.Title)
	default:
		slog.Info("linear event ignored", slog.String("type", ev.Type))
		writeJSON(w, http.StatusOK, statusBody("ignored"))
		return
	}
	if keyURL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("event has no url"))
		return
	}

	res := h.eng.MirrorUpdate(r.Context(), "linear", section, time.Time{}, keyURL, parent, content)
	if !res.Ok() {
		slog.Error("linear update write failed",
			slog.String("url", keyURL),
			slog.Any("daily_error", res.DailyErr),
			slog.Any("weekly_error", res.WeeklyErr))
		writeJSON(w, http.StatusInternalServerError, errorBody("write failed"))
		return
	}
	writeJSON(w, http.StatusOK, statusBody("ok"))
}

// GithubWebhook handles POST /github/webhook. Push and pull request events
// are upserted into the GitHub Activity section of the daily action note,
// keyed by commit or pull request URL.
func (h *Handler) GithubWebhook(w http.ResponseWriter, r *http.Request) {
	event := r.Header.Get("X-GitHub-Event")
	var (
		keyURL  string
		parent  string
		content string
	)
	switch event {
	case "push":
		var ev githubPushEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		if ev.HeadCommit == nil {
			writeJSON(w, http.StatusOK, statusBody("ignored"))
			return
		}
		keyURL = ev.HeadCommit.URL
		parent = ev.Repository.Name
		content = firstLine(ev.HeadCommit.Message)
		if n := len(ev.Commits); n > 1 {
			content = content + " (+" + strconv.Itoa(n-1) + " more)"
		}
	case "pull_request":
		var ev githubPullRequestEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		if ev.Action != "opened" && ev.Action != "closed" {
			writeJSON(w, http.StatusOK, statusBody("ignored"))
			return
		}
		keyURL = ev.PullRequest.HTMLURL
		parent = ev.Repository.Name
		verb := "PR opened"
		if ev.Action == "closed" {
			verb = "PR closed"
			if ev.PullRequest.Merged {
				verb = "PR merged"
			}
		}
		content = verb + ": " + ev.PullRequest.Title
	default:
		slog.Info("github event ignored", slog.String("event", event))
		writeJSON(w, http.StatusOK, statusBody("ignored"))
		return
	}

	_, err := h.eng.HandleEvent(r.Context(), engine.Event{
		Source:     "github",
		Kind:       engine.DocDailyAction,
		Section:    document.SectionActivityLog,
		EntryKey:   keyURL,
		ParentName: parent,
		Content:    content,
	})
	if err != nil {
		slog.Error("github activity write failed",
			slog.String("url", keyURL), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("write failed"))
		return
	}
	writeJSON(w, http.StatusOK, statusBody("ok"))
}

// Recent handles GET /journal/recent, the audit listing of processed events.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, map[string]any{"records": []journal.Record{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.db.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("recent records failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// entryURL prefers the entity's own URL over the envelope URL.
func entryURL(ev linearEvent) string {
	if ev.Data.URL != "" {
		return ev.Data.URL
	}
	return ev.URL
}

func refName(ref *linearRef) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
