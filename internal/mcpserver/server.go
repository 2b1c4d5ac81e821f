// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Laguz vault-writing tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/engine"
	"github.com/starford/laguz/internal/mirror"
	"github.com/starford/laguz/internal/storage"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp   *server.MCPServer
	eng   *engine.Engine
	store storage.Provider
}

// sectionNames maps tool-facing section names to section keys.
var sectionNames = map[string]document.SectionKey{
	"initiative": document.SectionInitiativeUpdates,
	"project":    document.SectionProjectUpdates,
	"issue":      document.SectionIssuesTouched,
	"agent":      document.SectionAgentTasks,
}

// New creates a new MCP server with all Laguz tools registered.
func New(eng *engine.Engine, store storage.Provider) *Server {
	s := &Server{eng: eng, store: store}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("append_log",
		mcp.WithDescription("Append a log line to the Telegram Logs section of today's journal note."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Log line text")),
	), s.appendLog)

	s.mcp.AddTool(mcp.NewTool("append_completed_task",
		mcp.WithDescription("Append a completed task to today's daily action note and the current weekly cycle note."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Task description")),
	), s.appendCompletedTask)

	s.mcp.AddTool(mcp.NewTool("upsert_update",
		mcp.WithDescription("Upsert a tracker update (keyed by its URL) into today's daily action note and the current weekly cycle note. "+
			"Re-calling with the same URL replaces the existing entry in place."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Target section: initiative, project, issue, or agent")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Stable source URL identifying the entry")),
		mcp.WithString("parent", mcp.Description("Name of the initiative/project the update belongs to")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Update body text")),
	), s.upsertUpdate)

	s.mcp.AddTool(mcp.NewTool("sync_initiative_note",
		mcp.WithDescription("Regenerate an initiative note from tracker data, preserving the user-edited region "+
			"between the frontmatter and the first generated heading."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault path of the note")),
		mcp.WithString("initiative", mcp.Required(), mcp.Description("Initiative data as JSON")),
	), s.syncInitiativeNote)

	s.mcp.AddTool(mcp.NewTool("sync_project_note",
		mcp.WithDescription("Regenerate a project note from tracker data, preserving the user-edited region "+
			"between the frontmatter and the first generated heading."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault path of the note")),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project data as JSON")),
	), s.syncProjectNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) appendLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.eng.HandleEvent(ctx, engine.Event{
		Source:  "mcp",
		Kind:    engine.DocJournal,
		Section: document.SectionChatLog,
		Content: text,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", res.Action, res.Path)), nil
}

func (s *Server) appendCompletedTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.eng.MirrorTask(ctx, "mcp", time.Time{}, content)
	if !res.Ok() {
		return mcp.NewToolResultError(fmt.Sprintf("daily: %v; weekly: %v", res.DailyErr, res.WeeklyErr)), nil
	}
	out, _ := json.Marshal(fanoutSummary(res))
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) upsertUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionName, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	section, ok := sectionNames[sectionName]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown section %q (want initiative, project, issue, or agent)", sectionName)), nil
	}
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parent := ""
	if p, err := req.RequireString("parent"); err == nil {
		parent = p
	}

	res := s.eng.MirrorUpdate(ctx, "mcp", section, time.Time{}, url, parent, content)
	if !res.Ok() {
		return mcp.NewToolResultError(fmt.Sprintf("daily: %v; weekly: %v", res.DailyErr, res.WeeklyErr)), nil
	}
	out, _ := json.Marshal(fanoutSummary(res))
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncInitiativeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("initiative")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var i mirror.Initiative
	if err := json.Unmarshal([]byte(raw), &i); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid initiative JSON: %v", err)), nil
	}
	return s.syncNote(ctx, path, func(existing string) (string, error) {
		return mirror.RenderInitiative(existing, i)
	})
}

func (s *Server) syncProjectNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var p mirror.Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project JSON: %v", err)), nil
	}
	return s.syncNote(ctx, path, func(existing string) (string, error) {
		return mirror.RenderProject(existing, p)
	})
}

// syncNote reads the existing note (absent is fine), regenerates it, and
// writes the result back.
func (s *Server) syncNote(ctx context.Context, path string, render func(existing string) (string, error)) (*mcp.CallToolResult, error) {
	existing := ""
	data, err := s.store.Read(ctx, path)
	switch {
	case err == nil:
		existing = string(data)
	case !errors.Is(err, apperr.ErrDocumentNotFound):
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := render(existing)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Write(ctx, path, []byte(out)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("synced: %s", path)), nil
}

// fanoutSummary flattens a FanoutResult for tool output.
func fanoutSummary(res engine.FanoutResult) map[string]any {
	out := make(map[string]any)
	if res.Daily != nil {
		out["daily"] = res.Daily
	} else if res.DailyErr != nil {
		out["daily_error"] = res.DailyErr.Error()
	}
	if res.Weekly != nil {
		out["weekly"] = res.Weekly
	} else if res.WeeklyErr != nil {
		out["weekly_error"] = res.WeeklyErr.Error()
	}
	return out
}
