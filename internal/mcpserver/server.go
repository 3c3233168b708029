// Package mcpserver exposes alarm inspection and snoozing as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/storage"
)

type Server struct {
	mcp      *server.MCPServer
	alarms   *alarm.Service
	restorer *alarm.Restorer
	items    alarm.ItemGetter
	now      func() time.Time
}

func New(alarms *alarm.Service, restorer *alarm.Restorer, items alarm.ItemGetter, version string) *Server {
	s := &Server{alarms: alarms, restorer: restorer, items: items, now: alarms.Now}

	s.mcp = server.NewMCPServer(
		"remindd",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pending_alarms",
		mcp.WithDescription("List every armed alarm ordered by trigger time."),
	), s.listPendingAlarms)

	s.mcp.AddTool(mcp.NewTool("preview_item",
		mcp.WithDescription("Show the next occurrences and the RRULE of a stored reminder."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithNumber("count", mcp.Description("Number of occurrences (default 5)")),
	), s.previewItem)

	s.mcp.AddTool(mcp.NewTool("snooze_reminder",
		mcp.WithDescription("Show a reminder again after the given number of minutes. "+
			"Allowed durations: 10, 20, 30, 60, 180 and 1440 (not for daily reminders)."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithNumber("minutes", mcp.Required(), mcp.Description("Snooze duration in minutes")),
		mcp.WithString("title", mcp.Description("Alert title; defaults to the stored item title")),
		mcp.WithString("content", mcp.Description("Alert text; defaults to the stored item content")),
		mcp.WithBoolean("daily", mcp.Description("Whether the reminder is a daily one")),
	), s.snoozeReminder)

	s.mcp.AddTool(mcp.NewTool("resync",
		mcp.WithDescription("Rebuild all alarms from the reminder database."),
	), s.resync)

	return s
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPendingAlarms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.alarms.Pending())
}

func (s *Server) previewItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := req.GetInt("count", alarm.DefaultPreviewCount)
	p, err := alarm.PreviewItem(ctx, s.items, int64(id), s.now(), count)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("item %d not found", int64(id))), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) snoozeReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minutes, err := req.RequireFloat("minutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snooze := alarm.SnoozeRequest{
		ItemID:  int64(id),
		Minutes: int(minutes),
		Title:   req.GetString("title", ""),
		Content: req.GetString("content", ""),
		Daily:   req.GetBool("daily", false),
	}
	if snooze.Title == "" {
		item, err := s.items.GetItem(ctx, snooze.ItemID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("item %d: %v", snooze.ItemID, err)), nil
		}
		snooze.Title, snooze.Content = item.Text()
		snooze.Sound = item.Sound
	}
	at, err := s.alarms.Snooze(snooze)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("snoozed item %d until %s", snooze.ItemID, at.Format(time.RFC3339))), nil
}

func (s *Server) resync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.restorer.Resync(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
