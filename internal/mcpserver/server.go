// Package mcpserver exposes the engine as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/control"
	"github.com/jwulff/chime/internal/engine"
)

// Server binds MCP tools to an engine.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New registers every tool on a fresh MCP server.
func New(e *engine.Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: e,
		mcp:    server.NewMCPServer("chime", version, server.WithToolCapabilities(false)),
		logger: logger,
	}

	s.mcp.AddTool(mcp.NewTool("set_alarm",
		mcp.WithDescription("Arm the alarm for the next occurrence of HH:MM. The alarm plays a recorded message, so a sound file is required."),
		mcp.WithString("time", mcp.Required(), mcp.Description("Time of day, HH:MM (24h)")),
		mcp.WithString("sound", mcp.Required(), mcp.Description("Path to the audio file to play")),
	), s.setAlarm)

	s.mcp.AddTool(mcp.NewTool("cancel_alarm",
		mcp.WithDescription("Disarm the alarm"),
	), s.cancelAlarm)

	s.mcp.AddTool(mcp.NewTool("start_timer",
		mcp.WithDescription("Start the countdown timer. Without a sound file the default chime plays."),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("Target duration in seconds")),
		mcp.WithString("sound", mcp.Description("Optional path to an audio file")),
	), s.startTimer)

	s.mcp.AddTool(mcp.NewTool("pause_timer", mcp.WithDescription("Pause the running timer")), s.pauseTimer)
	s.mcp.AddTool(mcp.NewTool("resume_timer", mcp.WithDescription("Resume the paused timer")), s.resumeTimer)
	s.mcp.AddTool(mcp.NewTool("reset_timer", mcp.WithDescription("Stop and zero the timer")), s.resetTimer)

	s.mcp.AddTool(mcp.NewTool("add_reminder",
		mcp.WithDescription("Add a voice reminder that plays once at HH:MM on a date"),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date, YYYY-MM-DD")),
		mcp.WithString("time", mcp.Required(), mcp.Description("Time of day, HH:MM (24h)")),
		mcp.WithString("sound", mcp.Required(), mcp.Description("Path to the recorded message")),
		mcp.WithString("note", mcp.Description("Optional note")),
	), s.addReminder)

	s.mcp.AddTool(mcp.NewTool("list_reminders",
		mcp.WithDescription("List reminders for a date, in the order they were added"),
		mcp.WithString("date", mcp.Description("Date, YYYY-MM-DD. Defaults to today.")),
	), s.listReminders)

	s.mcp.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Show the alarm, timer and reminder state"),
	), s.status)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) setAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hhmm, err := req.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	asset, res := s.loadSound(req, true)
	if res != nil {
		return res, nil
	}
	if err := s.engine.SetAlarm(ctx, hhmm, asset); err != nil {
		return s.fail("set alarm", err), nil
	}
	return mcp.NewToolResultText("Alarm set for " + hhmm), nil
}

func (s *Server) cancelAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.CancelAlarm(ctx); err != nil {
		return s.fail("cancel alarm", err), nil
	}
	return mcp.NewToolResultText("Alarm cancelled"), nil
}

func (s *Server) startTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds, err := req.RequireFloat("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := engine.TimerTarget(seconds)
	if err != nil {
		return s.fail("start timer", err), nil
	}
	asset, res := s.loadSound(req, false)
	if res != nil {
		return res, nil
	}
	if err := s.engine.StartTimer(ctx, target, asset); err != nil {
		return s.fail("start timer", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Timer started for %s", target)), nil
}

func (s *Server) pauseTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.PauseTimer(ctx); err != nil {
		return s.fail("pause timer", err), nil
	}
	return mcp.NewToolResultText("Timer paused"), nil
}

func (s *Server) resumeTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.ResumeTimer(ctx); err != nil {
		return s.fail("resume timer", err), nil
	}
	return mcp.NewToolResultText("Timer resumed"), nil
}

func (s *Server) resetTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.ResetTimer(ctx); err != nil {
		return s.fail("reset timer", err), nil
	}
	return mcp.NewToolResultText("Timer reset"), nil
}

func (s *Server) addReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateStr, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := clock.ParseDate(dateStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hhmm, err := req.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	asset, res := s.loadSound(req, true)
	if res != nil {
		return res, nil
	}

	r, err := s.engine.AddReminder(ctx, date, hhmm, req.GetString("note", ""), asset)
	if err != nil {
		return s.fail("add reminder", err), nil
	}
	return jsonResult(control.FromReminder(r, true))
}

func (s *Server) listReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := clock.DateOf(time.Now())
	if v := req.GetString("date", ""); v != "" {
		d, err := clock.ParseDate(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		date = d
	}

	entries, err := s.engine.Reminders(ctx, date)
	if err != nil {
		return s.fail("list reminders", err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No reminders on " + date.String()), nil
	}
	infos := make([]control.ReminderInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, control.FromReminder(e.Reminder, e.Pending))
	}
	return jsonResult(infos)
}

func (s *Server) status(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.engine.Status(ctx)
	if err != nil {
		return s.fail("status", err), nil
	}
	return jsonResult(control.FromStatus(st))
}

func (s *Server) loadSound(req mcp.CallToolRequest, required bool) (*audio.Asset, *mcp.CallToolResult) {
	path := req.GetString("sound", "")
	if path == "" {
		if required {
			return nil, mcp.NewToolResultError("sound is required")
		}
		return nil, nil
	}
	asset, err := audio.LoadFile(path)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return asset, nil
}

func (s *Server) fail(op string, err error) *mcp.CallToolResult {
	s.logger.Info("tool failed", "op", op, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
