package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/repcoach/internal/coach/history"
	"github.com/meltforce/repcoach/internal/coach/intent"
	"github.com/meltforce/repcoach/internal/coach/phase"
	"github.com/meltforce/repcoach/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolParseIntent = mcp.NewTool("parse_intent",
	mcp.WithDescription("Classify a free-text athlete message into a structured intent: workout log, cardio log, session modification, exercise add/skip, or chat. Returns the intent type, confidence, and extracted payload."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The athlete's message, e.g. '3x10 curls with 30lbs' or 'my knee hurts'")),
)

var toolAnalyzeHistory = mcp.NewTool("analyze_history",
	mcp.WithDescription("Analyze recent training history: total and per-muscle-group volume, training frequency, detected split, progression buckets, gaps, behavioral patterns, and a data quality grade."),
	mcp.WithNumber("weeks", mcp.Description("Analysis window in weeks. Defaults to the configured window.")),
)

var toolDetectPhase = mcp.NewTool("detect_phase",
	mcp.WithDescription("Detect the athlete's position in the macro training cycle (rebuilding, accumulating, intensifying, deloading, maintaining) with confidence, reasoning, and a suggested duration."),
	mcp.WithNumber("weeks", mcp.Description("Analysis window in weeks. Defaults to the configured window.")),
	mcp.WithString("current", mcp.Description("The phase the athlete is currently assigned, if any."), mcp.Enum("rebuilding", "accumulating", "intensifying", "deloading", "maintaining")),
	mcp.WithNumber("weeks_in_phase", mcp.Description("How many weeks the athlete has spent in the current phase.")),
)

var toolGetMovementMemory = mcp.NewTool("get_movement_memory",
	mcp.WithDescription("Per-exercise rolling performance summaries: last weight/reps/sets, average RPE, estimated one-rep max, trend, and confidence."),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("Completed training sessions with all performed sets, including weight, reps, and RPE."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("The exercise catalog: names, modalities, primary metrics, and muscle groups."),
)

// --- Tool handlers ---

func (h *handlers) parseIntent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	result, err := mcp.NewToolResultJSON(intent.Parse(text))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// analysisWindow loads everything the analyzer consumes for the given window.
func (h *handlers) analysisWindow(ctx context.Context, req mcp.CallToolRequest) (history.Analysis, []models.Disruption, error) {
	weeks := req.GetInt("weeks", h.windowWeeks)
	if weeks < 1 {
		weeks = h.windowWeeks
	}
	now := time.Now()
	start := now.AddDate(0, 0, -weeks*7)
	uid := UserIDFromContext(ctx)

	sessions, err := h.ds.QueryCompletedSessions(ctx, uid, start, now)
	if err != nil {
		return history.Analysis{}, nil, err
	}
	memory, err := h.ds.GetMovementMemory(ctx, uid)
	if err != nil {
		return history.Analysis{}, nil, err
	}
	disruptions, err := h.ds.QueryDisruptions(ctx, uid, start, now)
	if err != nil {
		return history.Analysis{}, nil, err
	}

	return history.Analyze(sessions, memory, disruptions, weeks, now), disruptions, nil
}

func (h *handlers) analyzeHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysis, _, err := h.analysisWindow(ctx, req)
	if err != nil {
		h.log.Error("mcp analyze_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(analysis)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) detectPhase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysis, disruptions, err := h.analysisWindow(ctx, req)
	if err != nil {
		h.log.Error("mcp detect_phase", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	current := models.Phase(req.GetString("current", ""))
	weeksInPhase := req.GetInt("weeks_in_phase", 0)

	detection := phase.Detect(analysis, disruptions, current, weeksInPhase, time.Now())

	result, err := mcp.NewToolResultJSON(detection)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getMovementMemory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	memory, err := h.ds.GetMovementMemory(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_movement_memory", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(memory)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	sessions, err := h.ds.QueryCompletedSessions(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
