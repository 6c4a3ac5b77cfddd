package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all coaching tools and resources registered.
func New(ds DataSource, windowWeeks int, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCoach adaptive training server. Parse athlete messages, analyze training history, detect the current training phase, and inspect per-exercise movement memory. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, windowWeeks: windowWeeks, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolParseIntent, Handler: h.parseIntent},
		server.ServerTool{Tool: toolAnalyzeHistory, Handler: h.analyzeHistory},
		server.ServerTool{Tool: toolDetectPhase, Handler: h.detectPhase},
		server.ServerTool{Tool: toolGetMovementMemory, Handler: h.getMovementMemory},
		server.ServerTool{Tool: toolGetSessionHistory, Handler: h.getSessionHistory},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resMovementMemory, Handler: h.movementMemory},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds          DataSource
	windowWeeks int
	log         *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"repcoach://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Completed training sessions from the last 14 days with all performed sets"),
	mcp.WithMIMEType("application/json"),
)

var resMovementMemory = mcp.NewResource(
	"repcoach://movement_memory",
	"Movement Memory",
	mcp.WithResourceDescription("Per-exercise rolling performance summaries: last weights, trends, and estimated PRs"),
	mcp.WithMIMEType("application/json"),
)
