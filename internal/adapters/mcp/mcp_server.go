// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// Version is reported to MCP clients.
var Version = "dev"

// Server implements the MCP server using mark3labs/mcp-go. Every tool drives
// the same session the terminal renderer would.
type Server struct {
	server  *server.MCPServer
	session ports.Session
	search  func(query string) []domain.Track
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServer creates a new MCP server instance. search filters list_tracks;
// nil lists the whole catalog.
func NewServer(session ports.Session, search func(query string) []domain.Track, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		session: session,
		search:  search,
		logger:  logger.Named("mcp"),
	}

	s.server = server.NewMCPServer(
		"zenpath",
		Version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_session_state",
			mcp.WithDescription("Get the current view, playback position, countdown and selected timer duration"),
		),
		s.handleGetSessionState,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_tracks",
			mcp.WithDescription("List the guided audio tracks in catalog order"),
			mcp.WithString(
				"query",
				mcp.Description("Optional fuzzy filter over id, title and subtitle"),
			),
		),
		s.handleListTracks,
	)

	s.server.AddTool(
		mcp.NewTool(
			"select_track",
			mcp.WithDescription("Open the player for a track and start playback. Unknown ids select the first track"),
			mcp.WithString(
				"track_id",
				mcp.Required(),
				mcp.Description("The ID of the track to play"),
			),
			mcp.WithBoolean(
				"play",
				mcp.Description("Start playback after opening the player (default true)"),
			),
		),
		s.handleSelectTrack,
	)

	s.server.AddTool(
		mcp.NewTool(
			"open_timer",
			mcp.WithDescription("Open the sharing timer, paused at the selected duration"),
		),
		s.commandHandler(ports.CmdOpenTimer),
	)

	s.server.AddTool(
		mcp.NewTool(
			"go_home",
			mcp.WithDescription("Return to the home screen, pausing playback and the timer"),
		),
		s.commandHandler(ports.CmdBack),
	)

	s.server.AddTool(
		mcp.NewTool(
			"toggle_play",
			mcp.WithDescription("Play or pause the active view"),
		),
		s.commandHandler(ports.CmdToggle),
	)

	s.server.AddTool(
		mcp.NewTool(
			"set_timer_duration",
			mcp.WithDescription("Select a timer preset (60, 180, 300 or 1200 seconds) and restart the countdown"),
			mcp.WithNumber(
				"seconds",
				mcp.Required(),
				mcp.Description("Preset duration in seconds"),
			),
		),
		s.handleSetTimerDuration,
	)

	s.server.AddTool(
		mcp.NewTool(
			"add_minute",
			mcp.WithDescription("Add one minute to the selected duration (max 60 minutes) and restart the countdown"),
		),
		s.commandHandler(ports.CmdAddMinute),
	)

	s.server.AddTool(
		mcp.NewTool(
			"reset_timer",
			mcp.WithDescription("Restart the countdown from the selected duration"),
		),
		s.commandHandler(ports.CmdReset),
	)

	s.server.AddTool(
		mcp.NewTool(
			"set_sharing_mode",
			mcp.WithDescription("Select the timer preset for a sharing mode: main (5 min) or supplement (3 min)"),
			mcp.WithString(
				"mode",
				mcp.Required(),
				mcp.Description("The sharing mode"),
				mcp.Enum(string(domain.SharingMain), string(domain.SharingSupplement)),
			),
		),
		s.handleSetSharingMode,
	)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

// handleGetSessionState handles the get_session_state tool.
func (s *Server) handleGetSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return snapshotResult(s.session.Snapshot())
}

// handleListTracks handles the list_tracks tool.
func (s *Server) handleListTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))

	tracks := s.session.Catalog().Tracks()
	if query != "" && s.search != nil {
		tracks = s.search(query)
	}

	jsonData, err := json.MarshalIndent(map[string]any{
		"count":  len(tracks),
		"tracks": tracks,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// handleSelectTrack handles the select_track tool.
func (s *Server) handleSelectTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trackID := strings.TrimSpace(request.GetString("track_id", ""))
	if trackID == "" {
		return mcp.NewToolResultError("track_id is required"), nil
	}
	if err := s.session.Dispatch(ports.SessionCommand{Kind: ports.CmdSelectTrack, TrackID: trackID}); err != nil {
		return s.rejected(ports.CmdSelectTrack, err), nil
	}
	if !request.GetBool("play", true) {
		return snapshotResult(s.session.Snapshot())
	}
	return s.dispatch(ports.SessionCommand{Kind: ports.CmdToggle})
}

// handleSetTimerDuration handles the set_timer_duration tool.
func (s *Server) handleSetTimerDuration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds := int(request.GetFloat("seconds", 0))
	if seconds <= 0 {
		// Some clients send numbers as strings.
		if raw := request.GetString("seconds", ""); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				seconds = n
			}
		}
	}
	if seconds <= 0 {
		return mcp.NewToolResultError("seconds is required"), nil
	}
	return s.dispatch(ports.SessionCommand{Kind: ports.CmdSetDuration, Seconds: seconds})
}

// handleSetSharingMode handles the set_sharing_mode tool.
func (s *Server) handleSetSharingMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := domain.ParseSharingMode(request.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ports.SessionCommand{Kind: ports.CmdSharingMode, Mode: mode})
}

// commandHandler builds a handler for a command without arguments.
func (s *Server) commandHandler(kind ports.CommandKind) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.dispatch(ports.SessionCommand{Kind: kind})
	}
}

// dispatch applies cmd and returns the resulting snapshot. Rejected commands
// become tool errors so the client sees the reason.
func (s *Server) dispatch(cmd ports.SessionCommand) (*mcp.CallToolResult, error) {
	if err := s.session.Dispatch(cmd); err != nil {
		return s.rejected(cmd.Kind, err), nil
	}
	return snapshotResult(s.session.Snapshot())
}

func (s *Server) rejected(kind ports.CommandKind, err error) *mcp.CallToolResult {
	s.logger.Info("tool command rejected", zap.String("command", string(kind)), zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", strings.ReplaceAll(string(kind), "_", " "), err))
}

func snapshotResult(snap domain.Snapshot) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
