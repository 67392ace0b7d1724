package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xvierd/zenpath/internal/adapters/catalog"
	"github.com/xvierd/zenpath/internal/adapters/media"
	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/services"
)

// sessionState mirrors the JSON fields the tests read back.
type sessionState struct {
	View                    string `json:"view"`
	IsPlaying               bool   `json:"is_playing"`
	IsRunning               bool   `json:"is_running"`
	CountdownSeconds        int    `json:"countdown_seconds"`
	SelectedDurationSeconds int    `json:"selected_duration_seconds"`
	SharingMode             string `json:"sharing_mode"`
	CurrentTrack            struct {
		ID string `json:"id"`
	} `json:"current_track"`
}

func newTestServer(t *testing.T) (*Server, *services.SessionMachine) {
	t.Helper()
	c := domain.DefaultCatalog()
	sched := services.NewManualScheduler()
	backend := media.NewSimulatedBackend(sched, c, domain.FallbackDurationSeconds)
	machine := services.NewSessionMachine(c, backend, sched, nil, nil, services.DefaultMachineOptions())
	t.Cleanup(func() { _ = machine.Close() })

	search := func(q string) []domain.Track { return catalog.Search(c, q) }
	return NewServer(machine, search, nil), machine
}

func request(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("nil result")
	}
	if len(result.Content) == 0 {
		t.Fatal("empty content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func decodeState(t *testing.T, result *mcp.CallToolResult) sessionState {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}
	var s sessionState
	if err := json.Unmarshal([]byte(resultText(t, result)), &s); err != nil {
		t.Fatalf("invalid state JSON: %v", err)
	}
	return s
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t)
	if server.server == nil {
		t.Error("NewServer() did not create MCP server")
	}
	if server.IsRunning() {
		t.Error("IsRunning() should return false before Start()")
	}
	if err := server.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestServer_handleGetSessionState(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleGetSessionState(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("handleGetSessionState() error = %v", err)
	}
	s := decodeState(t, result)
	if s.View != "home" {
		t.Errorf("view = %q, want home", s.View)
	}
	if s.SelectedDurationSeconds != 180 || s.SharingMode != "supplement" {
		t.Errorf("unexpected timer defaults: %+v", s)
	}
}

func TestServer_handleListTracks(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleListTracks(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("handleListTracks() error = %v", err)
	}
	if !strings.Contains(resultText(t, result), `"count": 3`) {
		t.Error("all tracks should be listed without a query")
	}

	result, err = server.handleListTracks(context.Background(), request(map[string]any{"query": "cijing"}))
	if err != nil {
		t.Fatalf("handleListTracks() error = %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, `"count": 1`) || !strings.Contains(text, "cijing") {
		t.Errorf("query should filter tracks, got %s", text)
	}
}

func TestServer_SelectTrackAndToggle(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	result, err := server.handleSelectTrack(ctx, request(map[string]any{"track_id": "chushifan"}))
	if err != nil {
		t.Fatalf("handleSelectTrack() error = %v", err)
	}
	s := decodeState(t, result)
	if s.View != "player" || !s.IsPlaying || s.CurrentTrack.ID != "chushifan" {
		t.Errorf("unexpected state after select: %+v", s)
	}

	result, err = server.commandHandler("toggle")(ctx, request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if decodeState(t, result).IsPlaying {
		t.Error("toggle should pause")
	}

	result, err = server.commandHandler("back")(ctx, request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if decodeState(t, result).View != "home" {
		t.Error("go_home should return home")
	}
}

func TestServer_SelectTrackWithoutPlay(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleSelectTrack(context.Background(), request(map[string]any{"track_id": "cijing", "play": false}))
	if err != nil {
		t.Fatalf("handleSelectTrack() error = %v", err)
	}
	s := decodeState(t, result)
	if s.View != "player" || s.IsPlaying || s.CurrentTrack.ID != "cijing" {
		t.Errorf("select without play should open the player paused: %+v", s)
	}
}

func TestServer_DurationToolsNeedTimer(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	result, err := server.handleSetTimerDuration(ctx, request(map[string]any{"seconds": float64(1200)}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "timer") {
		t.Errorf("set_timer_duration on home should be a tool error, got %s", resultText(t, result))
	}

	result, err = server.handleGetSessionState(ctx, request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeState(t, result).SelectedDurationSeconds; got != 180 {
		t.Errorf("selected duration changed off the timer: %d", got)
	}
}

func TestServer_handleSelectTrack_MissingID(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleSelectTrack(context.Background(), request(map[string]any{}))
	if err != nil {
		t.Fatalf("handleSelectTrack() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing track_id should be a tool error")
	}
}

func TestServer_TimerTools(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	if _, err := server.commandHandler("open_timer")(ctx, request(nil)); err != nil {
		t.Fatal(err)
	}

	result, err := server.handleSetTimerDuration(ctx, request(map[string]any{"seconds": float64(1200)}))
	if err != nil {
		t.Fatal(err)
	}
	s := decodeState(t, result)
	if s.View != "timer" || s.SelectedDurationSeconds != 1200 || s.CountdownSeconds != 1200 {
		t.Errorf("unexpected state after set duration: %+v", s)
	}

	result, err = server.handleSetTimerDuration(ctx, request(map[string]any{"seconds": float64(100)}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("non-preset duration should be a tool error")
	}

	result, err = server.commandHandler("add_minute")(ctx, request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeState(t, result).SelectedDurationSeconds; got != 1260 {
		t.Errorf("add_minute selected %d, want 1260", got)
	}

	result, err = server.handleSetSharingMode(ctx, request(map[string]any{"mode": "main"}))
	if err != nil {
		t.Fatal(err)
	}
	s = decodeState(t, result)
	if s.SelectedDurationSeconds != 300 || s.SharingMode != "main" {
		t.Errorf("unexpected state after sharing mode: %+v", s)
	}

	result, err = server.handleSetSharingMode(ctx, request(map[string]any{"mode": "keynote"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("unknown sharing mode should be a tool error")
	}
}

func TestServer_ClosedSession(t *testing.T) {
	server, machine := newTestServer(t)
	_ = machine.Close()

	result, err := server.commandHandler("open_timer")(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "closed") {
		t.Error("commands on a closed session should be tool errors")
	}
}
