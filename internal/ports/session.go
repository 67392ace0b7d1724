package ports

import "github.com/xvierd/zenpath/internal/domain"

// CommandKind names a user action issued by a renderer.
type CommandKind string

const (
	// CmdSelectTrack navigates Home -> Player for SessionCommand.TrackID.
	CmdSelectTrack CommandKind = "select_track"

	// CmdOpenTimer navigates Home -> Timer.
	CmdOpenTimer CommandKind = "open_timer"

	// CmdBack navigates back to Home.
	CmdBack CommandKind = "back"

	// CmdToggle flips play/pause for the active view.
	CmdToggle CommandKind = "toggle"

	// CmdSetDuration selects the preset in SessionCommand.Seconds.
	CmdSetDuration CommandKind = "set_duration"

	// CmdAddMinute adds one minute to the selected duration.
	CmdAddMinute CommandKind = "add_minute"

	// CmdReset restarts the countdown from the selected duration.
	CmdReset CommandKind = "reset"

	// CmdSharingMode selects the preset for SessionCommand.Mode.
	CmdSharingMode CommandKind = "sharing_mode"
)

// SessionCommand is a command flowing from a renderer into the session.
type SessionCommand struct {
	Kind    CommandKind
	TrackID string
	Seconds int
	Mode    domain.SharingMode
}

// Renderer draws session snapshots.
// This is a driving port (called by the application layer).
type Renderer interface {
	Render(snapshot domain.Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(domain.Snapshot)

// Render calls f(snapshot).
func (f RendererFunc) Render(snapshot domain.Snapshot) { f(snapshot) }

// Session is the surface the renderers and remote controls drive.
// This is a driven port (implemented by the services layer).
type Session interface {
	// Dispatch applies a renderer command.
	Dispatch(cmd SessionCommand) error

	// Snapshot returns the current state.
	Snapshot() domain.Snapshot

	// Observe registers a renderer that receives a snapshot after every
	// transition.
	Observe(r Renderer) (release func())

	// Catalog returns the read-only track catalog.
	Catalog() domain.Catalog
}
