package ports

import "context"

// MediaEvents receives playback notifications from a MediaBackend.
// Implementations must tolerate calls from any goroutine.
type MediaEvents interface {
	// OnPositionUpdate reports the current playback position in seconds.
	OnPositionUpdate(seconds float64)

	// OnMetadataReady reports the real duration of the loaded asset.
	OnMetadataReady(durationSeconds float64)

	// OnEnded reports that playback reached the end of the asset.
	OnEnded()
}

// MediaBackend decodes and plays one audio asset at a time.
// This is a driven port (implemented by adapters). Only the session state
// machine issues commands to it, and it never holds its own locks while
// delivering events.
type MediaBackend interface {
	// Load replaces the current asset. Playback stays paused.
	Load(assetRef string) error

	// Seek moves the playback position.
	Seek(seconds float64) error

	// Play starts playback and returns once it has started or failed.
	Play(ctx context.Context) error

	// Pause stops playback, keeping the position.
	Pause() error

	// Subscribe registers an event receiver. The returned release function
	// detaches it. A delivery already in progress may still complete, so
	// receivers keep their own released flag.
	Subscribe(events MediaEvents) (release func())

	// Close stops playback and frees resources.
	Close() error
}
