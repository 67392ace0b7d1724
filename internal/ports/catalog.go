// Package ports defines the interfaces (driven and driving ports)
// for the zenpath application following hexagonal architecture principles.
// These interfaces define the contracts between the session core and
// external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/zenpath/internal/domain"
)

// CatalogSource defines the interface for loading the track catalog.
// This is a driven port (implemented by adapters).
type CatalogSource interface {
	// Load reads and validates the full catalog. It is called once at startup.
	Load(ctx context.Context) (domain.Catalog, error)
}

// CaptionSource loads the timed caption lines for a track.
// This is a driven port (implemented by adapters).
type CaptionSource interface {
	// Captions returns the captions referenced by the track, or nil when the
	// track has none.
	Captions(ctx context.Context, track domain.Track) ([]domain.Caption, error)
}
