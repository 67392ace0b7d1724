package domain

import (
	"fmt"
	"strings"
)

// Track is an immutable catalog entry describing one guided audio session.
type Track struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	AudioAssetRef   string `json:"audio"`
	BackgroundRef   int    `json:"background"`
	Phrase          string `json:"phrase,omitempty"`
	CaptionsRef     string `json:"captions,omitempty"`
}

// Validate checks the fields every catalog entry must carry.
func (t Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTrack)
	}
	if strings.TrimSpace(t.AudioAssetRef) == "" {
		return fmt.Errorf("%w: track %q has no audio asset", ErrInvalidTrack, t.ID)
	}
	if t.DurationSeconds < 0 {
		return fmt.Errorf("%w: track %q has negative duration", ErrInvalidTrack, t.ID)
	}
	if t.BackgroundRef < 0 {
		return fmt.Errorf("%w: track %q has negative background index", ErrInvalidTrack, t.ID)
	}
	return nil
}

// Catalog is the ordered, read-only registry of available tracks.
// The first entry is the fallback for any lookup miss.
type Catalog struct {
	tracks []Track
	index  map[string]int
}

// NewCatalog builds a catalog, rejecting empty lists, invalid entries and
// duplicate ids.
func NewCatalog(tracks []Track) (Catalog, error) {
	if len(tracks) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}

	c := Catalog{
		tracks: make([]Track, len(tracks)),
		index:  make(map[string]int, len(tracks)),
	}
	for i, t := range tracks {
		if err := t.Validate(); err != nil {
			return Catalog{}, err
		}
		if _, dup := c.index[t.ID]; dup {
			return Catalog{}, fmt.Errorf("%w: %q", ErrDuplicateTrackID, t.ID)
		}
		c.tracks[i] = t
		c.index[t.ID] = i
	}
	return c, nil
}

// MustCatalog is NewCatalog for static tables known to be valid.
func MustCatalog(tracks []Track) Catalog {
	c, err := NewCatalog(tracks)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the track with the given id, or the default track when the
// id is unknown.
func (c Catalog) Lookup(id string) Track {
	if i, ok := c.index[id]; ok {
		return c.tracks[i]
	}
	return c.Default()
}

// Contains reports whether id names a catalog entry.
func (c Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Default returns the first catalog entry.
func (c Catalog) Default() Track {
	if len(c.tracks) == 0 {
		return Track{}
	}
	return c.tracks[0]
}

// Tracks returns a copy of the entries in catalog order.
func (c Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Len returns the number of entries.
func (c Catalog) Len() int {
	return len(c.tracks)
}

// DefaultCatalog returns the built-in catalog of three guided sessions.
func DefaultCatalog() Catalog {
	return MustCatalog([]Track{
		{
			ID:              "zen-10",
			Title:           "正念静坐",
			Subtitle:        "10 分钟",
			DurationSeconds: 600,
			AudioAssetRef:   "zen-mindfulness-10min.mp3",
			BackgroundRef:   0,
			Phrase:          "观呼吸",
			CaptionsRef:     "zen-mindfulness-10min.json",
		},
		{
			ID:              "chushifan",
			Title:           "处世梵",
			DurationSeconds: 600,
			AudioAssetRef:   "chushifan.mp3",
			BackgroundRef:   2,
			Phrase:          "随闻入观",
		},
		{
			ID:              "cijing",
			Title:           "慈经",
			DurationSeconds: 600,
			AudioAssetRef:   "cijing.mp3",
			BackgroundRef:   1,
			Phrase:          "善愿成就",
		},
	})
}
