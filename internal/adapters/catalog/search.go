package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/xvierd/zenpath/internal/domain"
)

// searchable matches a query against track ids, titles and subtitles.
type searchable []domain.Track

func (s searchable) String(i int) string {
	t := s[i]
	return strings.Join([]string{t.ID, t.Title, t.Subtitle}, " ")
}

func (s searchable) Len() int { return len(s) }

// Search does a fuzzy search of the catalog. Results are ordered best match
// first; an empty query returns every track in catalog order.
func Search(c domain.Catalog, query string) []domain.Track {
	tracks := c.Tracks()
	if strings.TrimSpace(query) == "" {
		return tracks
	}

	matches := fuzzy.FindFrom(query, searchable(tracks))
	result := make([]domain.Track, 0, len(matches))
	for _, match := range matches {
		result = append(result, tracks[match.Index])
	}
	return result
}
