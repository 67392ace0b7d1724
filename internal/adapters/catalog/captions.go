package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// CaptionFiles loads caption lists from JSON or YAML files. Relative
// references resolve against BaseDir.
type CaptionFiles struct {
	BaseDir string
}

// Captions implements ports.CaptionSource.
func (c CaptionFiles) Captions(ctx context.Context, track domain.Track) ([]domain.Caption, error) {
	if track.CaptionsRef == "" {
		return nil, nil
	}

	path := resolve(c.BaseDir, track.CaptionsRef)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read captions for %s: %w", track.ID, err)
	}
	return ParseCaptions(data)
}

// ParseCaptions decodes a list of {start, end, text} entries, sorted by start.
func ParseCaptions(data []byte) ([]domain.Caption, error) {
	var captions []domain.Caption
	if err := yaml.Unmarshal(data, &captions); err != nil {
		return nil, fmt.Errorf("failed to parse captions: %w", err)
	}
	sort.SliceStable(captions, func(i, j int) bool {
		return captions[i].Start < captions[j].Start
	})
	return captions, nil
}

var _ ports.CaptionSource = CaptionFiles{}
