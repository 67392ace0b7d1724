package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/xvierd/zenpath/internal/domain"
)

// YAMLSource reads a catalog file. JSON files are accepted as well, since
// JSON is a subset of YAML. Relative audio and caption paths resolve against
// the file's directory.
type YAMLSource struct {
	Path string
}

type catalogFile struct {
	Tracks []trackEntry `yaml:"tracks"`
}

type trackEntry struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Subtitle        string `yaml:"subtitle"`
	DurationSeconds int    `yaml:"duration_seconds"`
	Audio           string `yaml:"audio"`
	Background      int    `yaml:"background"`
	Phrase          string `yaml:"phrase"`
	Captions        string `yaml:"captions"`
}

func (e trackEntry) toDomain(baseDir string) domain.Track {
	return domain.Track{
		ID:              e.ID,
		Title:           e.Title,
		Subtitle:        e.Subtitle,
		DurationSeconds: e.DurationSeconds,
		AudioAssetRef:   resolve(baseDir, e.Audio),
		BackgroundRef:   e.Background,
		Phrase:          e.Phrase,
		CaptionsRef:     resolve(baseDir, e.Captions),
	}
}

func fromDomain(t domain.Track) trackEntry {
	return trackEntry{
		ID:              t.ID,
		Title:           t.Title,
		Subtitle:        t.Subtitle,
		DurationSeconds: t.DurationSeconds,
		Audio:           t.AudioAssetRef,
		Background:      t.BackgroundRef,
		Phrase:          t.Phrase,
		Captions:        t.CaptionsRef,
	}
}

// Load implements ports.CatalogSource.
func (s *YAMLSource) Load(ctx context.Context) (domain.Catalog, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", s.Path, err)
	}

	baseDir := filepath.Dir(s.Path)
	tracks := make([]domain.Track, 0, len(file.Tracks))
	for _, e := range file.Tracks {
		tracks = append(tracks, e.toDomain(baseDir))
	}

	c, err := domain.NewCatalog(tracks)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("invalid catalog %s: %w", s.Path, err)
	}
	return c, nil
}

// WriteYAML writes c to path in the catalog file format.
func WriteYAML(path string, c domain.Catalog) error {
	file := catalogFile{}
	for _, t := range c.Tracks() {
		file.Tracks = append(file.Tracks, fromDomain(t))
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
