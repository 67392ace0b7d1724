// Package catalog provides the track catalog sources: the built-in table,
// YAML/JSON files and SQLite databases.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// ErrUnsupportedFormat is returned for catalog files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Builtin serves domain.DefaultCatalog.
type Builtin struct{}

// Load implements ports.CatalogSource.
func (Builtin) Load(ctx context.Context) (domain.Catalog, error) {
	return domain.DefaultCatalog(), nil
}

// Open returns the source for path, chosen by file extension. An empty path
// selects the built-in catalog.
func Open(path string) (ports.CatalogSource, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin{}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return &YAMLSource{Path: path}, nil
	case ".db", ".sqlite", ".sqlite3":
		return &SQLiteSource{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load opens the catalog at path and loads it.
func Load(ctx context.Context, path string) (domain.Catalog, error) {
	src, err := Open(path)
	if err != nil {
		return domain.Catalog{}, err
	}
	return src.Load(ctx)
}

// resolve makes a relative file reference absolute against baseDir.
func resolve(baseDir, ref string) string {
	if ref == "" || filepath.IsAbs(ref) || baseDir == "" {
		return ref
	}
	return filepath.Join(baseDir, ref)
}

var (
	_ ports.CatalogSource = Builtin{}
	_ ports.CatalogSource = (*YAMLSource)(nil)
	_ ports.CatalogSource = (*SQLiteSource)(nil)
)
