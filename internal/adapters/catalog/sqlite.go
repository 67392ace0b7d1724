package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"

	"github.com/xvierd/zenpath/internal/domain"
)

// SQLiteSource reads the catalog from the tracks table of a SQLite file.
type SQLiteSource struct {
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	subtitle TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	audio TEXT NOT NULL,
	background INTEGER NOT NULL DEFAULT 0,
	phrase TEXT NOT NULL DEFAULT '',
	captions TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tracks_position ON tracks(position);
`

// Load implements ports.CatalogSource. The database is opened read-only.
func (s *SQLiteSource) Load(ctx context.Context) (domain.Catalog, error) {
	db, err := sql.Open("sqlite", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, subtitle, duration_seconds, audio, background, phrase, captions
		FROM tracks
		ORDER BY position, id
	`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		var t domain.Track
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Subtitle,
			&t.DurationSeconds,
			&t.AudioAssetRef,
			&t.BackgroundRef,
			&t.Phrase,
			&t.CaptionsRef,
		); err != nil {
			return domain.Catalog{}, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to read tracks: %w", err)
	}

	c, err := domain.NewCatalog(tracks)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("invalid catalog %s: %w", s.Path, err)
	}
	return c, nil
}

// ImportSQLite writes c into the tracks table of the database at path,
// creating the file and schema when needed. A track id that already exists
// fails with domain.ErrDuplicateTrackID and nothing is written.
func ImportSQLite(ctx context.Context, path string, c domain.Catalog) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var base int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM tracks`).Scan(&base); err != nil {
		return fmt.Errorf("failed to read track positions: %w", err)
	}

	for i, t := range c.Tracks() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracks (id, position, title, subtitle, duration_seconds, audio, background, phrase, captions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			t.ID,
			base+i,
			t.Title,
			t.Subtitle,
			t.DurationSeconds,
			t.AudioAssetRef,
			t.BackgroundRef,
			t.Phrase,
			t.CaptionsRef,
		)
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateTrackID, t.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert track %q: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == 2067 || code == 1555 // SQLITE_CONSTRAINT_UNIQUE, SQLITE_CONSTRAINT_PRIMARYKEY
}
