package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // pure Go SQLite driver, registers "sqlite"

	"github.com/vsariola/chordgrid"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	artist      TEXT NOT NULL DEFAULT '',
	metadata    BLOB NOT NULL,
	fingerprint TEXT NOT NULL,
	revision    INTEGER NOT NULL,
	updated     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sections (
	document_id     TEXT NOT NULL,
	position        INTEGER NOT NULL,
	id              TEXT NOT NULL,
	name            TEXT NOT NULL,
	time_signature  TEXT NOT NULL,
	show_melody     INTEGER NOT NULL,
	show_note_types INTEGER NOT NULL,
	bars            BLOB NOT NULL,
	PRIMARY KEY (document_id, position)
);`

// SQLite is a Store in an SQLite database, one row per document and one row
// per section.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: could not open %s: %w", path, err)
	}
	// one connection, so that ":memory:" is a single database and writers
	// never contend for the file lock
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: could not create schema: %w", err)
	}
	logger.Debug("opened sqlite store", "path", path)
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Load(ctx context.Context, id string) ([]*chordgrid.Section, chordgrid.Metadata, error) {
	var meta chordgrid.Metadata
	var metaBlob []byte
	err := s.db.QueryRowContext(ctx, `SELECT metadata FROM documents WHERE id = ?`, id).Scan(&metaBlob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meta, notFound(id)
	}
	if err != nil {
		return nil, meta, fmt.Errorf("store: could not load %q: %w", id, err)
	}
	if err := yaml.Unmarshal(metaBlob, &meta); err != nil {
		return nil, meta, fmt.Errorf("store: corrupt metadata in %q: %w", id, err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT position, id, name, time_signature, show_melody, show_note_types, bars
		FROM sections WHERE document_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, meta, fmt.Errorf("store: could not load sections of %q: %w", id, err)
	}
	defer rows.Close()
	var sections []*chordgrid.Section
	for rows.Next() {
		var sec chordgrid.Section
		var ts string
		var bars []byte
		if err := rows.Scan(&sec.Position, &sec.ID, &sec.Name, &ts, &sec.ShowMelody, &sec.ShowNoteTypes, &bars); err != nil {
			return nil, meta, fmt.Errorf("store: could not read a section of %q: %w", id, err)
		}
		if sec.TimeSignature, err = chordgrid.ParseTimeSignature(ts); err != nil {
			return nil, meta, fmt.Errorf("store: section %q of %q: %w", sec.ID, id, err)
		}
		if err := yaml.Unmarshal(bars, &sec.Bars); err != nil {
			return nil, meta, fmt.Errorf("store: corrupt bars in section %q of %q: %w", sec.ID, id, err)
		}
		sections = append(sections, &sec)
	}
	if err := rows.Err(); err != nil {
		return nil, meta, fmt.Errorf("store: could not load sections of %q: %w", id, err)
	}
	return sections, meta, nil
}

func (s *SQLite) Save(ctx context.Context, id string, sections []*chordgrid.Section, meta chordgrid.Metadata) (string, error) {
	id, fp, err := prepare(id, sections, meta)
	if err != nil {
		return "", err
	}
	metaBlob, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("store: could not encode metadata: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: could not begin: %w", err)
	}
	defer tx.Rollback()
	var oldFP string
	revision := 0
	err = tx.QueryRowContext(ctx, `SELECT fingerprint, revision FROM documents WHERE id = ?`, id).Scan(&oldFP, &revision)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return "", fmt.Errorf("store: could not read %q: %w", id, err)
	case oldFP == fp:
		s.logger.Debug("document unchanged, not saving", "id", id)
		return id, nil
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO documents (id, title, artist, metadata, fingerprint, revision, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, artist = excluded.artist, metadata = excluded.metadata,
			fingerprint = excluded.fingerprint, revision = excluded.revision, updated = excluded.updated`,
		id, meta.Title, meta.Artist, metaBlob, fp, revision+1, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("store: could not write %q: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE document_id = ?`, id); err != nil {
		return "", fmt.Errorf("store: could not replace sections of %q: %w", id, err)
	}
	for i, sec := range sections {
		bars, err := yaml.Marshal(sec.Bars)
		if err != nil {
			return "", fmt.Errorf("store: could not encode bars of section %q: %w", sec.ID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO sections (document_id, position, id, name, time_signature, show_melody, show_note_types, bars)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, sec.ID, sec.Name, sec.TimeSignature.String(), sec.ShowMelody, sec.ShowNoteTypes, bars)
		if err != nil {
			return "", fmt.Errorf("store: could not write section %q: %w", sec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: could not commit %q: %w", id, err)
	}
	s.logger.Debug("saved document", "id", id, "revision", revision+1)
	return id, nil
}

func (s *SQLite) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.id, d.title, d.artist, d.fingerprint, d.revision, d.updated,
		(SELECT COUNT(*) FROM sections s WHERE s.document_id = d.id)
		FROM documents d ORDER BY d.updated DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("store: could not list documents: %w", err)
	}
	defer rows.Close()
	var ret []Summary
	for rows.Next() {
		var sum Summary
		var updated int64
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Artist, &sum.Fingerprint, &sum.Revision, &updated, &sum.Sections); err != nil {
			return nil, fmt.Errorf("store: could not read a document row: %w", err)
		}
		sum.Updated = time.Unix(0, updated)
		ret = append(ret, sum)
	}
	return ret, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: could not begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("store: could not delete %q: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: could not delete %q: %w", id, err)
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
