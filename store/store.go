// Package store persists chord grid documents. A document is the list of
// sections of a song plus its metadata; the bars of each section are stored
// as one opaque serialized array.
//
// Three backends are provided: an in-memory map, SQLite and Badger. All of
// them satisfy Store, and through it editor.Persistence.
package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/vsariola/chordgrid"
)

var (
	ErrNotFound      = errors.New("store: document not found")
	ErrUnknownDriver = errors.New("store: unknown driver")
)

type (
	// Store loads and saves documents by id.
	Store interface {
		// Load returns the sections and metadata of the document.
		Load(ctx context.Context, id string) ([]*chordgrid.Section, chordgrid.Metadata, error)
		// Save writes the document and returns its id. An empty id creates a
		// new document. Saving content identical to what is stored is a
		// no-op.
		Save(ctx context.Context, id string, sections []*chordgrid.Section, meta chordgrid.Metadata) (string, error)
		// List returns a summary of every document, most recently updated
		// first.
		List(ctx context.Context) ([]Summary, error)
		// Delete removes the document. Deleting a missing document is not an
		// error.
		Delete(ctx context.Context, id string) error
		Close() error
	}

	// Summary describes a stored document without its bars.
	Summary struct {
		ID          string
		Title       string
		Artist      string
		Sections    int
		Fingerprint string
		// Revision counts the writes that changed the document.
		Revision int
		Updated  time.Time
	}

	// record is what the key-value backends keep per document.
	record struct {
		Metadata    chordgrid.Metadata
		Sections    []*chordgrid.Section
		Fingerprint string
		Revision    int
		Updated     time.Time
	}
)

func (r *record) summary(id string) Summary {
	return Summary{
		ID:          id,
		Title:       r.Metadata.Title,
		Artist:      r.Metadata.Artist,
		Sections:    len(r.Sections),
		Fingerprint: r.Fingerprint,
		Revision:    r.Revision,
		Updated:     r.Updated,
	}
}

// Fingerprint returns the BLAKE3 hash of the document content in hex. Two
// documents with equal content have equal fingerprints.
func Fingerprint(sections []*chordgrid.Section, meta chordgrid.Metadata) (string, error) {
	b, err := yaml.Marshal(chordgrid.Song{Metadata: meta, Sections: sections})
	if err != nil {
		return "", fmt.Errorf("store: could not encode document: %w", err)
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// prepare validates a document about to be saved and returns its id (a new
// one if id is empty) and fingerprint.
func prepare(id string, sections []*chordgrid.Section, meta chordgrid.Metadata) (string, string, error) {
	song := chordgrid.Song{Metadata: meta, Sections: sections}
	if err := song.Validate(); err != nil {
		return "", "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	fp, err := Fingerprint(sections, meta)
	if err != nil {
		return "", "", err
	}
	return id, fp, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Open opens a store with the given driver: "memory", "sqlite" or "badger".
// path is the database file for sqlite and the directory for badger; it is
// ignored for memory.
func Open(driver, path string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(driver) {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(path, logger)
	case "badger":
		return OpenBadger(BadgerOptions{Dir: path, Logger: logger})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
