package editor

import (
	"context"
	"fmt"
	"io"

	"github.com/vsariola/chordgrid"
)

type (
	// Recognizer turns an image or other input into chord text.
	Recognizer interface {
		Recognize(ctx context.Context, r io.Reader) (string, error)
	}

	// Persistence loads and saves documents by id. Save with an empty id
	// creates a new document and returns its id.
	Persistence interface {
		Load(ctx context.Context, id string) ([]*chordgrid.Section, chordgrid.Metadata, error)
		Save(ctx context.Context, id string, sections []*chordgrid.Section, meta chordgrid.Metadata) (string, error)
	}

	// MetadataSource looks up the title and artist of a song from a URL.
	MetadataSource interface {
		Lookup(ctx context.Context, url string) (title, artist string, err error)
	}

	recognized struct {
		text string
		err  error
	}

	loaded struct {
		id       string
		sections []*chordgrid.Section
		meta     chordgrid.Metadata
		err      error
	}

	saved struct {
		id    string
		epoch uint64
		err   error
	}

	lookedUp struct {
		title, artist string
		err           error
	}
)

// Busy reports whether results of asynchronous requests are still expected
// on the broker.
func (m *Model) Busy() bool { return m.busy > 0 }

// dispatch runs work in a new goroutine and delivers its result to the
// broker, tagged with the current generation.
func (m *Model) dispatch(name string, work func() any) {
	gen := m.generation
	m.busy++
	m.logger.Debug("dispatch", "request", name, "generation", gen)
	go func() {
		m.broker.ToModel <- MsgToModel{Generation: gen, Data: work()}
	}()
}

// Recognize reads chord text from r with rec in the background. When the
// result arrives, it replaces the sections of the document as ImportText
// does.
func (m *Model) Recognize(ctx context.Context, rec Recognizer, r io.Reader) {
	m.dispatch("recognize", func() any {
		text, err := rec.Recognize(ctx, r)
		return recognized{text, err}
	})
}

// LoadFrom loads the document with the given id from p in the background.
func (m *Model) LoadFrom(ctx context.Context, p Persistence, id string) {
	m.dispatch("load", func() any {
		sections, meta, err := p.Load(ctx, id)
		return loaded{id, sections, meta, err}
	})
}

// SaveTo saves a copy of the current document to p in the background,
// under the id it was loaded from or last saved as.
func (m *Model) SaveTo(ctx context.Context, p Persistence) {
	song := m.d.Song.Copy()
	id := m.d.StoreID
	epoch := m.epoch
	m.dispatch("save", func() any {
		newID, err := p.Save(ctx, id, song.Sections, song.Metadata)
		return saved{newID, epoch, err}
	})
}

// LookupMetadata fetches the title and artist for url from src in the
// background.
func (m *Model) LookupMetadata(ctx context.Context, src MetadataSource, url string) {
	m.dispatch("lookup", func() any {
		title, artist, err := src.Lookup(ctx, url)
		return lookedUp{title, artist, err}
	})
}

// ProcessMsg applies a message received from the broker to the model.
// Results of requests started before the latest change to the document are
// discarded, so that they cannot overwrite newer edits; saves are the
// exception, as they do not modify the document. A save that finishes after
// another document was loaded leaves the store id of the loaded one alone.
func (m *Model) ProcessMsg(msg MsgToModel) {
	switch d := msg.Data.(type) {
	case Alert:
		m.Alerts().AddAlert(d)
		return
	case recognized:
		m.busy--
		if m.failed("Recognition", d.err) || m.stale(msg, "recognition") {
			return
		}
		m.ImportText(d.text)
	case loaded:
		m.busy--
		if m.failed("Loading", d.err) || m.stale(msg, "loaded document") {
			return
		}
		if err := m.SetSong(chordgrid.Song{Metadata: d.meta, Sections: d.sections}); err != nil {
			return
		}
		m.d.StoreID = d.id
		m.Alerts().Add(fmt.Sprintf("Loaded %s", d.id), Info)
	case saved:
		m.busy--
		if m.failed("Saving", d.err) {
			return
		}
		if d.epoch != m.epoch {
			m.logger.Debug("save finished for a replaced document", "id", d.id)
			m.Alerts().Add(fmt.Sprintf("Saved the previous document as %s", d.id), Info)
			return
		}
		m.d.StoreID = d.id
		if msg.Generation == m.generation {
			m.d.ChangedSinceSave = false
		}
		m.Alerts().Add(fmt.Sprintf("Saved as %s", d.id), Info)
	case lookedUp:
		m.busy--
		if m.failed("Metadata lookup", d.err) || m.stale(msg, "metadata") {
			return
		}
		m.SetMetadata(d.title, d.artist).Do()
	default:
		m.logger.Warn("unknown message", "type", fmt.Sprintf("%T", msg.Data))
	}
}

func (m *Model) failed(what string, err error) bool {
	if err == nil {
		return false
	}
	m.logger.Error(what+" failed", "err", err)
	m.Alerts().Add(fmt.Sprintf("%s failed: %v", what, err), Error)
	return true
}

func (m *Model) stale(msg MsgToModel, what string) bool {
	if msg.Generation == m.generation {
		return false
	}
	m.logger.Debug("discarding stale result", "result", what, "generation", msg.Generation, "current", m.generation)
	m.Alerts().AddNamed("StaleResult", fmt.Sprintf("Discarded stale %s: the document changed in the meantime", what), Info)
	return true
}
