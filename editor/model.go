package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vsariola/chordgrid"
)

// Model implements the mutable state of one chord grid document.
//
// Model is owned by a single goroutine: every mutation, including the
// results of asynchronous collaborators delivered through ProcessMsg, runs on
// that goroutine. The sections of the song are shared with the undo history
// and are never mutated in place; a section is cloned the first time it is
// modified within a change (see mutSection).
type (
	Model struct {
		d         modelData
		history   History
		selection Selection
		alerts    []Alert
		broker    *Broker
		logger    *slog.Logger

		changeLevel  int
		changeCancel bool
		snapshot     chordgrid.Song
		owned        map[*chordgrid.Section]bool

		// generation is incremented on every recorded change, undo, redo and
		// load. Asynchronous requests remember the generation they were
		// started at, so their results can be recognized as stale.
		generation uint64
		// busy counts the asynchronous requests whose results have not been
		// processed yet.
		busy int
		// epoch is incremented whenever a different document is loaded, so a
		// save that finishes afterwards does not bind its id to it.
		epoch uint64
	}

	// modelData is the part of the model that gets saved to the recovery
	// file.
	modelData struct {
		Song                 chordgrid.Song
		FilePath             string
		StoreID              string
		BarsPerLine          int
		ChangedSinceSave     bool
		RecoveryFilePath     string
		ChangedSinceRecovery bool
	}
)

var (
	ErrEmptySelection  = errors.New("select one or more bars first")
	ErrLastSection     = errors.New("cannot delete the last section")
	ErrSectionNotFound = errors.New("section not found")
	ErrBarNotFound     = errors.New("bar not found")
)

const DefaultBarsPerLine = 4

// NewModel returns a model holding the default song. A nil broker gets a
// new one; a nil logger falls back to slog.Default().
func NewModel(broker *Broker, logger *slog.Logger) *Model {
	if broker == nil {
		broker = NewBroker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		broker: broker,
		logger: logger,
		owned:  map[*chordgrid.Section]bool{},
	}
	m.d.BarsPerLine = DefaultBarsPerLine
	m.load(chordgrid.DefaultSong())
	return m
}

// Song returns a deep copy of the current document.
func (m *Model) Song() chordgrid.Song { return m.d.Song.Copy() }

// SetSong replaces the document with a copy of song and reseeds the undo
// history with it. The selection is cleared.
func (m *Model) SetSong(song chordgrid.Song) error {
	if err := song.Validate(); err != nil {
		m.Alerts().Add(err.Error(), Error)
		return err
	}
	m.load(song.Copy())
	return nil
}

func (m *Model) load(song chordgrid.Song) {
	m.d.Song = song
	m.renumber()
	clear(m.owned)
	m.history = NewHistory(m.d.Song)
	m.selection.Clear()
	m.d.ChangedSinceSave = false
	m.generation++
	m.epoch++
}

func (m *Model) Broker() *Broker         { return m.broker }
func (m *Model) Generation() uint64      { return m.generation }
func (m *Model) FilePath() string        { return m.d.FilePath }
func (m *Model) SetFilePath(path string) { m.d.FilePath = path }
func (m *Model) StoreID() string         { return m.d.StoreID }
func (m *Model) ChangedSinceSave() bool  { return m.d.ChangedSinceSave }
func (m *Model) Selection() *Selection   { return &m.selection }
func (m *Model) History() *History       { return &m.history }

// SetStoreID sets the id the next SaveTo saves under; empty creates a new
// document.
func (m *Model) SetStoreID(id string) { m.d.StoreID = id }

// NumSections returns the number of sections in the document.
func (m *Model) NumSections() int { return len(m.d.Song.Sections) }

// SectionIDs returns the ids of the sections in arrangement order.
func (m *Model) SectionIDs() []string {
	ret := make([]string, len(m.d.Song.Sections))
	for i, sec := range m.d.Song.Sections {
		ret[i] = sec.ID
	}
	return ret
}

// change starts a change to the document, returning the function that
// finishes it, usually called as defer m.change("Kind")(). Changes nest; only
// the outermost one records an undo entry. Setting changeCancel during the
// change restores the document as it was when the change started.
func (m *Model) change(kind string) func() {
	if m.changeLevel == 0 {
		m.changeCancel = false
		m.snapshot = share(m.d.Song)
		clear(m.owned)
	}
	m.changeLevel++
	return func() {
		m.changeLevel--
		if m.changeLevel > 0 {
			return
		}
		if m.changeCancel {
			m.d.Song = m.snapshot
		} else {
			m.renumber()
			m.history.Record(m.d.Song, kind)
			m.generation++
			m.d.ChangedSinceSave = true
			m.d.ChangedSinceRecovery = true
		}
		m.snapshot = chordgrid.Song{}
		clear(m.owned)
	}
}

// reject cancels the ongoing change, if any, and reports err to the user.
func (m *Model) reject(err error) error {
	if m.changeLevel > 0 {
		m.changeCancel = true
	}
	m.Alerts().Add(err.Error(), Warning)
	return err
}

// mutSection returns section i ready to be modified: a private clone the
// first time within a change, so that history entries sharing the section
// stay intact.
func (m *Model) mutSection(i int) *chordgrid.Section {
	sec := m.d.Song.Sections[i]
	if m.owned[sec] {
		return sec
	}
	c := sec.Copy()
	m.d.Song.Sections[i] = c
	m.owned[c] = true
	return c
}

// own marks a newly created section as private to the ongoing change.
func (m *Model) own(sec *chordgrid.Section) *chordgrid.Section {
	m.owned[sec] = true
	return sec
}

// renumber keeps the Position of every section equal to its index.
func (m *Model) renumber() {
	for i, sec := range m.d.Song.Sections {
		if sec.Position != i {
			m.mutSection(i).Position = i
		}
	}
}

// share returns a shallow copy of s that has its own section slice but
// shares the sections themselves.
func share(s chordgrid.Song) chordgrid.Song {
	s.Sections = append([]*chordgrid.Section(nil), s.Sections...)
	return s
}

func (m *Model) sectionIndex(id string) (int, error) {
	i := m.d.Song.SectionIndex(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", ErrSectionNotFound, id)
	}
	return i, nil
}

// Undo returns an Action to undo the last change.
func (m *Model) Undo() Action { return MakeAction((*undo)(m)) }

type undo Model

func (m *undo) Enabled() bool { return m.history.CanUndo() }
func (m *undo) Do() error {
	song, ok := m.history.Undo()
	if !ok {
		return nil
	}
	(*Model)(m).restore(song)
	return nil
}

// Redo returns an Action to redo the last undone change.
func (m *Model) Redo() Action { return MakeAction((*redo)(m)) }

type redo Model

func (m *redo) Enabled() bool { return m.history.CanRedo() }
func (m *redo) Do() error {
	song, ok := m.history.Redo()
	if !ok {
		return nil
	}
	(*Model)(m).restore(song)
	return nil
}

func (m *Model) restore(song chordgrid.Song) {
	m.d.Song = song
	clear(m.owned)
	m.generation++
	m.d.ChangedSinceSave = true
	m.d.ChangedSinceRecovery = true
	m.selection.retain(m.d.Song.Sections)
}
