package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vsariola/chordgrid"
)

// MaxHistory is the number of document snapshots kept for undo.
const MaxHistory = 50

type (
	// History is a list of document snapshots plus a cursor pointing at the
	// snapshot of the current document. Snapshots share their sections with
	// each other and with the live document; the editor never mutates a
	// section once it has been recorded.
	//
	// When the list grows beyond its limit, the oldest snapshot is dropped
	// and the cursor stays on the newest one.
	History struct {
		entries []historyEntry
		cursor  int
		limit   int
	}

	historyEntry struct {
		song chordgrid.Song
		kind string
	}
)

// NewHistory returns a history seeded with the initial document.
func NewHistory(initial chordgrid.Song) History {
	return History{
		entries: []historyEntry{{song: share(initial), kind: "Load"}},
		limit:   MaxHistory,
	}
}

// Record drops every snapshot after the cursor and appends s.
func (h *History) Record(s chordgrid.Song, kind string) {
	if h.limit <= 0 {
		h.limit = MaxHistory
	}
	h.entries = append(h.entries[:h.cursor+1], historyEntry{song: share(s), kind: kind})
	if over := len(h.entries) - h.limit; over > 0 {
		n := copy(h.entries, h.entries[over:])
		clear(h.entries[n:])
		h.entries = h.entries[:n]
	}
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor one step back and returns that snapshot. ok is
// false if there is nothing to undo.
func (h *History) Undo() (s chordgrid.Song, ok bool) {
	if !h.CanUndo() {
		return chordgrid.Song{}, false
	}
	h.cursor--
	return share(h.entries[h.cursor].song), true
}

// Redo moves the cursor one step forward and returns that snapshot.
func (h *History) Redo() (s chordgrid.Song, ok bool) {
	if !h.CanRedo() {
		return chordgrid.Song{}, false
	}
	h.cursor++
	return share(h.entries[h.cursor].song), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }
func (h *History) Len() int      { return len(h.entries) }
func (h *History) Cursor() int   { return h.cursor }

// UndoKind returns the kind of the change that Undo would revert, e.g.
// "AddBar", for labelling menu items.
func (h *History) UndoKind() string {
	if !h.CanUndo() {
		return ""
	}
	return h.entries[h.cursor].kind
}

// RedoKind returns the kind of the change that Redo would reapply.
func (h *History) RedoKind() string {
	if !h.CanRedo() {
		return ""
	}
	return h.entries[h.cursor+1].kind
}

// SetRecoveryFilePath sets the file where SaveRecovery writes the document.
func (m *Model) SetRecoveryFilePath(path string) { m.d.RecoveryFilePath = path }

// MarshalRecovery marshals the current model data to a byte slice for recovery
// saving.
func (m *Model) MarshalRecovery() []byte {
	out, err := json.Marshal(m.d)
	if err != nil {
		return nil
	}
	if m.d.RecoveryFilePath != "" {
		os.Remove(m.d.RecoveryFilePath)
	}
	m.d.ChangedSinceRecovery = false
	return out
}

// SaveRecovery saves the current model data to the recovery file on disk if
// there are unsaved changes.
func (m *Model) SaveRecovery() error {
	if !m.d.ChangedSinceRecovery {
		return nil
	}
	if m.d.RecoveryFilePath == "" {
		return errors.New("no recovery file path")
	}
	out, err := json.Marshal(m.d)
	if err != nil {
		return fmt.Errorf("could not marshal recovery data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.d.RecoveryFilePath), 0o755); err != nil {
		return fmt.Errorf("could not create recovery directory: %w", err)
	}
	if err := os.WriteFile(m.d.RecoveryFilePath, out, 0o644); err != nil {
		return fmt.Errorf("could not write recovery file: %w", err)
	}
	m.d.ChangedSinceRecovery = false
	return nil
}

// UnmarshalRecovery unmarshals the model data from a byte slice, then checks
// if a recovery file exists on disk and loads it instead. Data that does not
// hold a valid song is ignored.
func (m *Model) UnmarshalRecovery(bytes []byte) {
	var data modelData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return
	}
	if data.RecoveryFilePath != "" {
		if bytes2, err := os.ReadFile(data.RecoveryFilePath); err == nil {
			var data2 modelData
			if json.Unmarshal(bytes2, &data2) == nil {
				data = data2
			}
		}
	}
	if data.Song.Validate() != nil {
		return
	}
	changed := data.ChangedSinceSave
	m.d = data
	if m.d.BarsPerLine < 1 {
		m.d.BarsPerLine = DefaultBarsPerLine
	}
	m.load(m.d.Song)
	m.d.ChangedSinceSave = changed
	m.d.ChangedSinceRecovery = false
}
