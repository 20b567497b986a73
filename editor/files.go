package editor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/chordtext"
)

// ReadSong reads a song in JSON or YAML from r and makes it the document.
// If r is a file, the model remembers its path.
func (m *Model) ReadSong(r io.ReadCloser) error {
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		m.Alerts().Add(fmt.Sprintf("Error reading a song file: %v", err), Error)
		return err
	}
	if err := r.Close(); err != nil {
		m.Alerts().Add(fmt.Sprintf("Error closing a song file: %v", err), Error)
		return err
	}
	song, err := UnmarshalSong(b)
	if err != nil {
		m.Alerts().Add(err.Error(), Error)
		return err
	}
	if err := m.SetSong(song); err != nil {
		return err
	}
	if f, ok := r.(*os.File); ok {
		m.d.FilePath = f.Name()
	}
	m.d.StoreID = ""
	return nil
}

// UnmarshalSong parses a song in JSON or YAML.
func UnmarshalSong(b []byte) (chordgrid.Song, error) {
	var song chordgrid.Song
	if errJSON := json.Unmarshal(b, &song); errJSON != nil {
		song = chordgrid.Song{}
		if errYaml := yaml.Unmarshal(b, &song); errYaml != nil {
			return chordgrid.Song{}, fmt.Errorf("error unmarshaling a song file: %v / %v", errYaml, errJSON)
		}
	}
	if song.Tempo == 0 {
		song.Tempo = chordgrid.DefaultTempo
	}
	if song.TimeSignature.IsZero() {
		song.TimeSignature = chordgrid.CommonTime
	}
	return song, nil
}

// WriteSong writes the document to w, as JSON if w is a file with the .json
// extension and as YAML otherwise.
func (m *Model) WriteSong(w io.WriteCloser) error {
	path := ""
	if f, ok := w.(*os.File); ok {
		path = f.Name()
	}
	contents, err := MarshalSong(m.d.Song, filepath.Ext(path))
	if err != nil {
		w.Close()
		m.Alerts().Add(fmt.Sprintf("Error marshaling a song file: %v", err), Error)
		return err
	}
	if _, err := w.Write(contents); err != nil {
		w.Close()
		m.Alerts().Add(fmt.Sprintf("Error writing to file: %v", err), Error)
		return err
	}
	if err := w.Close(); err != nil {
		m.Alerts().Add(fmt.Sprintf("Error closing the song file: %v", err), Error)
		return err
	}
	if path != "" {
		m.d.FilePath = path
		// when the song is saved to a file, we are quite confident that the
		// file is persisted
		m.d.ChangedSinceSave = false
	}
	return nil
}

// MarshalSong encodes a song as JSON if ext is ".json", as YAML otherwise.
func MarshalSong(song chordgrid.Song, ext string) ([]byte, error) {
	if strings.EqualFold(ext, ".json") {
		return json.MarshalIndent(song, "", "  ")
	}
	return yaml.Marshal(song)
}

// ImportText replaces the sections of the document with the ones parsed from
// text. If the text holds no sections, the document is left untouched and
// chordtext.ErrNoSections is returned. Lines that could not be understood
// are reported in a warning alert; a clean import clears the alert of an
// earlier one.
func (m *Model) ImportText(text string) error {
	sections, warnings, err := chordtext.Parse(text, m.d.Song.TimeSignature)
	if err != nil {
		m.Alerts().AddNamed("ImportText", fmt.Sprintf("Could not convert the text: %v", err), Error)
		return err
	}
	if len(warnings) > 0 {
		m.Alerts().AddNamed("ImportText", fmt.Sprintf("Skipped %d line(s); %s", len(warnings), warnings[0]), Warning)
	} else {
		m.Alerts().ClearNamed("ImportText")
	}
	defer m.change("ImportText")()
	for _, sec := range sections {
		m.own(sec)
	}
	m.d.Song.Sections = sections
	m.selection.Clear()
	return nil
}

// ExportText returns the chord text of the document, BarsPerLine bars per
// row. See chordtext.Format for what is lost.
func (m *Model) ExportText() string {
	return chordtext.Format(m.d.Song.Sections, m.d.BarsPerLine)
}
