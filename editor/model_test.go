package editor_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/editor"
)

type modelFuzzState struct {
	model *editor.Model
	file  []byte
	text  string
}

type myWriteCloser struct {
	*bytes.Buffer
}

func (mwc *myWriteCloser) Close() error {
	// Noop
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *modelFuzzState) section(seed int) *editor.SectionModel {
	return s.model.SectionAt(mod(seed, s.model.NumSections()))
}

func (s *modelFuzzState) barID(sec *editor.SectionModel, seed int) string {
	ids := sec.BarIDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[mod(seed, len(ids))]
}

func mod(a, b int) int {
	if b <= 0 {
		return 0
	}
	return ((a % b) + b) % b
}

func (s *modelFuzzState) Iterate(yield func(string, func(p string, t *testing.T)) bool, seed int) {
	sec := s.section(seed)
	// Ints
	s.IterateInt("Tempo", s.model.Tempo(), yield, seed)
	s.IterateInt("Capo", s.model.Capo(), yield, seed)
	s.IterateInt("BarsPerLine", s.model.BarsPerLine(), yield, seed)
	s.IterateInt("BarCount", sec.BarCount(), yield, seed)
	// Bools
	s.IterateBool("ShowMelody", sec.ShowMelody(), yield, seed)
	s.IterateBool("ShowNoteTypes", sec.ShowNoteTypes(), yield, seed)
	// Strings
	s.IterateString("Key", s.model.Key(), yield, seed)
	s.IterateString("Title", s.model.Title(), yield, seed)
	s.IterateString("TimeSignature", s.model.TimeSignature(), yield, seed)
	s.IterateString("SectionName", sec.Name(), yield, seed)
	s.IterateString("SectionTimeSignature", sec.TimeSignature(), yield, seed)
	s.IterateString("Chord", sec.Bar(s.barID(sec, seed)).Chord(chordgrid.Slot(seed%3)), yield, seed)
	s.IterateString("Melody", sec.Bar(s.barID(sec, seed)).Melody(), yield, seed)
	// Selection
	yield("Select", func(p string, t *testing.T) {
		s.model.Selection().Select(s.barID(sec, seed))
	})
	yield("Toggle", func(p string, t *testing.T) {
		s.model.Selection().Toggle(s.barID(sec, seed>>1))
	})
	yield("ClearSelection", func(p string, t *testing.T) {
		s.model.Selection().Clear()
	})
	// Actions
	d := chordgrid.Durations[mod(seed, len(chordgrid.Durations))]
	ts := chordgrid.CommonTimeSignatures[mod(seed, len(chordgrid.CommonTimeSignatures))]
	s.IterateAction("AddSection", s.model.AddSection(), yield, seed)
	s.IterateAction("DuplicateSection", sec.Duplicate(), yield, seed)
	s.IterateAction("DeleteSection", sec.Delete(), yield, seed)
	s.IterateAction("MoveSectionUp", sec.Move(editor.Up), yield, seed)
	s.IterateAction("MoveSectionDown", sec.Move(editor.Down), yield, seed)
	s.IterateAction("SetSectionTimeSignature", sec.SetTimeSignature(ts), yield, seed)
	s.IterateAction("AddBar", sec.AddBar(), yield, seed)
	s.IterateAction("InsertBarAt", sec.InsertBarAt(seed%8-2), yield, seed)
	s.IterateAction("RemoveBar", sec.RemoveBar(s.barID(sec, seed)), yield, seed)
	s.IterateAction("DuplicateLastBar", sec.DuplicateLastBar(), yield, seed)
	s.IterateAction("RecordTimestamp", sec.Bar(s.barID(sec, seed)).RecordTimestamp(float64(seed%100)), yield, seed)
	s.IterateAction("AddRepeatSign", sec.AddRepeatSign(), yield, seed)
	s.IterateAction("AddRest", sec.AddRest(d, seed%2 == 0), yield, seed)
	s.IterateAction("AddNoteSymbol", sec.AddNoteSymbol(d), yield, seed)
	s.IterateAction("ClearNoteTypes", sec.ClearNoteTypes(), yield, seed)
	s.IterateAction("AddSlashNotation", sec.AddSlashNotation(), yield, seed)
	s.IterateAction("AddFirstEnding", sec.AddEnding(chordgrid.FirstEnding), yield, seed)
	s.IterateAction("AddSecondEnding", sec.AddEnding(chordgrid.SecondEnding), yield, seed)
	s.IterateAction("RemoveEnding", sec.RemoveEnding(chordgrid.EndingGroup(seed%2+1)), yield, seed)
	s.IterateAction("AddSign", sec.AddSign(chordgrid.AllSigns[mod(seed, len(chordgrid.AllSigns))]), yield, seed)
	s.IterateAction("ToggleFermata", sec.ToggleFermata(), yield, seed)
	s.IterateAction("AddTimeSignatureOverride", sec.AddTimeSignatureOverride(ts), yield, seed)
	s.IterateAction("AddRepeatStartMarker", sec.AddRepeatStartMarker(), yield, seed)
	s.IterateAction("AddRepeatEndMarker", sec.AddRepeatEndMarker(), yield, seed)
	s.IterateAction("EnterBar", sec.EnterBar(), yield, seed)
	s.IterateAction("Transpose", s.model.Transpose(seed%25-12), yield, seed)
	s.IterateAction("AutoGenerate", s.model.AutoGenerate(float64(seed%200)), yield, seed)
	s.IterateAction("Undo", s.model.Undo(), yield, seed)
	s.IterateAction("Redo", s.model.Redo(), yield, seed)
	// Text conversion
	yield("ExportText", func(p string, t *testing.T) {
		s.text = s.model.ExportText()
	})
	yield("ImportText", func(p string, t *testing.T) {
		s.model.ImportText(s.text)
	})
	// File reading
	if s.file != nil {
		yield("ReadSong", func(p string, t *testing.T) {
			reader := bytes.NewReader(s.file)
			readCloser := io.NopCloser(reader)
			s.model.ReadSong(readCloser)
		})
	}
	// File saving
	yield("WriteSong", func(p string, t *testing.T) {
		writer := bytes.NewBuffer(nil)
		writeCloser := &myWriteCloser{writer}
		s.model.WriteSong(writeCloser)
		s.file = writer.Bytes()
	})
}

func (s *modelFuzzState) IterateInt(name string, i editor.Int, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	r := i.Range()
	yield(name+".Set", func(p string, t *testing.T) {
		i.SetValue(seed%(r.Max-r.Min+10) - 5 + r.Min)
	})
	yield(name+".Value", func(p string, t *testing.T) {
		if v := i.Value(); v < r.Min || v > r.Max {
			r := i.Range()
			t.Errorf("Path: %s %s value out of range [%d,%d]: %d", p, name, r.Min, r.Max, v)
		}
	})
}

func (s *modelFuzzState) IterateAction(name string, a editor.Action, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	yield(name+".Do", func(p string, t *testing.T) {
		a.Do()
	})
}

func (s *modelFuzzState) IterateBool(name string, b editor.Bool, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	yield(name+".Set", func(p string, t *testing.T) {
		b.SetValue(seed%2 == 0)
	})
	yield(name+".Toggle", func(p string, t *testing.T) {
		b.Toggle()
	})
}

var fuzzStrings = []string{"", "C", "Am7", "F#m7b5", "Bb/D", "3/4", "6/8", "x", "= A", "%"}

func (s *modelFuzzState) IterateString(name string, str editor.String, yield func(string, func(p string, t *testing.T)) bool, seed int) {
	yield(name+".Set", func(p string, t *testing.T) {
		str.SetValue(fuzzStrings[mod(seed, len(fuzzStrings))])
	})
	yield(name+".SetNumber", func(p string, t *testing.T) {
		str.SetValue(fmt.Sprintf("%d", seed))
	})
}

// checkInvariants reports violations of the structural invariants of the
// document and the history.
func checkInvariants(t *testing.T, path string, model *editor.Model) {
	song := model.Song()
	if err := song.Validate(); err != nil {
		t.Errorf("Path: %s invalid song: %v", path, err)
	}
	for i, sec := range song.Sections {
		if sec.Position != i {
			t.Errorf("Path: %s section %d has position %d", path, i, sec.Position)
		}
		for j := range sec.Bars {
			b := &sec.Bars[j]
			ts := b.EffectiveTimeSignature(sec.TimeSignature)
			if b.UsedBeats(ts) > ts.Capacity() {
				t.Errorf("Path: %s bar %d/%d exceeds its capacity: %s", path, i, j, b.NoteSymbol())
			}
		}
	}
	h := model.History()
	if h.Len() < 1 || h.Len() > editor.MaxHistory {
		t.Errorf("Path: %s history length out of range: %d", path, h.Len())
	}
	if c := h.Cursor(); c < 0 || c >= h.Len() {
		t.Errorf("Path: %s history cursor out of range: %d", path, c)
	}
}

func FuzzModel(f *testing.F) {
	seed := make([]byte, 1)
	for i := range seed {
		seed[i] = byte(i)
	}
	f.Add(seed)
	f.Add([]byte{2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30})
	f.Fuzz(func(t *testing.T, slice []byte) {
		reader := bytes.NewReader(slice)
		model := editor.NewModel(nil, quietLogger())
		state := modelFuzzState{model: model}
		count := 0
		state.Iterate(func(n string, f func(p string, t *testing.T)) bool {
			count++
			return true
		}, 0)
		totalPath := ""
		for m, err := binary.ReadVarint(reader); err == nil; m, err = binary.ReadVarint(reader) {
			seed := int(m)
			index := mod(seed, count)
			state.Iterate(func(n string, f func(p string, t *testing.T)) bool {
				if index == 0 {
					totalPath += n + ". "
					f(totalPath, t)
				}
				index--
				return index >= 0
			}, seed)
			checkInvariants(t, totalPath, model)
		}
	})
}
