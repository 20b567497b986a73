package editor

import (
	"fmt"

	"github.com/vsariola/chordgrid"
)

type (
	// SectionModel is the view of one section of the model, addressed by id.
	// It stays valid across changes that keep the section, including undo
	// and redo.
	SectionModel struct {
		m  *Model
		id string
	}

	// Direction is the direction a section moves in the arrangement.
	Direction int
)

const (
	Up   Direction = -1
	Down Direction = 1
)

// Section returns the view of the section with the given id.
func (m *Model) Section(id string) *SectionModel { return &SectionModel{m: m, id: id} }

// SectionAt returns the view of the i-th section. Out of range indices give
// a view that matches no section.
func (m *Model) SectionAt(i int) *SectionModel {
	if i < 0 || i >= len(m.d.Song.Sections) {
		return &SectionModel{m: m}
	}
	return m.Section(m.d.Song.Sections[i].ID)
}

func (s *SectionModel) ID() string { return s.id }

// Exists reports whether the document still contains the section.
func (s *SectionModel) Exists() bool { return s.m.d.Song.SectionIndex(s.id) >= 0 }

// Value returns a deep copy of the section, or nil if it does not exist.
func (s *SectionModel) Value() *chordgrid.Section {
	i := s.m.d.Song.SectionIndex(s.id)
	if i < 0 {
		return nil
	}
	return s.m.d.Song.Sections[i].Copy()
}

// get returns the section for reading.
func (s *SectionModel) get() (int, *chordgrid.Section, error) {
	i, err := s.m.sectionIndex(s.id)
	if err != nil {
		return -1, nil, err
	}
	return i, s.m.d.Song.Sections[i], nil
}

// AddSection returns an Action to append a new section of four empty bars
// in the global time signature.
func (m *Model) AddSection() Action { return MakeAction((*addSection)(m)) }

type addSection Model

func (m *addSection) Do() error {
	defer (*Model)(m).change("AddSection")()
	name := fmt.Sprintf("Section %d", len(m.d.Song.Sections)+1)
	sec := (*Model)(m).own(chordgrid.NewSection(name, m.d.Song.TimeSignature, 4))
	m.d.Song.Sections = append(m.d.Song.Sections, sec)
	return nil
}

// Duplicate returns an Action to insert a copy of the section after it. The
// copy keeps all bar content but gets new ids.
func (s *SectionModel) Duplicate() Action { return MakeAction((*duplicateSection)(s)) }

type duplicateSection SectionModel

func (s *duplicateSection) Do() error {
	m := s.m
	defer m.change("DuplicateSection")()
	i, sec, err := (*SectionModel)(s).get()
	if err != nil {
		return m.reject(err)
	}
	c := m.own(sec.Copy())
	c.ID = newID()
	c.Name = sec.Name + " Copy"
	for j := range c.Bars {
		c.Bars[j].ID = newID()
	}
	m.d.Song.Sections = insertAt(m.d.Song.Sections, i+1, c)
	return nil
}

// Delete returns an Action to delete the section. The last section cannot
// be deleted.
func (s *SectionModel) Delete() Action { return MakeAction((*deleteSection)(s)) }

type deleteSection SectionModel

func (s *deleteSection) Enabled() bool { return s.m.NumSections() > 1 }
func (s *deleteSection) Do() error {
	m := s.m
	defer m.change("DeleteSection")()
	i, sec, err := (*SectionModel)(s).get()
	if err != nil {
		return m.reject(err)
	}
	if len(m.d.Song.Sections) <= 1 {
		return m.reject(ErrLastSection)
	}
	for j := range sec.Bars {
		m.selection.Deselect(sec.Bars[j].ID)
	}
	m.d.Song.Sections = append(m.d.Song.Sections[:i], m.d.Song.Sections[i+1:]...)
	return nil
}

// Move returns an Action to swap the section with its neighbour in the given
// direction. Moving past either end does nothing.
func (s *SectionModel) Move(dir Direction) Action {
	return MakeAction(&moveSection{s, dir})
}

type moveSection struct {
	*SectionModel
	dir Direction
}

func (s *moveSection) Enabled() bool {
	i := s.m.d.Song.SectionIndex(s.id)
	j := i + int(s.dir)
	return i >= 0 && j >= 0 && j < s.m.NumSections()
}

func (s *moveSection) Do() error {
	m := s.m
	i, _, err := s.get()
	if err != nil {
		return m.reject(err)
	}
	j := i + int(s.dir)
	if j < 0 || j >= len(m.d.Song.Sections) {
		return nil
	}
	defer m.change("MoveSection")()
	secs := m.d.Song.Sections
	secs[i], secs[j] = secs[j], secs[i]
	return nil
}

// Name returns the name of the section as a String.
func (s *SectionModel) Name() String { return MakeString((*sectionName)(s)) }

type sectionName SectionModel

func (s *sectionName) Value() string {
	if _, sec, err := (*SectionModel)(s).get(); err == nil {
		return sec.Name
	}
	return ""
}

func (s *sectionName) SetValue(value string) bool {
	m := s.m
	i, _, err := (*SectionModel)(s).get()
	if err != nil {
		m.reject(err)
		return false
	}
	defer m.change("SetSectionName")()
	m.mutSection(i).Name = value
	return true
}

// SetTimeSignature returns an Action to change the time signature of the
// section. The beats of every bar without an override follow the new
// signature. The change is rejected if a bar's note tally would no longer
// fit.
func (s *SectionModel) SetTimeSignature(ts chordgrid.TimeSignature) Action {
	return MakeAction(&setSectionTimeSignature{s, ts})
}

type setSectionTimeSignature struct {
	*SectionModel
	ts chordgrid.TimeSignature
}

func (s *setSectionTimeSignature) Do() error {
	m := s.m
	defer m.change("SetSectionTimeSignature")()
	i, sec, err := s.get()
	if err != nil {
		return m.reject(err)
	}
	if err := s.ts.Validate(); err != nil {
		return m.reject(err)
	}
	for j := range sec.Bars {
		b := &sec.Bars[j]
		ts := b.EffectiveTimeSignature(s.ts)
		if used := b.UsedBeats(ts); used > ts.Capacity() {
			return m.reject(fmt.Errorf("%w: bar %d uses %v beats, %v has %v", chordgrid.ErrCapacity, j+1, used, ts, ts.Capacity()))
		}
	}
	mut := m.mutSection(i)
	mut.TimeSignature = s.ts
	for j := range mut.Bars {
		mut.Bars[j].Beats = mut.Bars[j].EffectiveTimeSignature(s.ts).Beats
	}
	return nil
}

// TimeSignature returns the time signature of the section as a String, e.g.
// "3/4". Setting a malformed signature raises an alert and changes nothing.
func (s *SectionModel) TimeSignature() String { return MakeString((*sectionTimeSignature)(s)) }

type sectionTimeSignature SectionModel

func (s *sectionTimeSignature) Value() string {
	if _, sec, err := (*SectionModel)(s).get(); err == nil {
		return sec.TimeSignature.String()
	}
	return ""
}

func (s *sectionTimeSignature) SetValue(value string) bool {
	ts, err := chordgrid.ParseTimeSignature(value)
	if err != nil {
		s.m.reject(err)
		return false
	}
	return (*SectionModel)(s).SetTimeSignature(ts).Do() == nil
}

// ShowMelody returns whether the melody row of the section is shown.
// Display flags are not recorded in the undo history.
func (s *SectionModel) ShowMelody() Bool { return MakeBool((*showMelody)(s)) }

type showMelody SectionModel

func (s *showMelody) Value() bool {
	_, sec, err := (*SectionModel)(s).get()
	return err == nil && sec.ShowMelody
}

func (s *showMelody) SetValue(value bool) {
	if i, _, err := (*SectionModel)(s).get(); err == nil {
		s.m.mutSection(i).ShowMelody = value
		s.m.d.ChangedSinceSave = true
	}
}

func (s *showMelody) Enabled() bool { return (*SectionModel)(s).Exists() }

// ShowNoteTypes returns whether the note type row of the section is shown.
func (s *SectionModel) ShowNoteTypes() Bool { return MakeBool((*showNoteTypes)(s)) }

type showNoteTypes SectionModel

func (s *showNoteTypes) Value() bool {
	_, sec, err := (*SectionModel)(s).get()
	return err == nil && sec.ShowNoteTypes
}

func (s *showNoteTypes) SetValue(value bool) {
	if i, _, err := (*SectionModel)(s).get(); err == nil {
		s.m.mutSection(i).ShowNoteTypes = value
		s.m.d.ChangedSinceSave = true
	}
}

func (s *showNoteTypes) Enabled() bool { return (*SectionModel)(s).Exists() }

func insertAt[T any](s []T, i int, v ...T) []T {
	ret := make([]T, 0, len(s)+len(v))
	ret = append(ret, s[:i]...)
	ret = append(ret, v...)
	return append(ret, s[i:]...)
}
