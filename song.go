package chordgrid

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type (
	// Song is a chord sheet: an ordered list of Sections plus the global
	// settings (tempo, time signature, key, capo) shared by all of them.
	// Title and Artist are advisory; nothing in the model depends on them.
	Song struct {
		Metadata `yaml:",inline"`
		Sections []*Section
	}

	// Metadata holds the song-wide settings that are not part of the bar
	// grid. It is persisted next to the sections by the stores.
	Metadata struct {
		Title         string `yaml:",omitempty"`
		Artist        string `yaml:",omitempty"`
		Key           string `yaml:",omitempty"`
		Tempo         int
		Capo          int `yaml:",omitempty"`
		TimeSignature TimeSignature
	}

	// Section is a named run of bars, e.g. "Verse 1" or "Chorus". The time
	// signature of the section applies to every bar that does not carry its
	// own override. Position is the index of the section in the arrangement,
	// kept in sync with the order of Song.Sections by the editor.
	Section struct {
		ID            string
		Name          string
		TimeSignature TimeSignature
		ShowMelody    bool `yaml:",omitempty"`
		ShowNoteTypes bool `yaml:",omitempty"`
		Position      int
		Bars          []Bar
	}

	// Bar is one measure of the grid. A bar holds up to three chords played
	// in sequence: Chord is the primary one, ChordAfter follows a leading
	// rest and ChordEnd follows a trailing rest.
	//
	// NoteTypes is the tally of note durations attached to the bar. The sum
	// of their beat weights never exceeds the capacity of the effective time
	// signature of the bar; see CanAdd.
	Bar struct {
		ID            string
		Chord         string         `yaml:",omitempty"`
		ChordAfter    string         `yaml:",omitempty"`
		ChordEnd      string         `yaml:",omitempty"`
		Rest          *Rest          `yaml:",omitempty"`
		TrailingRest  *Rest          `yaml:",omitempty"`
		Beats         int
		TimeSignature *TimeSignature `yaml:",omitempty"`
		Ending        *Ending        `yaml:",omitempty"`
		Signs         Signs          `yaml:",omitempty"`
		Fermata       bool           `yaml:",omitempty"`
		Melody        string         `yaml:",omitempty"`
		NoteTypes     []NoteCount    `yaml:",omitempty,flow"`
		Comment       string         `yaml:",omitempty"`
		Timestamp     *float64       `yaml:",omitempty"`
	}

	// NoteCount is one entry of a bar's duration tally.
	NoteCount struct {
		Duration Duration
		Count    int
	}
)

var ErrInvalidSong = errors.New("chordgrid: invalid song")

// DefaultTempo is the tempo of a new song, in beats per minute.
const DefaultTempo = 120

// NewSong returns a song with a single four-bar section called "Intro".
func NewSong(ts TimeSignature) Song {
	return Song{
		Metadata: Metadata{Key: "C", Tempo: DefaultTempo, TimeSignature: ts},
		Sections: []*Section{NewSection("Intro", ts, 4)},
	}
}

// DefaultSong returns a new song in 4/4.
func DefaultSong() Song {
	return NewSong(CommonTime)
}

// NewSection returns a section with a fresh id and n empty bars.
func NewSection(name string, ts TimeSignature, n int) *Section {
	s := &Section{ID: uuid.NewString(), Name: name, TimeSignature: ts}
	s.Bars = make([]Bar, n)
	for i := range s.Bars {
		s.Bars[i] = NewBar(ts)
	}
	return s
}

// NewBar returns an empty bar with a fresh id whose beats follow ts.
func NewBar(ts TimeSignature) Bar {
	return Bar{ID: uuid.NewString(), Beats: ts.Beats}
}

// Copy makes a deep copy of the song.
func (s Song) Copy() Song {
	sections := make([]*Section, len(s.Sections))
	for i, sec := range s.Sections {
		sections[i] = sec.Copy()
	}
	return Song{Metadata: s.Metadata, Sections: sections}
}

// Copy makes a deep copy of the section. The copy keeps the ids.
func (s *Section) Copy() *Section {
	ret := *s
	ret.Bars = make([]Bar, len(s.Bars))
	for i, b := range s.Bars {
		ret.Bars[i] = b.Copy()
	}
	return &ret
}

// Copy makes a deep copy of the bar.
func (b Bar) Copy() Bar {
	if b.Rest != nil {
		r := *b.Rest
		b.Rest = &r
	}
	if b.TrailingRest != nil {
		r := *b.TrailingRest
		b.TrailingRest = &r
	}
	if b.TimeSignature != nil {
		ts := *b.TimeSignature
		b.TimeSignature = &ts
	}
	if b.Ending != nil {
		e := *b.Ending
		b.Ending = &e
	}
	if b.Timestamp != nil {
		t := *b.Timestamp
		b.Timestamp = &t
	}
	if b.NoteTypes != nil {
		b.NoteTypes = append([]NoteCount(nil), b.NoteTypes...)
	}
	return b
}

// IsEmpty reports whether the bar carries no chord text and no annotation
// other than its id and beats.
func (b *Bar) IsEmpty() bool {
	return b.Chord == "" && b.ChordAfter == "" && b.ChordEnd == "" &&
		b.Rest == nil && b.TrailingRest == nil && b.TimeSignature == nil &&
		b.Ending == nil && b.Signs == 0 && !b.Fermata && b.Melody == "" &&
		len(b.NoteTypes) == 0 && b.Comment == "" && b.Timestamp == nil
}

// Slots returns the three chord slots of the bar in playing order.
func (b *Bar) Slots() [3]string {
	return [3]string{b.Chord, b.ChordAfter, b.ChordEnd}
}

// SetSlots sets the three chord slots of the bar.
func (b *Bar) SetSlots(s [3]string) {
	b.Chord, b.ChordAfter, b.ChordEnd = s[0], s[1], s[2]
}

// EffectiveTimeSignature returns the override of the bar if it has one,
// otherwise the signature of the section the bar belongs to.
func (b *Bar) EffectiveTimeSignature(section TimeSignature) TimeSignature {
	if b.TimeSignature != nil {
		return *b.TimeSignature
	}
	return section
}

// SectionIndex returns the index of the section with the given id, or -1.
func (s *Song) SectionIndex(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

// BarIndex returns the index of the bar with the given id, or -1.
func (s *Section) BarIndex(id string) int {
	for i := range s.Bars {
		if s.Bars[i].ID == id {
			return i
		}
	}
	return -1
}

// NumBars returns the total number of bars over all sections.
func (s *Song) NumBars() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Bars)
	}
	return n
}

// Validate checks the structural invariants of a song: at least one section,
// valid time signatures, unique ids and bar tallies that fit their bars.
func (s *Song) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidSong)
	}
	if err := s.TimeSignature.Validate(); err != nil {
		return fmt.Errorf("%w: global time signature: %w", ErrInvalidSong, err)
	}
	ids := map[string]bool{}
	for i, sec := range s.Sections {
		if sec == nil {
			return fmt.Errorf("%w: section %d is nil", ErrInvalidSong, i)
		}
		if ids[sec.ID] {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidSong, sec.ID)
		}
		ids[sec.ID] = true
		if err := sec.TimeSignature.Validate(); err != nil {
			return fmt.Errorf("%w: section %q: %w", ErrInvalidSong, sec.Name, err)
		}
		barIDs := map[string]bool{}
		for j := range sec.Bars {
			b := &sec.Bars[j]
			if barIDs[b.ID] {
				return fmt.Errorf("%w: section %q: duplicate bar id %q", ErrInvalidSong, sec.Name, b.ID)
			}
			barIDs[b.ID] = true
			ts := b.EffectiveTimeSignature(sec.TimeSignature)
			if used := b.UsedBeats(ts); used > ts.Capacity() {
				return fmt.Errorf("%w: section %q bar %d: %v beats in a %v bar", ErrInvalidSong, sec.Name, j+1, used, ts)
			}
		}
	}
	return nil
}
