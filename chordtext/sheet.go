// Package chordtext converts chord grids to and from a compact plain-text
// notation:
//
//	= Verse
//	| C | G ; D | . | Am |
//	| F | (G)x2 | C |
//
// A line starting with "=" or "-" opens a section. Every cell between pipes
// is a bar; up to three chords of a bar are separated with ";" and an empty
// bar is written as ".". A "(...)xN" cell repeats its content for N bars;
// parentheses without a count are part of the chord, as in "(C)".
// Lines without pipes list chords separated by whitespace; each chord starts
// a new bar and following "." tokens hold it. Lines starting with "#" are
// comments.
//
// Only chord text, bar counts and section names survive the conversion.
// Rests, duration tallies, signs, endings, fermatas, time signature
// overrides, comments, timestamps and melodies are not part of the notation.
// Melodies have their own block format, see FormatMelody.
package chordtext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vsariola/chordgrid"
)

type (
	// Sheet is the intermediate form shared by both directions of the
	// conversion.
	Sheet struct {
		Sections []SheetSection
	}

	SheetSection struct {
		Name string
		Rows []Row
	}

	// Row is one line of cells.
	Row []Cell

	// Cell holds the chord slots of one bar. An empty slot is "".
	Cell [3]string

	// Warning describes a line that was skipped or only partially
	// understood.
	Warning struct {
		Line    int
		Message string
	}
)

var ErrNoSections = errors.New("no sections found in text")

// DefaultSectionName names the section collecting chord rows that appear
// before any header.
const DefaultSectionName = "Section 1"

const DefaultBarsPerLine = 4

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// FromSections builds a sheet from grid sections, barsPerLine bars per row.
func FromSections(sections []*chordgrid.Section, barsPerLine int) *Sheet {
	if barsPerLine < 1 {
		barsPerLine = DefaultBarsPerLine
	}
	sheet := &Sheet{Sections: make([]SheetSection, 0, len(sections))}
	for _, sec := range sections {
		ss := SheetSection{Name: sec.Name}
		var row Row
		for i := range sec.Bars {
			row = append(row, cellOf(&sec.Bars[i]))
			if len(row) == barsPerLine {
				ss.Rows = append(ss.Rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			ss.Rows = append(ss.Rows, row)
		}
		sheet.Sections = append(sheet.Sections, ss)
	}
	return sheet
}

func cellOf(b *chordgrid.Bar) Cell {
	var c Cell
	for i, s := range b.Slots() {
		c[i] = strings.Join(strings.Fields(s), " ")
	}
	return c
}

// Cells returns the cells of the section in order, ignoring row breaks.
func (s *SheetSection) Cells() []Cell {
	var ret []Cell
	for _, r := range s.Rows {
		ret = append(ret, r...)
	}
	return ret
}

// NumBars returns the number of bars over all sections of the sheet.
func (s *Sheet) NumBars() int {
	n := 0
	for i := range s.Sections {
		for _, r := range s.Sections[i].Rows {
			n += len(r)
		}
	}
	return n
}

// Build turns the sheet into grid sections with fresh ids. Every section
// and bar gets the time signature ts.
func (s *Sheet) Build(ts chordgrid.TimeSignature) []*chordgrid.Section {
	ret := make([]*chordgrid.Section, 0, len(s.Sections))
	for i := range s.Sections {
		ss := &s.Sections[i]
		sec := chordgrid.NewSection(ss.Name, ts, 0)
		sec.Position = i
		for _, c := range ss.Cells() {
			bar := chordgrid.NewBar(ts)
			bar.SetSlots(c)
			sec.Bars = append(sec.Bars, bar)
		}
		ret = append(ret, sec)
	}
	return ret
}

func (c Cell) IsEmpty() bool {
	return c[0] == "" && c[1] == "" && c[2] == ""
}

// String renders the cell as it appears between pipes.
func (c Cell) String() string {
	last := -1
	for i, s := range c {
		if s != "" {
			last = i
		}
	}
	if last < 0 {
		return "."
	}
	parts := make([]string, last+1)
	for i := range parts {
		parts[i] = c[i]
		if parts[i] == "" {
			parts[i] = "."
		}
	}
	return strings.Join(parts, " ; ")
}
