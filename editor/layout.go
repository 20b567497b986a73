package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/vsariola/chordgrid"
)

const maxBarsPerLine = 16

// autoSectionNames are the names AutoGenerate gives to its sections, in
// order; later sections are numbered.
var autoSectionNames = []string{"Intro", "Verse 1", "Chorus", "Verse 2", "Chorus", "Bridge", "Chorus", "Outro"}

var ErrNoTempo = errors.New("set a tempo first")

// BarsPerLine returns the number of bars shown on one line as an Int. It is
// a display setting and is not recorded in the undo history.
func (m *Model) BarsPerLine() Int { return MakeInt((*barsPerLine)(m)) }

type barsPerLine Model

func (m *barsPerLine) Value() int            { return m.d.BarsPerLine }
func (m *barsPerLine) Range() RangeInclusive { return RangeInclusive{1, maxBarsPerLine} }
func (m *barsPerLine) SetValue(v int) bool {
	m.d.BarsPerLine = v
	return true
}

// EnterBar returns an Action that inserts empty bars after the anchor bar so
// that the bars following it start on a new line. The anchor is the last
// selected bar of the section, or its final bar if none is selected. If the
// anchor ends a line, a whole line of empty bars is inserted.
func (s *SectionModel) EnterBar() Action { return MakeAction((*enterBar)(s)) }

type enterBar SectionModel

func (s *enterBar) Do() error {
	m := s.m
	defer m.change("EnterBar")()
	i, sec, err := (*SectionModel)(s).get()
	if err != nil {
		return m.reject(err)
	}
	n := m.d.BarsPerLine
	anchor := m.selection.lastIn(sec)
	if anchor < 0 {
		anchor = len(sec.Bars) - 1
	}
	count := n
	if p := (anchor + 1) % n; p != 0 {
		count = n - p
	}
	mut := m.mutSection(i)
	bars := make([]chordgrid.Bar, count)
	for j := range bars {
		bars[j] = chordgrid.NewBar(mut.TimeSignature)
	}
	mut.Bars = insertAt(mut.Bars, anchor+1, bars...)
	return nil
}

// AutoGenerate returns an Action that replaces the document with empty bars
// covering a recording of the given length in seconds. The bars are grouped
// into sections of four lines and carry their start times.
func (m *Model) AutoGenerate(seconds float64) Action {
	return MakeAction(&autoGenerate{m, seconds})
}

type autoGenerate struct {
	*Model
	seconds float64
}

func (m *autoGenerate) Do() error {
	barDuration := m.d.Song.BarDuration()
	if barDuration <= 0 {
		return m.reject(ErrNoTempo)
	}
	if m.seconds <= 0 || math.IsInf(m.seconds, 0) || math.IsNaN(m.seconds) {
		return m.reject(fmt.Errorf("invalid duration %v seconds", m.seconds))
	}
	total := int(math.Ceil(m.seconds / barDuration))
	perSection := 4 * m.d.BarsPerLine
	if limit := MaxBars * 64; total > limit {
		return m.reject(fmt.Errorf("%v seconds would need %d bars, at most %d are allowed", m.seconds, total, limit))
	}
	defer m.change("AutoGenerate")()
	ts := m.d.Song.TimeSignature
	var sections []*chordgrid.Section
	for start := 0; start < total; start += perSection {
		k := len(sections)
		name := fmt.Sprintf("Section %d", k+1)
		if k < len(autoSectionNames) {
			name = autoSectionNames[k]
		}
		sec := m.own(chordgrid.NewSection(name, ts, min(perSection, total-start)))
		for j := range sec.Bars {
			t := float64(start+j) * barDuration
			sec.Bars[j].Timestamp = &t
		}
		sections = append(sections, sec)
	}
	m.d.Song.Sections = sections
	m.selection.Clear()
	m.Alerts().Add(fmt.Sprintf("Created %d bars across %d sections based on %d BPM", total, len(sections), m.d.Song.Tempo), Info)
	return nil
}
