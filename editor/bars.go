package editor

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/chordtext"
)

// MaxBars is the largest bar count BarCount can grow a section to. Longer
// sections, e.g. imported from text, can only shrink.
const MaxBars = 256

func newID() string { return uuid.NewString() }

// NumBars returns the number of bars in the section, 0 if it does not exist.
func (s *SectionModel) NumBars() int {
	if _, sec, err := s.get(); err == nil {
		return len(sec.Bars)
	}
	return 0
}

// BarIDs returns the ids of the bars of the section in order.
func (s *SectionModel) BarIDs() []string {
	_, sec, err := s.get()
	if err != nil {
		return nil
	}
	ret := make([]string, len(sec.Bars))
	for i := range sec.Bars {
		ret[i] = sec.Bars[i].ID
	}
	return ret
}

// AddBar returns an Action to append an empty bar to the section.
func (s *SectionModel) AddBar() Action { return MakeAction((*addBar)(s)) }

type addBar SectionModel

func (s *addBar) Do() error {
	return (*SectionModel)(s).InsertBarAt(-1).Do()
}

// InsertBarAt returns an Action to insert an empty bar at index i. Negative
// or too large indices append.
func (s *SectionModel) InsertBarAt(i int) Action { return MakeAction(&insertBar{s, i}) }

type insertBar struct {
	*SectionModel
	index int
}

func (s *insertBar) Do() error {
	m := s.m
	defer m.change("InsertBar")()
	i, sec, err := s.get()
	if err != nil {
		return m.reject(err)
	}
	at := s.index
	if at < 0 || at > len(sec.Bars) {
		at = len(sec.Bars)
	}
	mut := m.mutSection(i)
	mut.Bars = insertAt(mut.Bars, at, chordgrid.NewBar(mut.TimeSignature))
	return nil
}

// RemoveBar returns an Action to remove the bar with the given id.
func (s *SectionModel) RemoveBar(id string) Action { return MakeAction(&removeBar{s, id}) }

type removeBar struct {
	*SectionModel
	barID string
}

func (s *removeBar) Do() error {
	m := s.m
	defer m.change("RemoveBar")()
	i, sec, err := s.get()
	if err != nil {
		return m.reject(err)
	}
	j := sec.BarIndex(s.barID)
	if j < 0 {
		return m.reject(fmt.Errorf("%w: %q", ErrBarNotFound, s.barID))
	}
	mut := m.mutSection(i)
	mut.Bars = slices.Delete(mut.Bars, j, j+1)
	m.selection.Deselect(s.barID)
	return nil
}

// BarCount returns the number of bars of the section as an Int. Setting it
// pads the section with empty bars or truncates it, in one change.
func (s *SectionModel) BarCount() Int { return MakeInt((*barCount)(s)) }

type barCount SectionModel

func (s *barCount) Value() int            { return (*SectionModel)(s).NumBars() }
func (s *barCount) Range() RangeInclusive {
	return RangeInclusive{0, max(MaxBars, (*SectionModel)(s).NumBars())}
}
func (s *barCount) SetValue(n int) bool {
	m := s.m
	i, sec, err := (*SectionModel)(s).get()
	if err != nil {
		m.reject(err)
		return false
	}
	if n == len(sec.Bars) {
		return false
	}
	defer m.change("ResizeBarCount")()
	mut := m.mutSection(i)
	if n < len(mut.Bars) {
		for _, b := range mut.Bars[n:] {
			m.selection.Deselect(b.ID)
		}
		mut.Bars = mut.Bars[:n]
		return true
	}
	for len(mut.Bars) < n {
		mut.Bars = append(mut.Bars, chordgrid.NewBar(mut.TimeSignature))
	}
	return true
}

// ResizeBarCount returns an Action that sets the bar count to n.
func (s *SectionModel) ResizeBarCount(n int) Action { return MakeAction(&resizeBarCount{s, n}) }

type resizeBarCount struct {
	*SectionModel
	n int
}

func (s *resizeBarCount) Do() error {
	if _, _, err := s.get(); err != nil {
		return s.m.reject(err)
	}
	if r := s.BarCount().Range(); s.n != r.Clamp(s.n) {
		return s.m.reject(fmt.Errorf("bar count %d out of range %d..%d", s.n, r.Min, r.Max))
	}
	s.BarCount().SetValue(s.n)
	return nil
}

// DuplicateLastBar returns an Action that copies the last bar with a chord
// into the first empty bar after it, or appends the copy if there is none.
func (s *SectionModel) DuplicateLastBar() Action { return MakeAction((*duplicateLastBar)(s)) }

type duplicateLastBar SectionModel

func (s *duplicateLastBar) Enabled() bool {
	_, sec, err := (*SectionModel)(s).get()
	return err == nil && lastFilled(sec) >= 0
}

func (s *duplicateLastBar) Do() error {
	m := s.m
	defer m.change("DuplicateLastBar")()
	i, sec, err := (*SectionModel)(s).get()
	if err != nil {
		return m.reject(err)
	}
	src := lastFilled(sec)
	if src < 0 {
		return m.reject(fmt.Errorf("%w: no bar with a chord to repeat", ErrBarNotFound))
	}
	mut := m.mutSection(i)
	c := mut.Bars[src].Copy()
	c.ID = newID()
	c.Timestamp = nil
	for j := src + 1; j < len(mut.Bars); j++ {
		if mut.Bars[j].IsEmpty() {
			c.ID = mut.Bars[j].ID
			c.Timestamp = mut.Bars[j].Timestamp
			mut.Bars[j] = c
			return nil
		}
	}
	mut.Bars = append(mut.Bars, c)
	return nil
}

func lastFilled(sec *chordgrid.Section) int {
	for j := len(sec.Bars) - 1; j >= 0; j-- {
		if sec.Bars[j].Chord != "" {
			return j
		}
	}
	return -1
}

// BarModel is the view of one bar of a section.
type BarModel struct {
	*SectionModel
	barID string
}

// Bar returns the view of the bar with the given id.
func (s *SectionModel) Bar(id string) *BarModel { return &BarModel{s, id} }

func (b *BarModel) ID() string { return b.barID }

// Value returns a copy of the bar and whether it exists.
func (b *BarModel) Value() (chordgrid.Bar, bool) {
	_, _, bar, err := b.get()
	if err != nil {
		return chordgrid.Bar{}, false
	}
	return bar.Copy(), true
}

func (b *BarModel) get() (int, int, *chordgrid.Bar, error) {
	i, sec, err := b.SectionModel.get()
	if err != nil {
		return -1, -1, nil, err
	}
	j := sec.BarIndex(b.barID)
	if j < 0 {
		return -1, -1, nil, fmt.Errorf("%w: %q", ErrBarNotFound, b.barID)
	}
	return i, j, &sec.Bars[j], nil
}

// edit runs f on a mutable copy of the bar within a change of the given
// kind.
func (b *BarModel) edit(kind string, f func(bar *chordgrid.Bar)) bool {
	m := b.m
	i, j, _, err := b.get()
	if err != nil {
		m.reject(err)
		return false
	}
	defer m.change(kind)()
	f(&m.mutSection(i).Bars[j])
	return true
}

// Chord returns one chord slot of the bar as a String.
func (b *BarModel) Chord(slot chordgrid.Slot) String { return MakeString(&barChord{b, slot}) }

type barChord struct {
	*BarModel
	slot chordgrid.Slot
}

func (b *barChord) Value() string {
	_, _, bar, err := b.get()
	if err != nil || !b.slot.Valid() {
		return ""
	}
	return *bar.Slot(b.slot)
}

func (b *barChord) SetValue(value string) bool {
	if !b.slot.Valid() {
		b.m.reject(fmt.Errorf("invalid chord slot %d", b.slot))
		return false
	}
	return b.edit("SetChord", func(bar *chordgrid.Bar) { *bar.Slot(b.slot) = value })
}

// Melody returns the number-notation melody of the bar as a String.
func (b *BarModel) Melody() String { return MakeString((*barMelody)(b)) }

type barMelody BarModel

func (b *barMelody) Value() string {
	if _, _, bar, err := (*BarModel)(b).get(); err == nil {
		return bar.Melody
	}
	return ""
}

func (b *barMelody) SetValue(value string) bool {
	return (*BarModel)(b).edit("SetMelody", func(bar *chordgrid.Bar) { bar.Melody = value })
}

// Comment returns the comment of the bar as a String.
func (b *BarModel) Comment() String { return MakeString((*barComment)(b)) }

type barComment BarModel

func (b *barComment) Value() string {
	if _, _, bar, err := (*BarModel)(b).get(); err == nil {
		return bar.Comment
	}
	return ""
}

func (b *barComment) SetValue(value string) bool {
	return (*BarModel)(b).edit("SetComment", func(bar *chordgrid.Bar) { bar.Comment = value })
}

// RecordTimestamp returns an Action that stores the playback position t, in
// seconds, as the start time of the bar.
func (b *BarModel) RecordTimestamp(t float64) Action { return MakeAction(&recordTimestamp{b, t}) }

type recordTimestamp struct {
	*BarModel
	t float64
}

func (b *recordTimestamp) Do() error {
	if b.t < 0 {
		return b.m.reject(fmt.Errorf("negative timestamp %v", b.t))
	}
	if _, _, _, err := b.get(); err != nil {
		return b.m.reject(err)
	}
	b.edit("RecordTimestamp", func(bar *chordgrid.Bar) {
		t := b.t
		bar.Timestamp = &t
	})
	return nil
}

// MelodyText returns the melody of the whole section as a text block, one
// cell per bar (see chordtext.FormatMelody). Setting it replaces the melody
// of every bar; a block with the wrong number of cells is rejected.
func (s *SectionModel) MelodyText() String { return MakeString((*melodyText)(s)) }

type melodyText SectionModel

func (s *melodyText) Value() string {
	_, sec, err := (*SectionModel)(s).get()
	if err != nil {
		return ""
	}
	return chordtext.FormatMelody(sec, s.m.d.BarsPerLine)
}

func (s *melodyText) SetValue(value string) bool {
	m := s.m
	i, _, err := (*SectionModel)(s).get()
	if err != nil {
		m.reject(err)
		return false
	}
	defer m.change("SetMelodyText")()
	if err := chordtext.ApplyMelody(m.mutSection(i), value); err != nil {
		m.reject(err)
		return false
	}
	return true
}
