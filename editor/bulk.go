package editor

import (
	"fmt"
	"strings"

	"github.com/vsariola/chordgrid"
)

const (
	repeatSign     = "%"
	repeatComment  = "Repeat previous bar"
	repeatOpen     = "||: "
	repeatClose    = " :||"
	repeatCloseTag = "(1x)"
	slashMarks     = " / /"
)

// bulk is the common part of the operations applied to the selected bars of
// one section.
type bulk struct {
	*SectionModel
	kind string
	// keepSelection leaves the selection intact after a successful
	// operation; by default it is cleared.
	keepSelection bool
	// check is called for every selected bar before anything is modified;
	// an error rejects the whole operation.
	check func(sec *chordgrid.Section, bar *chordgrid.Bar) error
	// apply modifies the section; indices are the sorted indices of the
	// selected bars.
	apply func(sec *chordgrid.Section, indices []int)
}

func (b *bulk) Enabled() bool {
	_, sec, err := b.get()
	return err == nil && len(b.m.selection.indices(sec)) > 0
}

func (b *bulk) Do() error {
	m := b.m
	i, sec, err := b.get()
	if err != nil {
		return m.reject(err)
	}
	indices := m.selection.indices(sec)
	if len(indices) == 0 {
		return m.reject(ErrEmptySelection)
	}
	if b.check != nil {
		for _, j := range indices {
			if err := b.check(sec, &sec.Bars[j]); err != nil {
				return m.reject(fmt.Errorf("bar %d: %w", j+1, err))
			}
		}
	}
	defer m.change(b.kind)()
	b.apply(m.mutSection(i), indices)
	if !b.keepSelection {
		m.selection.Clear()
	}
	return nil
}

func (s *SectionModel) bulk(kind string, apply func(sec *chordgrid.Section, indices []int)) *bulk {
	return &bulk{SectionModel: s, kind: kind, apply: apply}
}

// AddRepeatSign returns an Action that sets the chord of the selected bars to
// the repeat sign "%". The selection is kept.
func (s *SectionModel) AddRepeatSign() Action {
	b := s.bulk("AddRepeatSign", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			sec.Bars[j].Chord = repeatSign
			sec.Bars[j].Comment = repeatComment
		}
	})
	b.keepSelection = true
	return MakeAction(b)
}

// AddRest returns an Action that puts a rest of duration d on the selected
// bars. A bar that already has a leading rest gets a trailing rest instead.
// The selection is kept.
func (s *SectionModel) AddRest(d chordgrid.Duration, dotted bool) Action {
	b := s.bulk("AddRest", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			r := &chordgrid.Rest{Duration: d, Dotted: dotted}
			if sec.Bars[j].Rest == nil {
				sec.Bars[j].Rest = r
			} else {
				sec.Bars[j].TrailingRest = r
			}
		}
	})
	b.keepSelection = true
	b.check = func(*chordgrid.Section, *chordgrid.Bar) error {
		if !d.Valid() {
			return fmt.Errorf("%w: %d", chordgrid.ErrInvalidDuration, int(d))
		}
		return nil
	}
	return MakeAction(b)
}

// AddNoteSymbol returns an Action that adds a note of duration d to the tally
// of every selected bar. If the note does not fit into any one of the bars,
// no bar is changed. The selection is kept, so a tally can be entered note
// by note.
func (s *SectionModel) AddNoteSymbol(d chordgrid.Duration) Action {
	b := s.bulk("AddNoteSymbol", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			bar := &sec.Bars[j]
			// checked to fit before the change started
			_ = bar.AddNote(d, bar.EffectiveTimeSignature(sec.TimeSignature))
		}
	})
	b.keepSelection = true
	b.check = func(sec *chordgrid.Section, bar *chordgrid.Bar) error {
		ts := bar.EffectiveTimeSignature(sec.TimeSignature)
		if !d.Valid() {
			return fmt.Errorf("%w: %d", chordgrid.ErrInvalidDuration, int(d))
		}
		if !chordgrid.CanAdd(bar, d, ts) {
			return fmt.Errorf("%w: %v does not fit, %v of %v beats used", chordgrid.ErrCapacity, d, bar.UsedBeats(ts), ts.Capacity())
		}
		return nil
	}
	return MakeAction(b)
}

// ClearNoteTypes returns an Action that empties the note tally of the
// selected bars.
func (s *SectionModel) ClearNoteTypes() Action {
	return MakeAction(s.bulk("ClearNoteTypes", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			sec.Bars[j].NoteTypes = nil
		}
	}))
}

// AddSlashNotation returns an Action that appends slash marks to the chord
// of the selected bars.
func (s *SectionModel) AddSlashNotation() Action {
	return MakeAction(s.bulk("AddSlashNotation", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			sec.Bars[j].Chord = strings.TrimSpace(sec.Bars[j].Chord + slashMarks)
		}
	}))
}

// AddEnding returns an Action that marks the selected bars as part of an
// ending bracket of group g. Existing endings of the selected bars are
// replaced; every maximal run of consecutive selected bars forms one bracket.
func (s *SectionModel) AddEnding(g chordgrid.EndingGroup) Action {
	b := s.bulk("AddEnding", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			sec.Bars[j].Ending = nil
		}
		for k, j := range indices {
			start := k == 0 || indices[k-1] != j-1
			end := k == len(indices)-1 || indices[k+1] != j+1
			sec.Bars[j].Ending = &chordgrid.Ending{Group: g, Start: start, End: end}
		}
	})
	b.check = func(*chordgrid.Section, *chordgrid.Bar) error {
		if !g.Valid() {
			return fmt.Errorf("invalid ending group %d", int(g))
		}
		return nil
	}
	return MakeAction(b)
}

// RemoveEnding returns an Action that removes every ending of group g from
// the section, regardless of the selection.
func (s *SectionModel) RemoveEnding(g chordgrid.EndingGroup) Action {
	return MakeAction(&removeEnding{s, g})
}

type removeEnding struct {
	*SectionModel
	group chordgrid.EndingGroup
}

func (s *removeEnding) Do() error {
	m := s.m
	i, sec, err := s.get()
	if err != nil {
		return m.reject(err)
	}
	has := func(b *chordgrid.Bar) bool { return b.Ending != nil && b.Ending.Group == s.group }
	found := false
	for j := range sec.Bars {
		found = found || has(&sec.Bars[j])
	}
	if !found {
		return nil
	}
	defer m.change("RemoveEnding")()
	mut := m.mutSection(i)
	for j := range mut.Bars {
		if has(&mut.Bars[j]) {
			mut.Bars[j].Ending = nil
		}
	}
	return nil
}

// AddSign returns an Action that adds the navigation sign to the selected
// bars. Signs accumulate; adding one never removes another.
func (s *SectionModel) AddSign(sign chordgrid.Signs) Action {
	b := s.bulk("AddSign", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			sec.Bars[j].Signs |= sign
		}
	})
	b.check = func(*chordgrid.Section, *chordgrid.Bar) error {
		if sign.Len() != 1 || sign > chordgrid.Fine {
			return fmt.Errorf("%w: %d", chordgrid.ErrInvalidSign, int(sign))
		}
		return nil
	}
	return MakeAction(b)
}

// ToggleFermata returns an Action that flips the fermata of the selected
// bars.
func (s *SectionModel) ToggleFermata() Action {
	return MakeAction(s.bulk("ToggleFermata", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			sec.Bars[j].Fermata = !sec.Bars[j].Fermata
		}
	}))
}

// AddTimeSignatureOverride returns an Action that gives the selected bars
// their own time signature. It is rejected if a bar's note tally would not
// fit the new signature.
func (s *SectionModel) AddTimeSignatureOverride(ts chordgrid.TimeSignature) Action {
	b := s.bulk("AddTimeSignatureOverride", func(sec *chordgrid.Section, indices []int) {
		for _, j := range indices {
			o := ts
			sec.Bars[j].TimeSignature = &o
			sec.Bars[j].Beats = ts.Beats
		}
	})
	b.check = func(_ *chordgrid.Section, bar *chordgrid.Bar) error {
		if err := ts.Validate(); err != nil {
			return err
		}
		if used := bar.UsedBeats(ts); used > ts.Capacity() {
			return fmt.Errorf("%w: %v beats used, %v has %v", chordgrid.ErrCapacity, used, ts, ts.Capacity())
		}
		return nil
	}
	return MakeAction(b)
}

// AddRepeatStartMarker returns an Action that prefixes the chord of the first
// selected bar with a repeat start sign.
func (s *SectionModel) AddRepeatStartMarker() Action {
	b := s.bulk("AddRepeatStartMarker", func(sec *chordgrid.Section, indices []int) {
		bar := &sec.Bars[indices[0]]
		bar.Chord = strings.TrimSpace(repeatOpen + bar.Chord)
	})
	return MakeAction(b)
}

// AddRepeatEndMarker returns an Action that suffixes the chord of the last
// selected bar with a repeat end sign and appends the play count to its
// comment.
func (s *SectionModel) AddRepeatEndMarker() Action {
	b := s.bulk("AddRepeatEndMarker", func(sec *chordgrid.Section, indices []int) {
		bar := &sec.Bars[indices[len(indices)-1]]
		bar.Chord = strings.TrimSpace(bar.Chord + repeatClose)
		bar.Comment = strings.TrimSpace(bar.Comment + " " + repeatCloseTag)
	})
	return MakeAction(b)
}
