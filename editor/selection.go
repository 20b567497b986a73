package editor

import (
	"slices"

	"github.com/vsariola/chordgrid"
)

// Selection is the set of selected bar ids. It remembers the order in which
// bars were selected, so the last selected bar is well defined.
type Selection struct {
	ids []string
}

// Select adds id to the selection. Selecting an already selected bar makes
// it the last selected one.
func (s *Selection) Select(ids ...string) {
	for _, id := range ids {
		s.Deselect(id)
		s.ids = append(s.ids, id)
	}
}

func (s *Selection) Deselect(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

// Toggle selects id if it is not selected and deselects it otherwise.
func (s *Selection) Toggle(id string) {
	if s.Contains(id) {
		s.Deselect(id)
	} else {
		s.Select(id)
	}
}

func (s *Selection) Contains(id string) bool { return slices.Contains(s.ids, id) }
func (s *Selection) Len() int                { return len(s.ids) }
func (s *Selection) Clear()                  { s.ids = s.ids[:0] }

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string { return slices.Clone(s.ids) }

// Last returns the most recently selected id.
func (s *Selection) Last() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[len(s.ids)-1], true
}

// indices returns the sorted indices of the selected bars of sec.
func (s *Selection) indices(sec *chordgrid.Section) []int {
	var ret []int
	for i := range sec.Bars {
		if s.Contains(sec.Bars[i].ID) {
			ret = append(ret, i)
		}
	}
	return ret
}

// lastIn returns the index of the most recently selected bar of sec, or -1.
func (s *Selection) lastIn(sec *chordgrid.Section) int {
	for i := len(s.ids) - 1; i >= 0; i-- {
		if j := sec.BarIndex(s.ids[i]); j >= 0 {
			return j
		}
	}
	return -1
}

// retain drops the ids of bars that no longer exist.
func (s *Selection) retain(sections []*chordgrid.Section) {
	exists := map[string]bool{}
	for _, sec := range sections {
		for i := range sec.Bars {
			exists[sec.Bars[i].ID] = true
		}
	}
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !exists[id] })
}
