package chordgrid

import "math"

// BarPos is the position of a bar in the arrangement.
type BarPos struct {
	Section int
	Bar     int
}

// BarDuration returns the length of one bar of the global time signature in
// seconds, or 0 if the tempo is not set.
func (s *Song) BarDuration() float64 {
	if s.Tempo <= 0 || s.TimeSignature.Beats <= 0 {
		return 0
	}
	return 60 / float64(s.Tempo) * float64(s.TimeSignature.Beats)
}

// CurrentBar returns the flat index of the bar playing at t seconds.
func (s *Song) CurrentBar(t float64) int {
	d := s.BarDuration()
	if d <= 0 || t < 0 {
		return 0
	}
	return int(math.Floor(t / d))
}

// BarAt resolves a flat bar index, counted over all sections in order.
func (s *Song) BarAt(flat int) (BarPos, bool) {
	if flat < 0 {
		return BarPos{}, false
	}
	for i, sec := range s.Sections {
		if flat < len(sec.Bars) {
			return BarPos{Section: i, Bar: flat}, true
		}
		flat -= len(sec.Bars)
	}
	return BarPos{}, false
}

// FlatIndex is the inverse of BarAt.
func (s *Song) FlatIndex(p BarPos) int {
	n := 0
	for i := 0; i < p.Section && i < len(s.Sections); i++ {
		n += len(s.Sections[i].Bars)
	}
	return n + p.Bar
}
