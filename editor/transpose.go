package editor

import "github.com/vsariola/chordgrid"

// Transpose returns an Action that shifts every chord of every bar, and the
// key of the song, by the given number of semitones. The whole document is
// transposed in one change.
func (m *Model) Transpose(semitones int) Action {
	return MakeAction(&transpose{m, semitones})
}

type transpose struct {
	*Model
	semitones int
}

func (m *transpose) Enabled() bool { return m.semitones%12 != 0 }

func (m *transpose) Do() error {
	if m.semitones%12 == 0 {
		return nil
	}
	defer m.change("Transpose")()
	for i := range m.d.Song.Sections {
		sec := m.mutSection(i)
		for j := range sec.Bars {
			sec.Bars[j].Transpose(m.semitones)
		}
	}
	if m.d.Song.Key != "" {
		m.d.Song.Key = chordgrid.TransposeChord(m.d.Song.Key, m.semitones)
	}
	return nil
}
